package config

import (
	"errors"
	"fmt"

	"gopkg.in/ini.v1"

	"github.com/August26/proxyprobe/internal/checker"
	"github.com/August26/proxyprobe/internal/classifier"
	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/output"
)

const DefaultInputFile = "proxies.txt"

// Default returns the settings used when neither an ini file nor flags say otherwise.
func Default() model.Config {
	return model.Config{
		Probe: model.ProbeConfig{
			InputFile:   DefaultInputFile,
			TestURL:     checker.DefaultTestURL,
			Timeout:     checker.DefaultTimeout,
			Concurrency: 1,
		},
		Lookup: model.LookupConfig{
			BaseURL: classifier.DefaultLookupURL,
			Timeout: classifier.DefaultLookupTimeout,
		},
		Output: model.OutputConfig{
			ActiveFile:   output.DefaultActiveFile,
			DeadFile:     output.DefaultDeadFile,
			ReportFormat: "json",
		},
	}
}

// LoadIni overlays the keys present in fileName onto cfg. Keys absent from
// the file keep their current value.
//
//	[probe]
//	input       = proxies.txt
//	test_url    = https://httpbin.org/ip
//	timeout     = 5s
//	concurrency = 1
//	skip_blank  = false
//
//	[lookup]
//	url      = https://ipinfo.io
//	timeout  = 5s
//	geoip_db =
//
//	[output]
//	active        = aktif.txt
//	dead          = dead.txt
//	annotate_type = false
//	report        =
//	format        = json
func LoadIni(cfg *model.Config, fileName string) error {
	iniFile, err := ini.Load(fileName)
	if err != nil {
		return fmt.Errorf("load config %s: %w", fileName, err)
	}
	if err := iniFile.MapTo(cfg); err != nil {
		return fmt.Errorf("map config %s: %w", fileName, err)
	}
	return nil
}

// Validate reports every problem in cfg at once.
func Validate(cfg model.Config) error {
	var errs []error
	if cfg.Probe.InputFile == "" {
		errs = append(errs, errors.New("probe.input is required"))
	}
	if cfg.Probe.TestURL == "" {
		errs = append(errs, errors.New("probe.test_url is required"))
	}
	if cfg.Probe.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("probe.timeout must be positive, got %s", cfg.Probe.Timeout))
	}
	if cfg.Probe.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("probe.concurrency must be at least 1, got %d", cfg.Probe.Concurrency))
	}
	if cfg.Lookup.GeoIPDB == "" && cfg.Lookup.BaseURL == "" {
		errs = append(errs, errors.New("lookup.url or lookup.geoip_db is required"))
	}
	if cfg.Lookup.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("lookup.timeout must be positive, got %s", cfg.Lookup.Timeout))
	}
	if cfg.Output.ActiveFile == "" || cfg.Output.DeadFile == "" {
		errs = append(errs, errors.New("output.active and output.dead are required"))
	}
	if cfg.Output.ActiveFile != "" && cfg.Output.ActiveFile == cfg.Output.DeadFile {
		errs = append(errs, fmt.Errorf("output.active and output.dead must differ, both are %q", cfg.Output.ActiveFile))
	}
	if cfg.Output.ReportFormat != "json" && cfg.Output.ReportFormat != "csv" {
		errs = append(errs, fmt.Errorf("output.format must be json or csv, got %q", cfg.Output.ReportFormat))
	}
	return errors.Join(errs...)
}
