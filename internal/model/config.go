package model

import "time"

// Config carries every tunable of a run. Field tags map ini keys
// (see internal/config) onto the struct.
type Config struct {
	Probe  ProbeConfig  `ini:"probe"`
	Lookup LookupConfig `ini:"lookup"`
	Output OutputConfig `ini:"output"`

	Verbose  bool `ini:"-"`
	Progress bool `ini:"-"`
}

type ProbeConfig struct {
	InputFile   string        `ini:"input"`
	TestURL     string        `ini:"test_url"`
	Timeout     time.Duration `ini:"timeout"`
	Concurrency int           `ini:"concurrency"`
	SkipBlank   bool          `ini:"skip_blank"`
}

type LookupConfig struct {
	BaseURL string        `ini:"url"`
	Timeout time.Duration `ini:"timeout"`
	GeoIPDB string        `ini:"geoip_db"` // MaxMind ASN database; overrides BaseURL when set
}

type OutputConfig struct {
	ActiveFile   string `ini:"active"`
	DeadFile     string `ini:"dead"`
	AnnotateType bool   `ini:"annotate_type"`
	ReportFile   string `ini:"report"`
	ReportFormat string `ini:"format"` // json or csv
}
