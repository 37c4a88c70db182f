package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cheggaaa/pb/v3"
	"github.com/google/uuid"

	"github.com/August26/proxyprobe/internal/analytics"
	"github.com/August26/proxyprobe/internal/checker"
	"github.com/August26/proxyprobe/internal/classifier"
	"github.com/August26/proxyprobe/internal/config"
	"github.com/August26/proxyprobe/internal/logging"
	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/output"
	"github.com/August26/proxyprobe/internal/parser"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

// parseFlags builds the run configuration: defaults, then the optional ini
// file, then any flag given explicitly on the command line.
func parseFlags(args []string, stderr io.Writer) (model.Config, error) {
	cfg := config.Default()
	var configFile string

	fs := flag.NewFlagSet("proxyprobe", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&configFile, "config", "", "optional ini file with [probe], [lookup] and [output] sections")
	fs.StringVar(&cfg.Probe.InputFile, "input", cfg.Probe.InputFile, "path to file with proxy list, one per line")
	fs.StringVar(&cfg.Probe.TestURL, "test-url", cfg.Probe.TestURL, "IP echo endpoint fetched through each proxy")
	fs.DurationVar(&cfg.Probe.Timeout, "timeout", cfg.Probe.Timeout, "timeout for each proxy check")
	fs.IntVar(&cfg.Probe.Concurrency, "concurrency", cfg.Probe.Concurrency, "number of proxies checked at once")
	fs.BoolVar(&cfg.Probe.SkipBlank, "skip-blank", cfg.Probe.SkipBlank, "ignore empty lines and '#' comments in the input")
	fs.StringVar(&cfg.Lookup.BaseURL, "lookup-url", cfg.Lookup.BaseURL, "ipinfo-compatible service queried as <url>/{ip}/json")
	fs.DurationVar(&cfg.Lookup.Timeout, "lookup-timeout", cfg.Lookup.Timeout, "timeout for each network type lookup")
	fs.StringVar(&cfg.Lookup.GeoIPDB, "geoip-db", cfg.Lookup.GeoIPDB, "MaxMind ASN database to use instead of the lookup service")
	fs.StringVar(&cfg.Output.ActiveFile, "active", cfg.Output.ActiveFile, "file working proxies are appended to")
	fs.StringVar(&cfg.Output.DeadFile, "dead", cfg.Output.DeadFile, "file dead proxies are appended to")
	fs.BoolVar(&cfg.Output.AnnotateType, "annotate-type", cfg.Output.AnnotateType, "write address,type instead of the bare address")
	fs.StringVar(&cfg.Output.ReportFile, "report", cfg.Output.ReportFile, "optional path to write all results (json/csv)")
	fs.StringVar(&cfg.Output.ReportFormat, "format", cfg.Output.ReportFormat, "report format: json | csv")
	fs.BoolVar(&cfg.Progress, "progress", false, "show a progress bar")
	fs.BoolVar(&cfg.Verbose, "verbose", false, "enable debug logs")

	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if configFile != "" {
		// Flags win over the file: remember what was set explicitly, load the
		// file into cfg, then apply those flags again.
		explicit := map[string]string{}
		fs.Visit(func(f *flag.Flag) { explicit[f.Name] = f.Value.String() })

		fromFile := config.Default()
		if err := config.LoadIni(&fromFile, configFile); err != nil {
			return cfg, err
		}
		cfg = fromFile
		for name, value := range explicit {
			if err := fs.Set(name, value); err != nil {
				return cfg, err
			}
		}
	}

	return cfg, config.Validate(cfg)
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := parseFlags(args, stderr)
	if errors.Is(err, flag.ErrHelp) {
		return 0
	}
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	log := logging.NewLogger(stderr, cfg.Verbose).With().Str("run_id", uuid.NewString()).Logger()

	log.Info().
		Str("input", cfg.Probe.InputFile).
		Str("test_url", cfg.Probe.TestURL).
		Dur("timeout", cfg.Probe.Timeout).
		Int("concurrency", cfg.Probe.Concurrency).
		Str("active", cfg.Output.ActiveFile).
		Str("dead", cfg.Output.DeadFile).
		Msg("starting proxyprobe")

	proxies, err := parser.LoadFromFile(cfg.Probe.InputFile, parser.Options{SkipBlank: cfg.Probe.SkipBlank})
	if err != nil {
		log.Error().Err(err).Msg("failed to load proxies")
		return 1
	}
	log.Info().Int("count", len(proxies)).Msg("proxies loaded")

	lookup, closeLookup, err := newLookup(cfg.Lookup)
	if err != nil {
		log.Error().Err(err).Msg("failed to set up network type lookup")
		return 1
	}
	defer closeLookup()

	cls := classifier.New(lookup, log)
	prober := checker.NewProber(cfg.Probe.TestURL, cfg.Probe.Timeout, cls, log)
	rec := output.NewRecorder(cfg.Output.ActiveFile, cfg.Output.DeadFile)
	rec.AnnotateType = cfg.Output.AnnotateType

	opts := checker.BatchOptions{
		Concurrency: cfg.Probe.Concurrency,
		Log:         logging.WithComponent(log, "batch"),
	}
	var bar *pb.ProgressBar
	if cfg.Progress {
		bar = pb.New(len(proxies)).SetWriter(stderr).Start()
		opts.OnResult = func(model.ProbeResult) { bar.Increment() }
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := checker.RunBatch(ctx, proxies, prober, rec, opts)
	duration := time.Since(start)
	if bar != nil {
		bar.Finish()
	}

	stats := analytics.Compute(results, duration)

	switch {
	case errors.Is(err, context.Canceled):
		log.Warn().Int("recorded", len(results)).Int("total", len(proxies)).Msg("interrupted")
	case err != nil:
		log.Error().Err(err).Msg("failed to record result")
		return 1
	}

	log.Info().
		Int64("total_ms", stats.TotalProcessingTimeMs).
		Int("active", stats.ActiveProxies).
		Int("dead", stats.DeadProxies).
		Msg("batch finished")

	if cfg.Verbose {
		output.PrintResultsTable(stdout, results)
	}
	output.PrintSummary(stdout, stats)

	if cfg.Output.ReportFile != "" {
		if err := output.WriteFile(cfg.Output.ReportFile, cfg.Output.ReportFormat, results, stats); err != nil {
			log.Error().Err(err).Str("path", cfg.Output.ReportFile).Msg("failed to write report")
		} else {
			log.Info().
				Str("path", cfg.Output.ReportFile).
				Str("format", cfg.Output.ReportFormat).
				Msg("report written")
		}
	}

	return 0
}

func newLookup(cfg model.LookupConfig) (classifier.Lookup, func(), error) {
	if cfg.GeoIPDB == "" {
		return classifier.NewIPInfoLookup(cfg.BaseURL, cfg.Timeout), func() {}, nil
	}
	db, err := classifier.OpenGeoIP(cfg.GeoIPDB)
	if err != nil {
		return nil, nil, err
	}
	return db, func() { _ = db.Close() }, nil
}
