package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/August26/proxyprobe/internal/model"
)

// PrintResultsTable prints a human-readable table of per-proxy results.
func PrintResultsTable(w io.Writer, results []model.ProbeResult) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)

	// header
	fmt.Fprintln(tw, "PROXY\tACTIVE\tLAT(ms)\tEXIT IP\tTYPE\tSTATUS")

	for _, r := range results {
		lat := "-"
		if r.Success && r.LatencyMs > 0 {
			lat = strconv.FormatInt(r.LatencyMs, 10)
		}

		status := "-"
		if r.StatusCode > 0 {
			status = strconv.Itoa(r.StatusCode)
		} else if r.Error != "" {
			status = r.Error
		}

		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			dashIfEmpty(string(r.Address)),
			boolToYN(r.Success),
			lat,
			dashIfEmpty(r.ExitIP),
			r.NetworkType,
			status,
		)
	}

	tw.Flush()
}

// PrintSummary prints the aggregated batch stats.
func PrintSummary(w io.Writer, stats model.BatchStats) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Summary:")
	fmt.Fprintf(w, "  Total proxies:            %d\n", stats.TotalProxies)
	fmt.Fprintf(w, "  Unique proxies:           %d\n", stats.UniqueProxies)
	fmt.Fprintf(w, "  Active proxies:           %d\n", stats.ActiveProxies)
	fmt.Fprintf(w, "  Dead proxies:             %d\n", stats.DeadProxies)
	fmt.Fprintf(w, "  Datacenter / Residential / Unknown (active): %d / %d / %d\n",
		stats.Datacenter, stats.Residential, stats.Unknown)
	fmt.Fprintf(w, "  Success rate:             %.1f%%\n", stats.SuccessRatePct)
	fmt.Fprintf(w, "  Avg latency (active):     %.1f ms\n", stats.AvgLatencyMs)
	fmt.Fprintf(w, "  Batch time:               %.2f s\n", float64(stats.TotalProcessingTimeMs)/1000.0)
}

func dashIfEmpty(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func boolToYN(b bool) string {
	if b {
		return "y"
	}
	return "n"
}

// WriteFile writes all probe results + summary stats to a file in json or csv format.
func WriteFile(path string, format string, results []model.ProbeResult, stats model.BatchStats) error {
	if format != "json" && format != "csv" {
		return fmt.Errorf("unsupported format: %s", format)
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if format == "csv" {
		err = writeCSV(f, results)
	} else {
		err = writeJSON(f, results, stats)
	}
	if err != nil {
		return err
	}
	return f.Close()
}

// writeJSON writes an object with "results" and "summary".
func writeJSON(w io.Writer, results []model.ProbeResult, stats model.BatchStats) error {
	payload := struct {
		Results []model.ProbeResult `json:"results"`
		Summary model.BatchStats    `json:"summary"`
	}{
		Results: results,
		Summary: stats,
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

// writeCSV writes a CSV with per-proxy rows (summary is not included in CSV).
func writeCSV(w io.Writer, results []model.ProbeResult) error {
	cw := csv.NewWriter(w)

	header := []string{
		"address",
		"active",
		"network_type",
		"exit_ip",
		"latency_ms",
		"status_code",
		"error",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	for _, r := range results {
		row := []string{
			string(r.Address),
			boolToYN(r.Success),
			string(r.NetworkType),
			r.ExitIP,
			strconv.FormatInt(r.LatencyMs, 10),
			strconv.Itoa(r.StatusCode),
			r.Error,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
