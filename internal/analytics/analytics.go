package analytics

import (
	"time"

	"github.com/August26/proxyprobe/internal/model"
)

// Compute aggregates a batch. Network type counts and latency only cover active proxies.
func Compute(results []model.ProbeResult, duration time.Duration) model.BatchStats {
	stats := model.BatchStats{
		TotalProxies:          len(results),
		TotalProcessingTimeMs: duration.Milliseconds(),
	}

	seen := make(map[model.ProxyAddress]struct{})

	var latencySum int64
	var latencyCount int64

	for _, r := range results {
		seen[r.Address] = struct{}{}

		if !r.Success {
			stats.DeadProxies++
			continue
		}

		stats.ActiveProxies++
		switch r.NetworkType {
		case model.NetworkDatacenter:
			stats.Datacenter++
		case model.NetworkResidential:
			stats.Residential++
		default:
			stats.Unknown++
		}

		if r.LatencyMs > 0 {
			latencySum += r.LatencyMs
			latencyCount++
		}
	}

	stats.UniqueProxies = len(seen)

	if latencyCount > 0 {
		stats.AvgLatencyMs = float64(latencySum) / float64(latencyCount)
	}
	if stats.TotalProxies > 0 {
		stats.SuccessRatePct = float64(stats.ActiveProxies) / float64(stats.TotalProxies) * 100.0
	}

	return stats
}
