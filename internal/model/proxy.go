package model

// ProxyAddress is a proxy endpoint exactly as read from the input list,
// e.g. "http://203.0.113.5:8080". Only surrounding whitespace is trimmed.
type ProxyAddress string

func (a ProxyAddress) String() string { return string(a) }

// NetworkType is the heuristic hosting context of a proxy's exit IP.
type NetworkType string

const (
	NetworkDatacenter  NetworkType = "Datacenter"
	NetworkResidential NetworkType = "Residential"
	NetworkUnknown     NetworkType = "Unknown"
)

// ProbeResult is the outcome of probing a single proxy.
// Only Address and Success decide where the proxy is recorded;
// the rest is diagnostics for logs and reports.
type ProbeResult struct {
	Address     ProxyAddress `json:"address"`
	Success     bool         `json:"success"`
	NetworkType NetworkType  `json:"network_type"`
	ExitIP      string       `json:"exit_ip,omitempty"`
	StatusCode  int          `json:"status_code,omitempty"` // 0 if no HTTP response
	LatencyMs   int64        `json:"latency_ms"`
	Error       string       `json:"error,omitempty"`
}

// Failed builds the sentinel outcome every probe failure collapses to.
func Failed(addr ProxyAddress, err error) ProbeResult {
	res := ProbeResult{
		Address:     addr,
		Success:     false,
		NetworkType: NetworkUnknown,
	}
	if err != nil {
		res.Error = err.Error()
	}
	return res
}

// BatchStats aggregates summary analytics for an entire run.
type BatchStats struct {
	TotalProxies          int     `json:"total_proxies"`
	UniqueProxies         int     `json:"unique_proxies"`
	ActiveProxies         int     `json:"active_proxies"`
	DeadProxies           int     `json:"dead_proxies"`
	Datacenter            int     `json:"datacenter"`
	Residential           int     `json:"residential"`
	Unknown               int     `json:"unknown"`
	AvgLatencyMs          float64 `json:"avg_latency_ms"`
	TotalProcessingTimeMs int64   `json:"total_processing_time_ms"`
	SuccessRatePct        float64 `json:"success_rate_pct"`
}
