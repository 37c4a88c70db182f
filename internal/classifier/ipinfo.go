package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	DefaultLookupURL     = "https://ipinfo.io"
	DefaultLookupTimeout = 5 * time.Second
)

// ipinfoResponse matches the fields we care about from https://ipinfo.io/{ip}/json.
type ipinfoResponse struct {
	IP  string  `json:"ip"`
	Org *string `json:"org"`
}

// IPInfoLookup queries an ipinfo-compatible service at <base>/{ip}/json.
// It connects directly, never through the proxy under test.
type IPInfoLookup struct {
	baseURL string
	client  *http.Client
}

// NewIPInfoLookup builds a lookup with its own bounded client.
// Zero values fall back to DefaultLookupURL and DefaultLookupTimeout.
func NewIPInfoLookup(baseURL string, timeout time.Duration) *IPInfoLookup {
	if baseURL == "" {
		baseURL = DefaultLookupURL
	}
	if timeout <= 0 {
		timeout = DefaultLookupTimeout
	}
	return &IPInfoLookup{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
	}
}

func (l *IPInfoLookup) LookupOrg(ctx context.Context, ip string) (string, error) {
	endpoint := fmt.Sprintf("%s/%s/json", l.baseURL, url.PathEscape(ip))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", fmt.Errorf("build lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("lookup status code: %d", resp.StatusCode)
	}

	var parsed ipinfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("decode lookup response: %w", err)
	}
	if parsed.Org == nil {
		return "", ErrNoOrg
	}
	return *parsed.Org, nil
}
