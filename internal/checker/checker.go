package checker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/proxy"

	"github.com/August26/proxyprobe/internal/model"
	"github.com/August26/proxyprobe/internal/parser"
)

const (
	DefaultTestURL = "https://httpbin.org/ip"
	DefaultTimeout = 5 * time.Second
)

// NetworkClassifier resolves the network type of an exit IP. It must not fail;
// problems are reported as model.NetworkUnknown.
type NetworkClassifier interface {
	Classify(ctx context.Context, ip string) model.NetworkType
}

// Prober checks a single proxy by fetching an IP echo endpoint through it.
type Prober struct {
	testURL    string
	timeout    time.Duration
	classifier NetworkClassifier
	log        zerolog.Logger

	newClient func(u *url.URL, timeout time.Duration) (*http.Client, error)
}

// NewProber returns a Prober. Zero values fall back to DefaultTestURL and DefaultTimeout.
func NewProber(testURL string, timeout time.Duration, classifier NetworkClassifier, log zerolog.Logger) *Prober {
	if testURL == "" {
		testURL = DefaultTestURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Prober{
		testURL:    testURL,
		timeout:    timeout,
		classifier: classifier,
		log:        log.With().Str("component", "prober").Logger(),
		newClient:  buildClient,
	}
}

// echoResponse matches the fields we care about from https://httpbin.org/ip.
type echoResponse struct {
	Origin string `json:"origin"` // what IP the echo service thinks we are
}

// Probe never returns an error: every failure mode collapses to
// model.Failed so the caller can record the proxy as dead and move on.
func (p *Prober) Probe(ctx context.Context, addr model.ProxyAddress) model.ProbeResult {
	log := p.log.With().Str("proxy", string(addr)).Logger()

	proxyURL, err := parser.ProxyURL(addr)
	if err != nil {
		log.Error().Err(err).Msg("proxy failed")
		return model.Failed(addr, err)
	}

	client, err := p.newClient(proxyURL, p.timeout)
	if err != nil {
		log.Error().Err(err).Msg("proxy failed")
		return model.Failed(addr, fmt.Errorf("client_build_error: %w", err))
	}
	defer client.CloseIdleConnections()

	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	status, origin, err := fetchOrigin(probeCtx, client, p.testURL)
	latency := time.Since(start)

	if err != nil {
		res := model.Failed(addr, err)
		res.StatusCode = status
		var se *statusError
		if errors.As(err, &se) {
			log.Error().Int("status_code", se.code).Msg("proxy failed")
		} else {
			log.Error().Err(err).Msg("proxy failed")
		}
		return res
	}

	ip := firstIPToken(origin)
	nt := p.classifier.Classify(ctx, ip)

	log.Info().
		Str("exit_ip", ip).
		Str("type", string(nt)).
		Int64("latency_ms", latency.Milliseconds()).
		Msg("proxy works")

	return model.ProbeResult{
		Address:     addr,
		Success:     true,
		NetworkType: nt,
		ExitIP:      ip,
		StatusCode:  status,
		LatencyMs:   latency.Milliseconds(),
	}
}

type statusError struct{ code int }

func (e *statusError) Error() string { return fmt.Sprintf("status code: %d", e.code) }

// fetchOrigin GETs testURL and extracts the reported origin.
// A 200 without a parseable origin counts as a failure.
func fetchOrigin(ctx context.Context, client *http.Client, testURL string) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, testURL, nil)
	if err != nil {
		return 0, "", err
	}

	resp, err := client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, "", &statusError{code: resp.StatusCode}
	}

	var parsed echoResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return resp.StatusCode, "", fmt.Errorf("decode echo response: %w", err)
	}
	if strings.TrimSpace(parsed.Origin) == "" {
		return resp.StatusCode, "", errors.New("echo response has no origin")
	}
	return resp.StatusCode, parsed.Origin, nil
}

// buildClient returns an *http.Client whose HTTP and HTTPS traffic both go
// through the proxy at u.
func buildClient(u *url.URL, timeout time.Duration) (*http.Client, error) {
	base := &net.Dialer{
		Timeout:   timeout,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DisableKeepAlives:     true,
		TLSHandshakeTimeout:   timeout,
		ResponseHeaderTimeout: timeout,
		ExpectContinueTimeout: 1 * time.Second,
	}

	switch strings.ToLower(u.Scheme) {
	case "socks5", "socks5h":
		// The SOCKS5 dialer reaches the target itself, so no Proxy func is set.
		d, err := proxy.FromURL(withDefaultPort(u, socksDefaultPort), base)
		if err != nil {
			return nil, err
		}
		cd, ok := d.(proxy.ContextDialer)
		if !ok {
			return nil, errors.New("socks5 dialer does not implement DialContext")
		}
		transport.DialContext = cd.DialContext
	default:
		transport.Proxy = http.ProxyURL(u)
		transport.DialContext = base.DialContext
	}

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}, nil
}

const socksDefaultPort = "1080"

// withDefaultPort returns a copy of u with port added when u has none.
// net/http fills in ports for proxy URLs itself; the SOCKS5 dialer does not.
func withDefaultPort(u *url.URL, port string) *url.URL {
	if u.Port() != "" {
		return u
	}
	cp := *u
	cp.Host = net.JoinHostPort(u.Hostname(), port)
	return &cp
}

// firstIPToken: httpbin's "origin" may list several IPs as "a, b"; the first is the client.
func firstIPToken(origin string) string {
	if origin == "" {
		return ""
	}
	parts := strings.Split(origin, ",")
	return strings.TrimSpace(parts[0])
}
