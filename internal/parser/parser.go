package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"

	"github.com/August26/proxyprobe/internal/model"
)

// Options tunes how lines are turned into addresses.
type Options struct {
	// SkipBlank drops empty lines and lines starting with '#'.
	// Off by default: every input line yields exactly one address so the
	// active and dead outputs together account for the whole input.
	SkipBlank bool
}

// LoadFromFile reads a file line by line and returns one ProxyAddress per
// line, trimmed of surrounding whitespace. No other validation is done here.
func LoadFromFile(path string, opts Options) ([]model.ProxyAddress, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input file: %w", err)
	}
	defer f.Close()

	out, err := Load(f, opts)
	if err != nil {
		return nil, fmt.Errorf("scan input file: %w", err)
	}
	return out, nil
}

// Load is LoadFromFile for an already opened source.
func Load(r io.Reader, opts Options) ([]model.ProxyAddress, error) {
	var out []model.ProxyAddress
	br := bufio.NewReader(r)
	for {
		raw, err := br.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return nil, err
		}
		// A final line without a newline still counts; the empty tail after
		// the last newline does not.
		if raw != "" {
			line := strings.TrimSpace(raw)
			if !opts.SkipBlank || (line != "" && !strings.HasPrefix(line, "#")) {
				out = append(out, model.ProxyAddress(line))
			}
		}
		if err != nil {
			return out, nil
		}
	}
}

// ProxyURL turns an address into a dialable proxy URL.
//
// Supported:
//   host:port                (treated as http://host:port)
//   http://host[:port]
//   https://host[:port]
//   socks5://host[:port]
//   socks5h://host[:port]
//
// The port may be omitted; the transport then uses the scheme's default.
func ProxyURL(addr model.ProxyAddress) (*url.URL, error) {
	raw := string(addr)
	if raw == "" {
		return nil, fmt.Errorf("empty proxy address")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid proxy address %q: %w", addr, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https", "socks5", "socks5h":
	default:
		return nil, fmt.Errorf("unsupported proxy scheme %q in %q", u.Scheme, addr)
	}

	if u.Hostname() == "" {
		return nil, fmt.Errorf("missing host in %q", addr)
	}
	return u, nil
}
