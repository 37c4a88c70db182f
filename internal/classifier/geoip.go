package classifier

import (
	"context"
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"
)

// GeoIPLookup answers from a local MaxMind ASN database (GeoLite2-ASN.mmdb)
// instead of a remote service.
type GeoIPLookup struct {
	reader asnReader
}

// asnReader is the part of *geoip2.Reader used here.
type asnReader interface {
	ASN(ip net.IP) (*geoip2.ASN, error)
	Close() error
}

func OpenGeoIP(path string) (*GeoIPLookup, error) {
	r, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database: %w", err)
	}
	return &GeoIPLookup{reader: r}, nil
}

// LookupOrg renders the record as "AS<number> <organization>", the same
// shape ipinfo uses for its org field.
func (g *GeoIPLookup) LookupOrg(_ context.Context, ip string) (string, error) {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return "", fmt.Errorf("invalid ip %q", ip)
	}

	record, err := g.reader.ASN(parsed)
	if err != nil {
		return "", fmt.Errorf("asn lookup: %w", err)
	}
	if record.AutonomousSystemNumber == 0 && record.AutonomousSystemOrganization == "" {
		return "", ErrNoOrg
	}
	return fmt.Sprintf("AS%d %s", record.AutonomousSystemNumber, record.AutonomousSystemOrganization), nil
}

func (g *GeoIPLookup) Close() error {
	return g.reader.Close()
}
