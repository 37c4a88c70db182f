package classifier

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/August26/proxyprobe/internal/model"
)

// ErrNoOrg is returned by a Lookup that got an answer without an organization.
var ErrNoOrg = errors.New("lookup response has no org field")

// Lookup resolves the organization string (e.g. "AS15169 Google LLC") that owns an IP.
type Lookup interface {
	LookupOrg(ctx context.Context, ip string) (string, error)
}

// FromOrg maps an organization string onto a network type.
//
// Any org containing "AS" counts as datacenter. This is knowingly crude: most
// lookup services prefix every org with its ASN, residential ISPs included.
func FromOrg(org string) model.NetworkType {
	if strings.Contains(org, "AS") {
		return model.NetworkDatacenter
	}
	return model.NetworkResidential
}

// Classifier turns exit IPs into network types.
type Classifier struct {
	lookup Lookup
	log    zerolog.Logger
}

func New(lookup Lookup, log zerolog.Logger) *Classifier {
	return &Classifier{
		lookup: lookup,
		log:    log.With().Str("component", "classifier").Logger(),
	}
}

// Classify never fails: lookup errors are logged and reported as NetworkUnknown.
func (c *Classifier) Classify(ctx context.Context, ip string) model.NetworkType {
	org, err := c.lookup.LookupOrg(ctx, ip)
	if err == nil && org == "" {
		err = ErrNoOrg
	}
	if err != nil {
		c.log.Error().Err(err).Str("ip", ip).Msg("failed to detect network type")
		return model.NetworkUnknown
	}

	nt := FromOrg(org)
	c.log.Debug().Str("ip", ip).Str("org", org).Str("type", string(nt)).Msg("network type detected")
	return nt
}
