package bootstrap

import (
	"context"
	"fmt"
	"net"

	"chordring/internal/config"
	"chordring/internal/ring"
)

// dnsBootstrap discovers peers via a plain DNS SRV or A/AAAA lookup
// against whatever resolver the host is configured with
// (ring.bootstrap.mode: dns, register.enabled: false). It never
// registers or deregisters anything; use Route53Bootstrap for the
// managed-zone variant that also publishes this node's own record.
type dnsBootstrap struct {
	cfg config.BootstrapConfig
}

// NewDNSBootstrap builds a bootstrap.Bootstrap backed by ordinary DNS
// resolution: SRV records when cfg.SRV is set, otherwise a plain
// A/AAAA lookup paired with cfg.Port.
func NewDNSBootstrap(cfg config.BootstrapConfig) Bootstrap {
	return &dnsBootstrap{cfg: cfg}
}

func (d *dnsBootstrap) Discover(ctx context.Context) ([]string, error) {
	if d.cfg.SRV {
		return d.discoverSRV(ctx)
	}
	return d.discoverHost(ctx)
}

func (d *dnsBootstrap) discoverSRV(ctx context.Context) ([]string, error) {
	resolver := net.DefaultResolver
	_, records, err := resolver.LookupSRV(ctx, "", "", d.cfg.DNSName)
	if err != nil {
		return nil, fmt.Errorf("srv lookup %q: %w", d.cfg.DNSName, err)
	}

	var out []string
	for _, rec := range records {
		ips, err := resolver.LookupHost(ctx, rec.Target)
		if err != nil {
			continue
		}
		for _, ip := range ips {
			out = append(out, net.JoinHostPort(ip, fmt.Sprint(rec.Port)))
		}
	}
	return out, nil
}

func (d *dnsBootstrap) discoverHost(ctx context.Context) ([]string, error) {
	ips, err := net.DefaultResolver.LookupHost(ctx, d.cfg.DNSName)
	if err != nil {
		return nil, fmt.Errorf("host lookup %q: %w", d.cfg.DNSName, err)
	}

	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		out = append(out, net.JoinHostPort(ip, fmt.Sprint(d.cfg.Port)))
	}
	return out, nil
}

func (d *dnsBootstrap) Register(context.Context, ring.PeerAddress) error   { return nil }
func (d *dnsBootstrap) Deregister(context.Context, ring.PeerAddress) error { return nil }
