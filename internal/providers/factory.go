package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/httpclient"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/resilience"
	"github.com/richxcame/fraudshield/pkg/secrets"
	"go.uber.org/zap"
)

// Set is every provider built from configuration
type Set struct {
	Payments  *PaymentChain
	Companies *CompanyVerifier
}

type factory struct {
	cfg     config.ProvidersConfig
	secrets secrets.Manager
}

// Build creates the enabled providers. API keys given as secret references
// are resolved through sm, which may be nil when none are used.
func Build(ctx context.Context, cfg config.ProvidersConfig, sm secrets.Manager) (*Set, error) {
	f := &factory{cfg: cfg, secrets: sm}

	chain := NewPaymentChain()
	if cfg.Stitch.Enabled {
		key, err := f.apiKey(ctx, "stitch", cfg.Stitch)
		if err != nil {
			return nil, err
		}
		chain.Add(NewStitchVerifier(f.client(cfg.Stitch, nil), key), f.tuning())
	}
	if cfg.Ozow.Enabled {
		key, err := f.apiKey(ctx, "ozow", cfg.Ozow)
		if err != nil {
			return nil, err
		}
		chain.Add(NewOzowVerifier(f.client(cfg.Ozow, nil), key, cfg.Ozow.SiteCode), f.tuning())
	}
	if cfg.PayShap.Enabled {
		key, err := f.apiKey(ctx, "payshap", cfg.PayShap)
		if err != nil {
			return nil, err
		}
		chain.Add(NewPayShapVerifier(f.client(cfg.PayShap, nil), key), f.tuning())
	}
	if cfg.Stripe.Enabled {
		key, err := f.apiKey(ctx, "stripe", cfg.Stripe)
		if err != nil {
			return nil, err
		}
		chain.Add(NewStripeVerifier(NewStripeClient(key, cfg.Stripe.BaseURL)), f.tuning())
	}

	var (
		registry CompanyRegistry
		domains  DomainIntel
		fraud    FraudDatabase
	)
	if cfg.CIPC.Enabled {
		key, err := f.apiKey(ctx, "cipc", cfg.CIPC)
		if err != nil {
			return nil, err
		}
		registry = NewCIPCRegistry(f.guardedClient("cipc", cfg.CIPC), key)
	}
	if cfg.WHOIS.Enabled {
		key, err := f.apiKey(ctx, "whois", cfg.WHOIS)
		if err != nil {
			return nil, err
		}
		domains = NewWhoisIntel(f.guardedClient("whois", cfg.WHOIS), key)
	}
	if cfg.SAFPS.Enabled {
		key, err := f.apiKey(ctx, "safps", cfg.SAFPS)
		if err != nil {
			return nil, err
		}
		fraud = NewSAFPSDatabase(f.guardedClient("safps", cfg.SAFPS), key)
	}

	logger.Info("verification providers configured",
		zap.Strings("payment_providers", chain.Providers()),
		zap.Bool("cipc", registry != nil),
		zap.Bool("whois", domains != nil),
		zap.Bool("safps", fraud != nil),
	)

	return &Set{
		Payments:  chain,
		Companies: NewCompanyVerifier(registry, domains, fraud),
	}, nil
}

func (f *factory) apiKey(ctx context.Context, name string, endpoint config.ProviderEndpoint) (string, error) {
	key, err := secrets.ResolveAPIKey(ctx, f.secrets, name, endpoint)
	if err != nil {
		return "", fmt.Errorf("resolve %s api key: %w", name, err)
	}
	return key, nil
}

func (f *factory) tuning() resilience.Tuning {
	return resilience.Tuning{OpenSeconds: f.cfg.BreakerTimeoutSeconds, FailureThreshold: f.cfg.BreakerFailureThreshold}
}

func (f *factory) client(endpoint config.ProviderEndpoint, breaker *resilience.CircuitBreaker) *httpclient.Client {
	c := httpclient.NewClient(endpoint.BaseURL, time.Duration(f.cfg.TimeoutSeconds)*time.Second).
		With(httpclient.WithDefaultRetry())
	if breaker != nil {
		c.With(httpclient.WithBreaker(breaker))
	}
	return c
}

// guardedClient is used by lookups that are not already behind a chain breaker
func (f *factory) guardedClient(name string, endpoint config.ProviderEndpoint) *httpclient.Client {
	return f.client(endpoint, resilience.NewCircuitBreaker(resilience.For(resilience.KindLookup, name, f.tuning())))
}
