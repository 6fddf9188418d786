package providers

import (
	"context"
	"errors"
	"fmt"

	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/resilience"
	"go.uber.org/zap"
)

// PaymentUnavailableMessage is shown when no provider could give an answer
const PaymentUnavailableMessage = "Unable to verify payment at this time. Please try again later or contact support."

// ErrNoPaymentProviders is returned by a chain with nothing configured
var ErrNoPaymentProviders = errors.New("no payment providers configured")

type chainLink struct {
	verifier PaymentVerifier
	breaker  *resilience.CircuitBreaker
}

// PaymentChain asks each provider in order until one knows the payment
type PaymentChain struct {
	links []chainLink
}

// NewPaymentChain creates an empty chain
func NewPaymentChain() *PaymentChain {
	return &PaymentChain{}
}

// Add appends a provider guarded by its own breaker
func (c *PaymentChain) Add(verifier PaymentVerifier, tuning resilience.Tuning) *PaymentChain {
	c.links = append(c.links, chainLink{
		verifier: verifier,
		breaker:  resilience.NewCircuitBreaker(resilience.For(resilience.KindPayment, verifier.Name(), tuning)),
	})
	return c
}

// Providers returns the provider names in query order
func (c *PaymentChain) Providers() []string {
	names := make([]string, 0, len(c.links))
	for _, l := range c.links {
		names = append(names, l.verifier.Name())
	}
	return names
}

// VerifyPayment returns the first answer that is either verified or knows
// the payment. Provider errors and not_found answers fall through to the
// next provider. When every provider was asked, a not_found answer is
// returned if at least one responded; otherwise the last error.
func (c *PaymentChain) VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if len(c.links) == 0 {
		return nil, ErrNoPaymentProviders
	}

	var (
		lastErr  error
		notFound *PaymentResult
	)
	for _, l := range c.links {
		name := l.verifier.Name()
		out, err := l.breaker.Execute(ctx, func(ctx context.Context) (interface{}, error) {
			return l.verifier.VerifyPayment(ctx, req)
		})
		if err != nil {
			paymentVerifications.WithLabelValues(name, "error").Inc()
			logger.WithContext(ctx).Warn("payment provider failed",
				zap.String("provider", name),
				zap.String("reference", req.Reference),
				zap.Error(err),
			)
			lastErr = err
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			continue
		}

		result, _ := out.(*PaymentResult)
		if result == nil {
			lastErr = fmt.Errorf("%s: empty result", name)
			continue
		}
		paymentVerifications.WithLabelValues(name, string(result.Status)).Inc()

		if result.Verified || result.Status != PaymentNotFound {
			return result, nil
		}
		if notFound == nil {
			notFound = result
		}
	}

	if notFound != nil {
		return notFound, nil
	}
	return nil, fmt.Errorf("all payment providers failed: %w", lastErr)
}
