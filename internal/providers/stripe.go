package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v83"
)

// StripeClient is the slice of the Stripe API used for payment checks
type StripeClient interface {
	GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error)
}

type stripeSDKClient struct {
	sc *stripe.Client
}

// NewStripeClient wraps the Stripe SDK. An empty baseURL uses the live API.
func NewStripeClient(apiKey, baseURL string) StripeClient {
	if baseURL == "" {
		return &stripeSDKClient{sc: stripe.NewClient(apiKey)}
	}
	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{URL: stripe.String(baseURL)})
	return &stripeSDKClient{sc: stripe.NewClient(apiKey, stripe.WithBackends(backends))}
}

func (c *stripeSDKClient) GetPaymentIntent(ctx context.Context, id string) (*stripe.PaymentIntent, error) {
	return c.sc.V1PaymentIntents.Retrieve(ctx, id, nil)
}

// StripeVerifier checks card and wallet payments by PaymentIntent ID
type StripeVerifier struct {
	client StripeClient
}

// NewStripeVerifier creates a Stripe verifier
func NewStripeVerifier(client StripeClient) *StripeVerifier {
	return &StripeVerifier{client: client}
}

func (v *StripeVerifier) Name() string { return "stripe" }

func (v *StripeVerifier) VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	if !strings.HasPrefix(req.Reference, "pi_") {
		return notFoundResult(v.Name(), req), nil
	}

	pi, err := v.client.GetPaymentIntent(ctx, req.Reference)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.HTTPStatusCode == http.StatusNotFound {
			return notFoundResult(v.Name(), req), nil
		}
		return nil, fmt.Errorf("stripe: %w", err)
	}

	currency := strings.ToUpper(string(pi.Currency))
	if currency == "" {
		currency = req.currency()
	}
	result := &PaymentResult{
		Provider:  v.Name(),
		Status:    mapStripeStatus(pi.Status),
		Amount:    fromCents(pi.Amount),
		Currency:  currency,
		Reference: pi.ID,
	}
	if pi.Created > 0 {
		result.TransactionDate = time.Unix(pi.Created, 0).UTC().Format(time.RFC3339)
	}

	switch {
	case result.Status == PaymentCleared && pi.Amount != toCents(req.Amount):
		result.Status = PaymentFailed
		result.Confidence = 90
		result.Message = fmt.Sprintf("Amount mismatch: expected %s but payment was %s.",
			formatAmount(req.Amount, currency), formatAmount(result.Amount, currency))
	case result.Status == PaymentCleared:
		result.Verified = true
		result.Confidence = 97
		result.Message = clearedMessage(result.Amount, currency, pi.Description)
	default:
		result.Confidence = 60
		result.Message = fmt.Sprintf("Payment status: %s.", pi.Status)
	}
	return result, nil
}

func mapStripeStatus(status stripe.PaymentIntentStatus) PaymentStatus {
	switch status {
	case stripe.PaymentIntentStatusSucceeded:
		return PaymentCleared
	case stripe.PaymentIntentStatusProcessing, stripe.PaymentIntentStatusRequiresCapture:
		return PaymentPending
	case stripe.PaymentIntentStatusCanceled, stripe.PaymentIntentStatusRequiresPaymentMethod:
		return PaymentFailed
	}
	return PaymentPending
}
