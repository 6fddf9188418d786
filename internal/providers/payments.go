package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/antonholmquist/jason"
	"github.com/richxcame/fraudshield/pkg/httpclient"
	"github.com/richxcame/fraudshield/pkg/i18n"
)

func notFoundResult(provider string, req PaymentRequest) *PaymentResult {
	return &PaymentResult{
		Provider:   provider,
		Status:     PaymentNotFound,
		Amount:     req.Amount,
		Currency:   req.currency(),
		Reference:  req.Reference,
		Message:    fmt.Sprintf("No cleared payment found for reference %s. Wait until funds reflect before delivering.", req.Reference),
		Confidence: 0,
	}
}

func clearedMessage(amount float64, currency, payer string) string {
	if payer == "" {
		payer = "unknown payer"
	}
	return fmt.Sprintf("Payment verified: %s cleared from %s.", formatAmount(amount, currency), payer)
}

func formatAmount(amount float64, currency string) string {
	return i18n.FormatAmount(amount, currency)
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// ========================================
// STITCH
// ========================================

const stitchPaymentQuery = `query GetPayment($reference: String!) {
  payment(reference: $reference) {
    id
    amount
    status
    createdAt
    reference
    beneficiary { name accountNumber }
  }
}`

// StitchVerifier checks payments through the Stitch GraphQL API
type StitchVerifier struct {
	client *httpclient.Client
	apiKey string
}

// NewStitchVerifier creates a Stitch verifier
func NewStitchVerifier(client *httpclient.Client, apiKey string) *StitchVerifier {
	return &StitchVerifier{client: client, apiKey: apiKey}
}

func (v *StitchVerifier) Name() string { return "stitch" }

func (v *StitchVerifier) VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	body := map[string]interface{}{
		"query":     stitchPaymentQuery,
		"variables": map[string]string{"reference": req.Reference},
	}
	raw, err := v.client.Post(ctx, "/graphql", body, map[string]string{"Authorization": "Bearer " + v.apiKey})
	if err != nil {
		return nil, fmt.Errorf("stitch: %w", err)
	}

	doc, err := jason.NewObjectFromBytes(raw)
	if err != nil {
		return nil, fmt.Errorf("stitch: decode response: %w", err)
	}
	payment, err := doc.GetObject("data", "payment")
	if err != nil {
		// null payment or missing data
		return notFoundResult(v.Name(), req), nil
	}

	status, _ := payment.GetString("status")
	cents, _ := payment.GetInt64("amount")
	reference, _ := payment.GetString("reference")
	createdAt, _ := payment.GetString("createdAt")
	payer, _ := payment.GetString("beneficiary", "name")

	result := &PaymentResult{
		Provider:        v.Name(),
		Status:          mapStitchStatus(status),
		Amount:          fromCents(cents),
		Currency:        req.currency(),
		Reference:       reference,
		TransactionDate: createdAt,
		BeneficiaryName: payer,
	}
	if result.Status == PaymentCleared {
		result.Verified = true
		result.Confidence = 95
		result.Message = clearedMessage(result.Amount, result.Currency, payer)
	} else {
		result.Confidence = 60
		result.Message = fmt.Sprintf("Payment status: %s. Wait for completion before delivering.", status)
	}
	return result, nil
}

func mapStitchStatus(status string) PaymentStatus {
	switch status {
	case "COMPLETED":
		return PaymentCleared
	case "PENDING":
		return PaymentPending
	case "FAILED":
		return PaymentFailed
	}
	return PaymentNotFound
}

// ========================================
// OZOW
// ========================================

// OzowVerifier checks payments through the Ozow transaction API
type OzowVerifier struct {
	client   *httpclient.Client
	apiKey   string
	siteCode string
}

// NewOzowVerifier creates an Ozow verifier
func NewOzowVerifier(client *httpclient.Client, apiKey, siteCode string) *OzowVerifier {
	return &OzowVerifier{client: client, apiKey: apiKey, siteCode: siteCode}
}

type ozowTransaction struct {
	IsSuccessful         bool   `json:"IsSuccessful"`
	Status               string `json:"Status"`
	StatusMessage        string `json:"StatusMessage"`
	Amount               int64  `json:"Amount"`
	TransactionReference string `json:"TransactionReference"`
	TransactionDate      string `json:"TransactionDate"`
	CustomerName         string `json:"CustomerName"`
}

func (v *OzowVerifier) Name() string { return "ozow" }

func (v *OzowVerifier) VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	body := map[string]interface{}{
		"TransactionReference": req.Reference,
		"Amount":               toCents(req.Amount),
	}
	headers := map[string]string{"ApiKey": v.apiKey, "SiteCode": v.siteCode}

	raw, err := v.client.Post(ctx, "/GetTransaction", body, headers)
	if err != nil {
		return nil, fmt.Errorf("ozow: %w", err)
	}

	var tx ozowTransaction
	if err := json.Unmarshal(raw, &tx); err != nil {
		return nil, fmt.Errorf("ozow: decode response: %w", err)
	}
	if !tx.IsSuccessful {
		return notFoundResult(v.Name(), req), nil
	}

	result := &PaymentResult{
		Provider:        v.Name(),
		Status:          mapOzowStatus(tx.Status),
		Amount:          fromCents(tx.Amount),
		Currency:        req.currency(),
		Reference:       tx.TransactionReference,
		TransactionDate: tx.TransactionDate,
		BeneficiaryName: tx.CustomerName,
	}
	if result.Status == PaymentCleared {
		result.Verified = true
		result.Confidence = 90
		result.Message = clearedMessage(result.Amount, result.Currency, tx.CustomerName)
	} else {
		result.Confidence = 50
		result.Message = fmt.Sprintf("Payment status: %s. %s", tx.Status, tx.StatusMessage)
	}
	return result, nil
}

func mapOzowStatus(status string) PaymentStatus {
	switch status {
	case "Complete":
		return PaymentCleared
	case "Pending":
		return PaymentPending
	case "Cancelled", "Error":
		return PaymentFailed
	}
	return PaymentNotFound
}

// ========================================
// PAYSHAP
// ========================================

// PayShapVerifier checks real-time PayShap payments
type PayShapVerifier struct {
	client *httpclient.Client
	apiKey string
}

// NewPayShapVerifier creates a PayShap verifier
func NewPayShapVerifier(client *httpclient.Client, apiKey string) *PayShapVerifier {
	return &PayShapVerifier{client: client, apiKey: apiKey}
}

type payShapResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Status        string  `json:"status"`
		StatusMessage string  `json:"status_message"`
		Amount        float64 `json:"amount"`
		Reference     string  `json:"reference"`
		ProcessedAt   string  `json:"processed_at"`
		PayerName     string  `json:"payer_name"`
	} `json:"data"`
}

func (v *PayShapVerifier) Name() string { return "payshap" }

func (v *PayShapVerifier) VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error) {
	body := map[string]interface{}{
		"reference": req.Reference,
		"amount":    req.Amount,
		"bank_name": req.BankName,
	}
	raw, err := v.client.Post(ctx, "/payments/verify", body, map[string]string{"Authorization": "Bearer " + v.apiKey})
	if err != nil {
		return nil, fmt.Errorf("payshap: %w", err)
	}

	var resp payShapResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("payshap: decode response: %w", err)
	}
	if !resp.Success {
		return notFoundResult(v.Name(), req), nil
	}

	p := resp.Data
	result := &PaymentResult{
		Provider:        v.Name(),
		Amount:          p.Amount,
		Currency:        req.currency(),
		Reference:       p.Reference,
		TransactionDate: p.ProcessedAt,
		BeneficiaryName: p.PayerName,
	}
	if p.Status == "completed" {
		result.Verified = true
		result.Status = PaymentCleared
		result.Confidence = 98
		result.Message = "Real-time " + clearedMessage(p.Amount, result.Currency, p.PayerName)
	} else {
		result.Status = PaymentPending
		result.Confidence = 70
		result.Message = "Payment processing: " + p.StatusMessage
	}
	return result, nil
}
