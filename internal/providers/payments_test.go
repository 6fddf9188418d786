package providers

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/richxcame/fraudshield/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	stitchURL  = "https://stitch.test"
	ozowURL    = "https://ozow.test"
	payShapURL = "https://payshap.test"
)

func activateHTTPMock(t *testing.T) {
	t.Helper()
	httpmock.Activate()
	t.Cleanup(httpmock.DeactivateAndReset)
}

func paymentRequest() PaymentRequest {
	return PaymentRequest{Reference: "INV-1001", Amount: 150, BankName: "FNB"}
}

// ========================================
// STITCH
// ========================================

func TestStitchVerifier_Cleared(t *testing.T) {
	activateHTTPMock(t)

	httpmock.RegisterResponder(http.MethodPost, stitchURL+"/graphql",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer stitch-key", req.Header.Get("Authorization"))

			var body struct {
				Query     string            `json:"query"`
				Variables map[string]string `json:"variables"`
			}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Contains(t, body.Query, "GetPayment")
			assert.Equal(t, "INV-1001", body.Variables["reference"])

			return httpmock.NewStringResponse(http.StatusOK, `{"data":{"payment":{
				"id":"pay_1","amount":15000,"status":"COMPLETED","createdAt":"2024-03-01T10:00:00Z",
				"reference":"INV-1001","beneficiary":{"name":"Thabo Mokoena"}}}}`), nil
		})

	v := NewStitchVerifier(httpclient.NewClient(stitchURL), "stitch-key")
	result, err := v.VerifyPayment(t.Context(), paymentRequest())

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, PaymentCleared, result.Status)
	assert.Equal(t, 150.0, result.Amount)
	assert.Equal(t, 95, result.Confidence)
	assert.Equal(t, "Thabo Mokoena", result.BeneficiaryName)
	assert.Contains(t, result.Message, "R150.00")
}

func TestStitchVerifier_StatusMapping(t *testing.T) {
	tests := []struct {
		status   string
		expected PaymentStatus
	}{
		{"PENDING", PaymentPending},
		{"FAILED", PaymentFailed},
		{"REVERSED", PaymentNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			activateHTTPMock(t)
			httpmock.RegisterResponder(http.MethodPost, stitchURL+"/graphql",
				httpmock.NewStringResponder(http.StatusOK,
					`{"data":{"payment":{"amount":15000,"status":"`+tt.status+`","reference":"INV-1001"}}}`))

			result, err := NewStitchVerifier(httpclient.NewClient(stitchURL), "k").VerifyPayment(t.Context(), paymentRequest())

			require.NoError(t, err)
			assert.False(t, result.Verified)
			assert.Equal(t, tt.expected, result.Status)
			assert.Equal(t, 60, result.Confidence)
		})
	}
}

func TestStitchVerifier_UnknownReference(t *testing.T) {
	activateHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, stitchURL+"/graphql",
		httpmock.NewStringResponder(http.StatusOK, `{"data":{"payment":null}}`))

	result, err := NewStitchVerifier(httpclient.NewClient(stitchURL), "k").VerifyPayment(t.Context(), paymentRequest())

	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, PaymentNotFound, result.Status)
	assert.Contains(t, result.Message, "INV-1001")
}

func TestStitchVerifier_ServerError(t *testing.T) {
	activateHTTPMock(t)
	httpmock.RegisterResponder(http.MethodPost, stitchURL+"/graphql",
		httpmock.NewStringResponder(http.StatusBadGateway, "upstream down"))

	result, err := NewStitchVerifier(httpclient.NewClient(stitchURL), "k").VerifyPayment(t.Context(), paymentRequest())

	require.Error(t, err)
	assert.Nil(t, result)
	var httpErr *httpclient.HTTPError
	assert.ErrorAs(t, err, &httpErr)
}

// ========================================
// OZOW
// ========================================

func TestOzowVerifier_Cleared(t *testing.T) {
	activateHTTPMock(t)

	httpmock.RegisterResponder(http.MethodPost, ozowURL+"/GetTransaction",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "ozow-key", req.Header.Get("ApiKey"))
			assert.Equal(t, "SITE-01", req.Header.Get("SiteCode"))

			var body map[string]interface{}
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "INV-1001", body["TransactionReference"])
			assert.Equal(t, float64(15000), body["Amount"])

			return httpmock.NewStringResponse(http.StatusOK, `{"IsSuccessful":true,"Status":"Complete",
				"Amount":15000,"TransactionReference":"INV-1001","CustomerName":"Lerato"}`), nil
		})

	v := NewOzowVerifier(httpclient.NewClient(ozowURL), "ozow-key", "SITE-01")
	result, err := v.VerifyPayment(t.Context(), paymentRequest())

	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, 90, result.Confidence)
	assert.Equal(t, "ozow", result.Provider)
}

func TestOzowVerifier_CancelledAndUnknown(t *testing.T) {
	activateHTTPMock(t)
	v := NewOzowVerifier(httpclient.NewClient(ozowURL), "k", "s")

	httpmock.RegisterResponder(http.MethodPost, ozowURL+"/GetTransaction",
		httpmock.NewStringResponder(http.StatusOK, `{"IsSuccessful":true,"Status":"Cancelled","StatusMessage":"User aborted"}`))
	result, err := v.VerifyPayment(t.Context(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, PaymentFailed, result.Status)
	assert.Equal(t, 50, result.Confidence)
	assert.Contains(t, result.Message, "User aborted")

	httpmock.RegisterResponder(http.MethodPost, ozowURL+"/GetTransaction",
		httpmock.NewStringResponder(http.StatusOK, `{"IsSuccessful":false}`))
	result, err = v.VerifyPayment(t.Context(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, PaymentNotFound, result.Status)
}

// ========================================
// PAYSHAP
// ========================================

func TestPayShapVerifier(t *testing.T) {
	activateHTTPMock(t)
	v := NewPayShapVerifier(httpclient.NewClient(payShapURL), "payshap-key")

	httpmock.RegisterResponder(http.MethodPost, payShapURL+"/payments/verify",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer payshap-key", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK, `{"success":true,"data":{"status":"completed",
				"amount":150,"reference":"INV-1001","payer_name":"Naledi"}}`), nil
		})
	result, err := v.VerifyPayment(t.Context(), paymentRequest())
	require.NoError(t, err)
	assert.True(t, result.Verified)
	assert.Equal(t, 98, result.Confidence)
	assert.Contains(t, result.Message, "Real-time")

	httpmock.RegisterResponder(http.MethodPost, payShapURL+"/payments/verify",
		httpmock.NewStringResponder(http.StatusOK, `{"success":true,"data":{"status":"processing","status_message":"awaiting bank"}}`))
	result, err = v.VerifyPayment(t.Context(), paymentRequest())
	require.NoError(t, err)
	assert.False(t, result.Verified)
	assert.Equal(t, PaymentPending, result.Status)
	assert.Equal(t, 70, result.Confidence)

	httpmock.RegisterResponder(http.MethodPost, payShapURL+"/payments/verify",
		httpmock.NewStringResponder(http.StatusOK, `{"success":false}`))
	result, err = v.VerifyPayment(t.Context(), paymentRequest())
	require.NoError(t, err)
	assert.Equal(t, PaymentNotFound, result.Status)
}

func TestToCents(t *testing.T) {
	assert.Equal(t, int64(15000), toCents(150))
	assert.Equal(t, int64(1999), toCents(19.99))
	assert.Equal(t, 19.99, fromCents(1999))
}
