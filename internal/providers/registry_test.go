package providers

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/richxcame/fraudshield/pkg/httpclient"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	cipcURL  = "https://cipc.test"
	whoisURL = "https://whois.test"
	safpsURL = "https://safps.test"
)

func TestValidRegistrationNumber(t *testing.T) {
	assert.True(t, ValidRegistrationNumber("2019/123456/07"))
	assert.True(t, ValidRegistrationNumber(" 2019/123456/07 "))
	assert.False(t, ValidRegistrationNumber("2019/12345/07"))
	assert.False(t, ValidRegistrationNumber("K2019123456"))
	assert.False(t, ValidRegistrationNumber(""))
}

// ========================================
// CIPC
// ========================================

func TestCIPCRegistry_ActiveCompany(t *testing.T) {
	activateHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, `=~^https://cipc\.test/company/2019`,
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "Bearer cipc-key", req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK, `{"success":true,"data":{
				"registrationNumber":"2019/123456/07","companyName":"Ubuntu Traders (Pty) Ltd",
				"companyStatus":"Active","companyType":"Private Company",
				"directors":[{"fullName":"Sipho Dlamini"},{"fullName":"Ayesha Patel"}],
				"registeredAddress":"12 Long Street, Cape Town"}}`), nil
		})

	info, err := NewCIPCRegistry(httpclient.NewClient(cipcURL), "cipc-key").LookupCompany(t.Context(), "2019/123456/07")

	require.NoError(t, err)
	assert.True(t, info.Verified)
	assert.Equal(t, CompanyActive, info.Status)
	assert.Equal(t, 95, info.Confidence)
	assert.Equal(t, []string{"Sipho Dlamini", "Ayesha Patel"}, info.Directors)
	assert.Equal(t, SourceCIPC, info.Source)
}

func TestCIPCRegistry_DeregisteredAndMissing(t *testing.T) {
	activateHTTPMock(t)
	registry := NewCIPCRegistry(httpclient.NewClient(cipcURL), "k")

	httpmock.RegisterResponder(http.MethodGet, `=~^https://cipc\.test/company/2010`,
		httpmock.NewStringResponder(http.StatusOK,
			`{"success":true,"data":{"companyName":"Old Co","companyStatus":"Deregistration Final"}}`))
	httpmock.RegisterResponder(http.MethodGet, `=~^https://cipc\.test/company/2099`,
		httpmock.NewStringResponder(http.StatusNotFound, `{"error":"not found"}`))
	httpmock.RegisterResponder(http.MethodGet, `=~^https://cipc\.test/company/2011`,
		httpmock.NewStringResponder(http.StatusInternalServerError, "boom"))

	info, err := registry.LookupCompany(t.Context(), "2010/000001/07")
	require.NoError(t, err)
	assert.Equal(t, CompanyDeregistered, info.Status)
	assert.False(t, info.Verified)
	assert.Equal(t, 60, info.Confidence)

	info, err = registry.LookupCompany(t.Context(), "2099/999999/99")
	require.NoError(t, err)
	assert.Equal(t, CompanyUnknown, info.Status)
	assert.Equal(t, 0, info.Confidence)

	_, err = registry.LookupCompany(t.Context(), "2011/000001/07")
	assert.Error(t, err)
}

// ========================================
// WHOIS
// ========================================

func TestAnalyzeDomain(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	old := now.AddDate(-5, 0, 0)
	fresh := now.AddDate(0, 0, -3)

	tests := []struct {
		name       string
		domain     string
		registered *time.Time
		registrant string
		score      int
		legit      bool
	}{
		{"established business", "fnb.co.za", &old, "FirstRand Bank", 0, true},
		{"real government", "sars.gov.za", &old, "", 0, true},
		{"fake government", "sars-gov.co.za", &old, "", 40, true},
		{"many hyphens", "sa-bank-secure-login.com", &old, "", 20, true},
		{"new and fake government", "gov-refunds.co.za", &fresh, "", 70, false},
		{"everything", "gov-sa-tax-refund-now.com", &fresh, "Privacy Protect LLC", 100, false},
		{"hidden registrant", "shop.co.za", &old, "Domains By Proxy - protected", 10, true},
		{"unknown age", "shop.co.za", nil, "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := &DomainInfo{Domain: tt.domain, RegistrationDate: tt.registered}
			AnalyzeDomain(info, tt.registrant, now)

			assert.Equal(t, tt.score, info.RiskScore)
			assert.Equal(t, tt.legit, info.IsLegitimate)
			assert.NotNil(t, info.Warnings)
		})
	}
}

func TestWhoisIntel_LookupDomain(t *testing.T) {
	activateHTTPMock(t)
	httpmock.RegisterResponder(http.MethodGet, whoisURL+"/fnb-secure.co.za",
		httpmock.NewStringResponder(http.StatusOK, `{"registrar":"Domains.co.za",
			"registrationDate":"2024-02-25","expiryDate":"2025-02-25T00:00:00Z",
			"nameServers":["ns1.host.co.za"],"registrant":"REDACTED FOR PRIVACY"}`))

	intel := NewWhoisIntel(httpclient.NewClient(whoisURL), "whois-key")
	intel.now = func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) }

	info, err := intel.LookupDomain(t.Context(), "fnb-secure.co.za")

	require.NoError(t, err)
	assert.Equal(t, "Domains.co.za", info.Registrar)
	require.NotNil(t, info.RegistrationDate)
	require.NotNil(t, info.ExpiryDate)
	assert.Equal(t, 40, info.RiskScore)
	assert.Len(t, info.Warnings, 2)
	assert.True(t, info.IsLegitimate)
}

// ========================================
// SAFPS
// ========================================

func TestSAFPSDatabase_CheckFraud(t *testing.T) {
	activateHTTPMock(t)
	db := NewSAFPSDatabase(httpclient.NewClient(safpsURL), "safps-key")

	httpmock.RegisterResponder(http.MethodPost, safpsURL+"/fraud-check",
		func(req *http.Request) (*http.Response, error) {
			var body map[string]string
			require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
			assert.Equal(t, "comprehensive", body["checkType"])
			assert.Equal(t, "Ubuntu Traders", body["companyName"])
			return httpmock.NewStringResponse(http.StatusOK, `{"success":true,"data":{
				"fraudulent":true,"riskLevel":"HIGH","alerts":["Identity theft victim listing"]}}`), nil
		})

	check, err := db.CheckFraud(t.Context(), "Ubuntu Traders", "2019/123456/07")
	require.NoError(t, err)
	assert.True(t, check.IsFraudulent)
	assert.Equal(t, FraudRiskHigh, check.RiskLevel)
	assert.Equal(t, 80, check.Confidence)
	assert.Equal(t, []string{"Identity theft victim listing"}, check.Alerts)

	httpmock.RegisterResponder(http.MethodPost, safpsURL+"/fraud-check",
		httpmock.NewStringResponder(http.StatusOK, `{"success":false}`))
	check, err = db.CheckFraud(t.Context(), "Ubuntu Traders", "")
	require.NoError(t, err)
	assert.False(t, check.IsFraudulent)
	assert.Equal(t, FraudRiskLow, check.RiskLevel)
	assert.Equal(t, 50, check.Confidence)
	assert.Empty(t, check.Alerts)
}

func TestLocalFraudPatterns(t *testing.T) {
	patterns := LocalFraudPatterns{}

	check, err := patterns.CheckFraud(t.Context(), "SARS Official Refunds", "2019/123456/07")
	require.NoError(t, err)
	assert.Equal(t, FraudRiskHigh, check.RiskLevel)
	assert.Len(t, check.Alerts, 1)

	check, err = patterns.CheckFraud(t.Context(), "Ubuntu Traders", "12345")
	require.NoError(t, err)
	assert.Equal(t, FraudRiskMedium, check.RiskLevel)

	check, err = patterns.CheckFraud(t.Context(), "Ubuntu Traders", "2019/123456/07")
	require.NoError(t, err)
	assert.Equal(t, FraudRiskLow, check.RiskLevel)
	assert.Empty(t, check.Alerts)
	assert.False(t, check.IsFraudulent)
}
