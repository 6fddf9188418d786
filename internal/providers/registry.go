package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/richxcame/fraudshield/pkg/httpclient"
)

// registrationNumberPattern matches CIPC numbers such as 2019/123456/07
var registrationNumberPattern = regexp.MustCompile(`^\d{4}/\d{6}/\d{2}$`)

// ValidRegistrationNumber reports whether n has the CIPC YYYY/NNNNNN/NN shape
func ValidRegistrationNumber(n string) bool {
	return registrationNumberPattern.MatchString(strings.TrimSpace(n))
}

func bearerHeaders(apiKey string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + apiKey}
}

func isNotFound(err error) bool {
	var httpErr *httpclient.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}

// ========================================
// CIPC
// ========================================

// CIPCRegistry looks companies up in the CIPC register
type CIPCRegistry struct {
	client *httpclient.Client
	apiKey string
}

// NewCIPCRegistry creates a CIPC client
func NewCIPCRegistry(client *httpclient.Client, apiKey string) *CIPCRegistry {
	return &CIPCRegistry{client: client, apiKey: apiKey}
}

type cipcResponse struct {
	Success bool `json:"success"`
	Data    struct {
		RegistrationNumber string `json:"registrationNumber"`
		CompanyName        string `json:"companyName"`
		CompanyStatus      string `json:"companyStatus"`
		RegistrationDate   string `json:"registrationDate"`
		CompanyType        string `json:"companyType"`
		RegisteredAddress  string `json:"registeredAddress"`
		Directors          []struct {
			FullName string `json:"fullName"`
		} `json:"directors"`
	} `json:"data"`
}

// LookupCompany returns an unknown, unverified company when CIPC has no record
func (r *CIPCRegistry) LookupCompany(ctx context.Context, registrationNumber string) (*CompanyInfo, error) {
	unknown := &CompanyInfo{
		RegistrationNumber: registrationNumber,
		Status:             CompanyUnknown,
		Source:             SourceCIPC,
	}

	raw, err := r.client.Get(ctx, "/company/"+url.PathEscape(registrationNumber), bearerHeaders(r.apiKey))
	if err != nil {
		if isNotFound(err) {
			return unknown, nil
		}
		return nil, fmt.Errorf("cipc: %w", err)
	}

	var resp cipcResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("cipc: decode response: %w", err)
	}
	if !resp.Success {
		return unknown, nil
	}

	d := resp.Data
	info := &CompanyInfo{
		RegistrationNumber: d.RegistrationNumber,
		Name:               d.CompanyName,
		Status:             mapCompanyStatus(d.CompanyStatus),
		RegistrationDate:   d.RegistrationDate,
		BusinessType:       d.CompanyType,
		Address:            d.RegisteredAddress,
		Source:             SourceCIPC,
	}
	for _, dir := range d.Directors {
		info.Directors = append(info.Directors, dir.FullName)
	}
	if info.Status == CompanyActive {
		info.Verified = true
		info.Confidence = 95
	} else {
		info.Confidence = 60
	}
	return info, nil
}

func mapCompanyStatus(status string) CompanyStatus {
	s := strings.ToLower(strings.TrimSpace(status))
	switch {
	case s == "active" || s == "in business":
		return CompanyActive
	case strings.HasPrefix(s, "deregist"):
		return CompanyDeregistered
	case s == "suspended":
		return CompanySuspended
	}
	return CompanyUnknown
}

// ========================================
// WHOIS
// ========================================

// WhoisIntel fetches WHOIS data and scores it with AnalyzeDomain
type WhoisIntel struct {
	client *httpclient.Client
	apiKey string
	now    func() time.Time
}

// NewWhoisIntel creates a WHOIS client
func NewWhoisIntel(client *httpclient.Client, apiKey string) *WhoisIntel {
	return &WhoisIntel{client: client, apiKey: apiKey, now: time.Now}
}

type whoisResponse struct {
	Registrar        string   `json:"registrar"`
	RegistrationDate string   `json:"registrationDate"`
	ExpiryDate       string   `json:"expiryDate"`
	NameServers      []string `json:"nameServers"`
	Registrant       string   `json:"registrant"`
}

func (w *WhoisIntel) LookupDomain(ctx context.Context, domain string) (*DomainInfo, error) {
	raw, err := w.client.Get(ctx, "/"+url.PathEscape(domain), bearerHeaders(w.apiKey))
	if err != nil {
		return nil, fmt.Errorf("whois: %w", err)
	}

	var resp whoisResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("whois: decode response: %w", err)
	}

	info := &DomainInfo{
		Domain:           domain,
		Registrar:        resp.Registrar,
		RegistrationDate: parseDate(resp.RegistrationDate),
		ExpiryDate:       parseDate(resp.ExpiryDate),
		NameServers:      resp.NameServers,
	}
	AnalyzeDomain(info, resp.Registrant, w.now())
	return info, nil
}

// AnalyzeDomain fills RiskScore, Warnings and IsLegitimate from WHOIS data.
// A domain scoring under 50 is legitimate.
func AnalyzeDomain(info *DomainInfo, registrant string, now time.Time) {
	score := 0
	warnings := []string{}
	domain := strings.ToLower(info.Domain)

	if strings.Contains(domain, "gov") && !strings.HasSuffix(domain, ".gov.za") {
		score += 40
		warnings = append(warnings, "Domain impersonates a government site")
	}
	if len(strings.Split(domain, "-")) > 3 {
		score += 20
		warnings = append(warnings, "Domain contains excessive hyphens")
	}
	if info.RegistrationDate != nil && now.Sub(*info.RegistrationDate) < 30*24*time.Hour {
		score += 30
		warnings = append(warnings, "Domain registered less than 30 days ago")
	}
	r := strings.ToLower(registrant)
	if strings.Contains(r, "privacy") || strings.Contains(r, "protected") {
		score += 10
		warnings = append(warnings, "Registrant details are hidden")
	}

	if score > 100 {
		score = 100
	}
	info.RiskScore = score
	info.Warnings = warnings
	info.IsLegitimate = score < 50
}

func unavailableDomain(domain string) *DomainInfo {
	return &DomainInfo{
		Domain:    domain,
		RiskScore: 100,
		Warnings:  []string{"Domain verification service unavailable"},
	}
}

func parseDate(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}

// ========================================
// SAFPS
// ========================================

// SAFPSDatabase checks companies against the SA Fraud Prevention Service
type SAFPSDatabase struct {
	client *httpclient.Client
	apiKey string
}

// NewSAFPSDatabase creates a SAFPS client
func NewSAFPSDatabase(client *httpclient.Client, apiKey string) *SAFPSDatabase {
	return &SAFPSDatabase{client: client, apiKey: apiKey}
}

type safpsResponse struct {
	Success bool `json:"success"`
	Data    struct {
		Fraudulent bool     `json:"fraudulent"`
		RiskLevel  string   `json:"riskLevel"`
		Alerts     []string `json:"alerts"`
		Confidence *int     `json:"confidence"`
	} `json:"data"`
}

func (s *SAFPSDatabase) CheckFraud(ctx context.Context, companyName, registrationNumber string) (*FraudCheck, error) {
	body := map[string]string{
		"companyName":        companyName,
		"registrationNumber": registrationNumber,
		"checkType":          "comprehensive",
	}
	raw, err := s.client.Post(ctx, "/fraud-check", body, bearerHeaders(s.apiKey))
	if err != nil {
		return nil, fmt.Errorf("safps: %w", err)
	}

	var resp safpsResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, fmt.Errorf("safps: decode response: %w", err)
	}
	if !resp.Success {
		return &FraudCheck{RiskLevel: FraudRiskLow, Alerts: []string{}, Confidence: 50}, nil
	}

	check := &FraudCheck{
		IsFraudulent: resp.Data.Fraudulent,
		RiskLevel:    parseFraudRisk(resp.Data.RiskLevel),
		Alerts:       resp.Data.Alerts,
		Confidence:   80,
	}
	if check.Alerts == nil {
		check.Alerts = []string{}
	}
	if resp.Data.Confidence != nil {
		check.Confidence = *resp.Data.Confidence
	}
	return check, nil
}

func parseFraudRisk(s string) FraudRisk {
	switch FraudRisk(strings.ToLower(s)) {
	case FraudRiskHigh:
		return FraudRiskHigh
	case FraudRiskMedium:
		return FraudRiskMedium
	}
	return FraudRiskLow
}

// ========================================
// LOCAL PATTERNS
// ========================================

var impersonationKeywords = []string{"government", "official", "department", "ministry", "treasury", "revenue", "sars"}

// LocalFraudPatterns is an offline FraudDatabase used when SAFPS is not
// configured
type LocalFraudPatterns struct{}

func (LocalFraudPatterns) CheckFraud(_ context.Context, companyName, registrationNumber string) (*FraudCheck, error) {
	check := &FraudCheck{RiskLevel: FraudRiskLow, Alerts: []string{}, Confidence: 60}

	name := strings.ToLower(companyName)
	for _, kw := range impersonationKeywords {
		if strings.Contains(name, kw) {
			check.RiskLevel = FraudRiskHigh
			check.Alerts = append(check.Alerts, "Company name suggests government impersonation")
			break
		}
	}
	if registrationNumber != "" && !ValidRegistrationNumber(registrationNumber) {
		if check.RiskLevel == FraudRiskLow {
			check.RiskLevel = FraudRiskMedium
		}
		check.Alerts = append(check.Alerts, "Registration number format is invalid")
	}
	return check, nil
}
