package providers

import "time"

// PaymentStatus is a provider's view of a payment
type PaymentStatus string

const (
	PaymentCleared  PaymentStatus = "cleared"
	PaymentPending  PaymentStatus = "pending"
	PaymentFailed   PaymentStatus = "failed"
	PaymentNotFound PaymentStatus = "not_found"
)

// DefaultCurrency is assumed for payment requests that name none
const DefaultCurrency = "ZAR"

// PaymentRequest asks whether a payment has really cleared
type PaymentRequest struct {
	BankName        string  `json:"bank_name" validate:"max=100"`
	Reference       string  `json:"reference" validate:"required,max=100"`
	Amount          float64 `json:"amount" validate:"required,gt=0"`
	Currency        string  `json:"currency" validate:"omitempty,len=3"`
	AccountNumber   string  `json:"account_number" validate:"max=34"`
	BeneficiaryName string  `json:"beneficiary_name" validate:"max=200"`
}

func (r PaymentRequest) currency() string {
	if r.Currency == "" {
		return DefaultCurrency
	}
	return r.Currency
}

// PaymentResult is a provider's answer. Verified is only ever true for a
// cleared payment.
type PaymentResult struct {
	Provider        string        `json:"provider"`
	Verified        bool          `json:"verified"`
	Status          PaymentStatus `json:"status"`
	Amount          float64       `json:"amount"`
	Currency        string        `json:"currency"`
	Reference       string        `json:"reference"`
	TransactionDate string        `json:"transaction_date,omitempty"`
	BeneficiaryName string        `json:"beneficiary_name,omitempty"`
	Message         string        `json:"message"`
	Confidence      int           `json:"confidence"`
}

// ========================================
// COMPANY CHECKS
// ========================================

// CompanyStatus is the registry state of a company
type CompanyStatus string

const (
	CompanyActive       CompanyStatus = "active"
	CompanyDeregistered CompanyStatus = "deregistered"
	CompanySuspended    CompanyStatus = "suspended"
	CompanyUnknown      CompanyStatus = "unknown"
)

// Sources of company information
const (
	SourceCIPC   = "cipc"
	SourceManual = "manual"
)

// CompanyInfo is what the company registry knows about a registration number
type CompanyInfo struct {
	RegistrationNumber string        `json:"registration_number"`
	Name               string        `json:"name"`
	Status             CompanyStatus `json:"status"`
	RegistrationDate   string        `json:"registration_date,omitempty"`
	BusinessType       string        `json:"business_type,omitempty"`
	Directors          []string      `json:"directors,omitempty"`
	Address            string        `json:"address,omitempty"`
	Verified           bool          `json:"verified"`
	Confidence         int           `json:"confidence"`
	Source             string        `json:"source"`
}

// DomainInfo is the WHOIS view of a domain with heuristic risk
type DomainInfo struct {
	Domain           string     `json:"domain"`
	Registrar        string     `json:"registrar,omitempty"`
	RegistrationDate *time.Time `json:"registration_date,omitempty"`
	ExpiryDate       *time.Time `json:"expiry_date,omitempty"`
	NameServers      []string   `json:"name_servers,omitempty"`
	IsLegitimate     bool       `json:"is_legitimate"`
	RiskScore        int        `json:"risk_score"`
	Warnings         []string   `json:"warnings"`
}

// FraudRisk is the fraud database's risk band
type FraudRisk string

const (
	FraudRiskLow    FraudRisk = "low"
	FraudRiskMedium FraudRisk = "medium"
	FraudRiskHigh   FraudRisk = "high"
)

// FraudCheck is a fraud database answer
type FraudCheck struct {
	IsFraudulent bool      `json:"is_fraudulent"`
	RiskLevel    FraudRisk `json:"risk_level"`
	Alerts       []string  `json:"alerts"`
	Confidence   int       `json:"confidence"`
}

// Recommendation is the overall advice of a company verification
type Recommendation string

const (
	RecommendApprove Recommendation = "approve"
	RecommendReview  Recommendation = "review"
	RecommendReject  Recommendation = "reject"
)

// CompanyVerification combines registry, domain and fraud database results
type CompanyVerification struct {
	Company        *CompanyInfo   `json:"company"`
	Domain         *DomainInfo    `json:"domain,omitempty"`
	FraudCheck     *FraudCheck    `json:"fraud_check"`
	OverallRisk    int            `json:"overall_risk"`
	Recommendation Recommendation `json:"recommendation"`
}

// EmailDomainVerification is the verdict on the domain of a sender address
type EmailDomainVerification struct {
	IsLegitimate bool     `json:"is_legitimate"`
	Domain       string   `json:"domain"`
	RiskFactors  []string `json:"risk_factors"`
	Confidence   int      `json:"confidence"`
}

// VerifyCompanyRequest is the body of POST /api/v1/verify/company
type VerifyCompanyRequest struct {
	CompanyName        string `json:"company_name" validate:"required,max=200"`
	RegistrationNumber string `json:"registration_number" validate:"max=20"`
	Domain             string `json:"domain" validate:"max=253"`
}

// VerifyEmailDomainRequest is the body of POST /api/v1/verify/email-domain
type VerifyEmailDomainRequest struct {
	Email string `json:"email" validate:"required,max=254"`
}
