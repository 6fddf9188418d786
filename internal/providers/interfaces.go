package providers

import "context"

// PaymentVerifier confirms payments with one payment provider. A payment the
// provider does not know is a PaymentNotFound result, not an error.
type PaymentVerifier interface {
	Name() string
	VerifyPayment(ctx context.Context, req PaymentRequest) (*PaymentResult, error)
}

// CompanyRegistry looks up registered companies
type CompanyRegistry interface {
	LookupCompany(ctx context.Context, registrationNumber string) (*CompanyInfo, error)
}

// DomainIntel looks up domain registration data
type DomainIntel interface {
	LookupDomain(ctx context.Context, domain string) (*DomainInfo, error)
}

// FraudDatabase checks a company against known fraud
type FraudDatabase interface {
	CheckFraud(ctx context.Context, companyName, registrationNumber string) (*FraudCheck, error)
}
