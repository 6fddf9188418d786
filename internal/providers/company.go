package providers

import (
	"context"
	"strings"
	"time"

	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var freeMailDomains = []string{"gmail.", "yahoo.", "hotmail."}

// CompanyVerifier cross-checks a company against the registry, WHOIS and a
// fraud database. Any source may be nil; failing sources degrade the result
// instead of failing the verification.
type CompanyVerifier struct {
	registry CompanyRegistry
	domains  DomainIntel
	fraud    FraudDatabase
	now      func() time.Time
}

// NewCompanyVerifier creates a verifier. A nil fraud database falls back to
// LocalFraudPatterns.
func NewCompanyVerifier(registry CompanyRegistry, domains DomainIntel, fraud FraudDatabase) *CompanyVerifier {
	if fraud == nil {
		fraud = LocalFraudPatterns{}
	}
	return &CompanyVerifier{registry: registry, domains: domains, fraud: fraud, now: time.Now}
}

// VerifyCompany runs the three lookups concurrently and combines them into an
// overall risk between 0 and 100
func (v *CompanyVerifier) VerifyCompany(ctx context.Context, name, registrationNumber, domain string) (*CompanyVerification, error) {
	result := &CompanyVerification{}
	registrationNumber = strings.TrimSpace(registrationNumber)

	var g errgroup.Group
	g.Go(func() error {
		result.Company = v.lookupCompany(ctx, name, registrationNumber)
		return nil
	})
	if domain = trust.Normalize(trust.EntityDomain, domain); domain != "" {
		g.Go(func() error {
			result.Domain = v.lookupDomain(ctx, domain)
			return nil
		})
	}
	g.Go(func() error {
		result.FraudCheck = v.checkFraud(ctx, name, registrationNumber)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result.OverallRisk = overallRisk(result)
	result.Recommendation = recommend(result.OverallRisk)

	logger.WithContext(ctx).Info("company verified",
		zap.String("company", name),
		zap.Int("overall_risk", result.OverallRisk),
		zap.String("recommendation", string(result.Recommendation)),
	)
	return result, nil
}

func (v *CompanyVerifier) lookupCompany(ctx context.Context, name, registrationNumber string) *CompanyInfo {
	if registrationNumber == "" || v.registry == nil {
		companyLookups.WithLabelValues(SourceManual, "skipped").Inc()
		return &CompanyInfo{
			RegistrationNumber: registrationNumber,
			Name:               name,
			Status:             CompanyUnknown,
			Source:             SourceManual,
		}
	}

	info, err := v.registry.LookupCompany(ctx, registrationNumber)
	if err != nil {
		companyLookups.WithLabelValues(SourceCIPC, "error").Inc()
		logger.WithContext(ctx).Warn("company registry lookup failed",
			zap.String("registration_number", registrationNumber), zap.Error(err))
		return &CompanyInfo{
			RegistrationNumber: registrationNumber,
			Name:               name,
			Status:             CompanyUnknown,
			Source:             SourceCIPC,
		}
	}
	companyLookups.WithLabelValues(SourceCIPC, string(info.Status)).Inc()
	return info
}

func (v *CompanyVerifier) lookupDomain(ctx context.Context, domain string) *DomainInfo {
	if v.domains == nil {
		// heuristics only
		info := &DomainInfo{Domain: domain}
		AnalyzeDomain(info, "", v.now())
		companyLookups.WithLabelValues("whois", "skipped").Inc()
		return info
	}

	info, err := v.domains.LookupDomain(ctx, domain)
	if err != nil {
		companyLookups.WithLabelValues("whois", "error").Inc()
		logger.WithContext(ctx).Warn("whois lookup failed", zap.String("domain", domain), zap.Error(err))
		return unavailableDomain(domain)
	}
	companyLookups.WithLabelValues("whois", "ok").Inc()
	return info
}

func (v *CompanyVerifier) checkFraud(ctx context.Context, name, registrationNumber string) *FraudCheck {
	check, err := v.fraud.CheckFraud(ctx, name, registrationNumber)
	if err != nil {
		companyLookups.WithLabelValues("safps", "error").Inc()
		logger.WithContext(ctx).Warn("fraud database check failed", zap.String("company", name), zap.Error(err))
		return &FraudCheck{RiskLevel: FraudRiskLow, Alerts: []string{"SAFPS service unavailable"}}
	}
	companyLookups.WithLabelValues("safps", string(check.RiskLevel)).Inc()
	return check
}

func overallRisk(v *CompanyVerification) int {
	risk := 0.0
	if v.Company == nil || !v.Company.Verified {
		risk += 30
	}
	if v.Domain != nil && v.Domain.RiskScore > 50 {
		risk += float64(v.Domain.RiskScore) * 0.4
	}
	if v.FraudCheck != nil {
		if v.FraudCheck.IsFraudulent {
			risk += 50
		}
		switch v.FraudCheck.RiskLevel {
		case FraudRiskHigh:
			risk += 30
		case FraudRiskMedium:
			risk += 15
		}
	}
	if risk > 100 {
		risk = 100
	}
	return int(risk)
}

func recommend(risk int) Recommendation {
	switch {
	case risk < 20:
		return RecommendApprove
	case risk < 60:
		return RecommendReview
	}
	return RecommendReject
}

// VerifyEmailDomain judges whether the domain of a sender address looks like
// a genuine business domain
func (v *CompanyVerifier) VerifyEmailDomain(ctx context.Context, email string) *EmailDomainVerification {
	email = strings.ToLower(strings.TrimSpace(email))
	at := strings.LastIndex(email, "@")
	if at < 0 || at == len(email)-1 {
		return &EmailDomainVerification{RiskFactors: []string{"Invalid email format"}}
	}
	domain := email[at+1:]

	factors := []string{}
	if strings.Contains(domain, "gov") && !strings.HasSuffix(domain, ".gov.za") {
		factors = append(factors, "Email domain impersonates a government site")
	}
	for _, free := range freeMailDomains {
		if strings.HasPrefix(domain, free) {
			factors = append(factors, "Free email provider used for business correspondence")
			break
		}
	}
	if len(strings.Split(domain, ".")) > 3 {
		factors = append(factors, "Email domain has an unusual number of subdomains")
	}

	info := v.lookupDomain(ctx, trust.RegistrableDomain(domain))

	confidence := 100 - info.RiskScore - 10*len(factors)
	if confidence < 0 {
		confidence = 0
	}
	return &EmailDomainVerification{
		IsLegitimate: info.IsLegitimate && len(factors) < 2,
		Domain:       domain,
		RiskFactors:  append(factors, info.Warnings...),
		Confidence:   confidence,
	}
}
