package risk

import (
	"fmt"
	"strings"

	"github.com/richxcame/fraudshield/internal/trust"
)

const (
	typosquatLower = 0.7
	typosquatUpper = 1.0
)

// Assessor turns a trust record and adverse reports into a risk verdict
type Assessor struct {
	referenceDomains []string
}

// NewAssessor creates an assessor comparing domains against referenceDomains.
// An empty list falls back to DefaultReferenceDomains.
func NewAssessor(referenceDomains []string) *Assessor {
	refs := make([]string, 0, len(referenceDomains))
	for _, d := range referenceDomains {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			refs = append(refs, d)
		}
	}
	if len(refs) == 0 {
		refs = append(refs, DefaultReferenceDomains...)
	}
	return &Assessor{referenceDomains: refs}
}

// ReferenceDomains returns a copy of the domains typosquats are measured against
func (a *Assessor) ReferenceDomains() []string {
	return append([]string(nil), a.referenceDomains...)
}

// IsTyposquat reports whether domain is close to, but not the same as, a reference domain
func (a *Assessor) IsTyposquat(domain string) bool {
	d := strings.ToLower(strings.TrimSpace(domain))
	for _, ref := range a.referenceDomains {
		s := Similarity(d, ref)
		if s > typosquatLower && s < typosquatUpper {
			return true
		}
	}
	return false
}

// Assess evaluates an entity. record may be nil for an entity with no
// trust history. The result depends only on the arguments.
func (a *Assessor) Assess(entityID string, entityType trust.EntityType, record *trust.Record, reports []ReportSummary) (*Assessment, error) {
	if _, err := trust.ParseEntityType(string(entityType)); err != nil {
		return nil, err
	}

	result := &Assessment{
		RiskLevel:       LevelLow,
		RiskFactors:     []string{},
		Recommendations: []string{},
	}
	raise := func(level int, factor, recommendation string) {
		result.RiskLevel = max(result.RiskLevel, level)
		result.RiskFactors = append(result.RiskFactors, factor)
		result.Recommendations = append(result.Recommendations, recommendation)
	}

	switch {
	case record == nil || record.Score < 30:
		raise(LevelHigh, "low or no trust score", "proceed with extreme caution")
	case record.Score < 50:
		raise(LevelElevated, "below-average trust score", "verify through additional channels")
	}

	if n := len(reports); n > 0 {
		raise(LevelHigh, fmt.Sprintf("%d adverse report(s) found", n), "avoid transaction — multiple fraud reports")
	}

	switch entityType {
	case trust.EntityDomain:
		if a.IsTyposquat(entityID) {
			raise(LevelCritical, "potential typosquatting domain", "verify official domain spelling")
			result.RiskLevel = LevelCritical
		}
	case trust.EntityPhone:
		if !IsValidRegionalPhone(entityID) {
			raise(LevelElevated, "invalid or suspicious phone format", "verify phone via official sources")
		}
	}

	if result.RiskLevel == LevelLow && record != nil && record.Score > 70 && record.VerificationCount > 2 {
		result.Recommendations = append(result.Recommendations, "entity appears trustworthy based on community data")
	}

	return result, nil
}
