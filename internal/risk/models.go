package risk

import (
	"time"

	"github.com/google/uuid"
)

// Risk levels run from 1 (low) to 5 (critical)
const (
	LevelLow      = 1
	LevelElevated = 3
	LevelHigh     = 4
	LevelCritical = 5
)

// Assessment is the verdict for one entity. It is computed on demand and never stored.
type Assessment struct {
	RiskLevel       int      `json:"risk_level"`
	RiskFactors     []string `json:"risk_factors"`
	Recommendations []string `json:"recommendations"`
}

// ReportSummary is the part of an adverse report the assessor looks at
type ReportSummary struct {
	ID        uuid.UUID `json:"id"`
	RiskLevel int       `json:"risk_level"`
	ScamType  string    `json:"scam_type"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultReferenceDomains are well-known South African government and bank
// domains that typosquatters imitate
var DefaultReferenceDomains = []string{
	"gov.za",
	"co.za",
	"org.za",
	"ac.za",
	"fnb.co.za",
	"standardbank.co.za",
	"absa.co.za",
	"capitecbank.co.za",
	"nedbank.co.za",
}
