package community

import (
	"time"

	"github.com/google/uuid"
)

// Reporter badges
const (
	BadgeFraudHunter       = "Fraud Hunter"
	BadgeBusinessVerifier  = "Business Verifier"
	BadgeCommunityGuardian = "Community Guardian"
	BadgeTrustedScout      = "Trusted Scout"
)

// Points per counted action
const (
	pointsPerReport       = 10
	pointsPerVerification = 5
	pointsPerBusiness     = 15
	pointsPerCatch        = 20
	pointsPerLevel        = 100
)

// UserGamification tracks a community member's contributions
type UserGamification struct {
	UserID             uuid.UUID `json:"user_id"`
	ReportsSubmitted   int       `json:"reports_submitted"`
	VerificationsMade  int       `json:"verifications_made"`
	BusinessesVerified int       `json:"businesses_verified"`
	FraudCatches       int       `json:"fraud_catches"`
	Points             int       `json:"points"`
	Level              int       `json:"level"`
	Badges             []string  `json:"badges"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Contribution is a set of counter increments for one user
type Contribution struct {
	Reports       int
	Verifications int
	Businesses    int
	Catches       int
}

func (c Contribution) empty() bool {
	return c == Contribution{}
}

// newGamification returns the profile of a user who has done nothing yet
func newGamification(userID uuid.UUID) *UserGamification {
	return &UserGamification{UserID: userID, Level: 1, Badges: []string{}}
}

// apply adds c to the counters and recomputes points, level and badges from
// the cumulative totals
func (g *UserGamification) apply(c Contribution, now time.Time) {
	g.ReportsSubmitted += c.Reports
	g.VerificationsMade += c.Verifications
	g.BusinessesVerified += c.Businesses
	g.FraudCatches += c.Catches

	g.Points = ComputePoints(g.ReportsSubmitted, g.VerificationsMade, g.BusinessesVerified, g.FraudCatches)
	g.Level = g.Points/pointsPerLevel + 1
	g.Badges = ComputeBadges(g.ReportsSubmitted, g.VerificationsMade, g.BusinessesVerified, g.FraudCatches)
	g.UpdatedAt = now
}

// ComputePoints scores a user's cumulative contributions
func ComputePoints(reports, verifications, businesses, catches int) int {
	return reports*pointsPerReport +
		verifications*pointsPerVerification +
		businesses*pointsPerBusiness +
		catches*pointsPerCatch
}

// ComputeBadges lists the badges earned by the given totals
func ComputeBadges(reports, verifications, businesses, catches int) []string {
	badges := []string{}
	if catches >= 10 {
		badges = append(badges, BadgeFraudHunter)
	}
	if businesses >= 5 {
		badges = append(badges, BadgeBusinessVerifier)
	}
	if reports >= 20 {
		badges = append(badges, BadgeCommunityGuardian)
	}
	if verifications >= 50 {
		badges = append(badges, BadgeTrustedScout)
	}
	return badges
}
