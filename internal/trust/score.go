package trust

import "fmt"

// ComputeScore derives a 0..100 score from cumulative counters.
// Each signal's contribution is capped so no single counter dominates.
func ComputeScore(verifications, reports, transactions int) int {
	score := DefaultScore +
		min(verifications*5, 25) +
		min(transactions*2, 20) -
		min(reports*15, 40)
	return max(0, min(100, score))
}

// DeriveBadge maps a score and counters to a badge. Rules are checked in order.
func DeriveBadge(score, reportCount, verificationCount int) Badge {
	switch {
	case reportCount > 2 || score < 20:
		return BadgeFlagged
	case reportCount > 0 || score < 40:
		return BadgeUnderWatch
	case score > 70 && verificationCount > 2:
		return BadgeVerified
	default:
		return BadgeUnverified
	}
}

// ParseEntityType validates s against the known entity types
func ParseEntityType(s string) (EntityType, error) {
	switch t := EntityType(s); t {
	case EntityPhone, EntityEmail, EntityDomain, EntityCompany:
		return t, nil
	}
	return "", &ValidationError{Field: "entity_type", Message: fmt.Sprintf("unknown entity type %q", s)}
}

// Valid reports whether t is one of the known entity types
func (t EntityType) Valid() bool {
	_, err := ParseEntityType(string(t))
	return err == nil
}

func (r *Record) recompute() {
	r.Score = ComputeScore(r.VerificationCount, r.ReportCount, r.SuccessfulTransactionCount)
	r.Badge = DeriveBadge(r.Score, r.ReportCount, r.VerificationCount)
}
