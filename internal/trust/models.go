package trust

import "time"

// EntityType is the kind of identifier a trust record is kept for
type EntityType string

const (
	EntityPhone   EntityType = "phone"
	EntityEmail   EntityType = "email"
	EntityDomain  EntityType = "domain"
	EntityCompany EntityType = "company"
)

// Badge summarizes a trust record for display
type Badge string

const (
	BadgeVerified   Badge = "verified"
	BadgeUnderWatch Badge = "under_watch"
	BadgeFlagged    Badge = "flagged"
	BadgeUnverified Badge = "unverified"
)

// DefaultScore is the neutral score of an entity nobody has said anything about
const DefaultScore = 50

// Record is the running reputation of one entity
type Record struct {
	EntityID                   string     `json:"entity_id"`
	EntityType                 EntityType `json:"entity_type"`
	Score                      int        `json:"trust_score"`
	VerificationCount          int        `json:"verification_count"`
	ReportCount                int        `json:"report_count"`
	SuccessfulTransactionCount int        `json:"successful_transactions"`
	Badge                      Badge      `json:"badge"`
	LastUpdated                time.Time  `json:"last_updated"`
}

// EntityRef identifies a tracked entity
type EntityRef struct {
	ID   string     `json:"id"`
	Type EntityType `json:"type"`
}

// Delta is a set of counter increments applied to a record
type Delta struct {
	Verifications int
	Reports       int
	Transactions  int
}

func newRecord(id string, entityType EntityType, now time.Time) *Record {
	return &Record{
		EntityID:    id,
		EntityType:  entityType,
		Score:       DefaultScore,
		Badge:       BadgeUnverified,
		LastUpdated: now,
	}
}
