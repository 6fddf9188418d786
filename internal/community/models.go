package community

import (
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/internal/risk"
	"github.com/richxcame/fraudshield/internal/trust"
)

// ScamType classifies what kind of fraud a report describes
type ScamType string

const (
	ScamFakePOP       ScamType = "fake_pop"
	ScamGhostBusiness ScamType = "ghost_business"
	ScamWhatsApp      ScamType = "whatsapp_scam"
	ScamFakeDocument  ScamType = "fake_document"
	ScamOther         ScamType = "other"
)

// Category groups reports on the scam wall
type Category string

const (
	CategoryPayment       Category = "payment"
	CategoryDocument      Category = "document"
	CategoryBusiness      Category = "business"
	CategoryCommunication Category = "communication"
)

// ReportStatus is the moderation state of a report
type ReportStatus string

const (
	ReportActive   ReportStatus = "active"
	ReportResolved ReportStatus = "resolved"
	ReportDisputed ReportStatus = "disputed"
)

// VerificationType is how another user reacts to a report
type VerificationType string

const (
	VerificationUpvote       VerificationType = "upvote"
	VerificationHappenedToMe VerificationType = "happened_to_me"
	VerificationDispute      VerificationType = "dispute"
)

// Counter fields that IncrementReportCounter accepts
const (
	CounterUpvotes        = "upvotes"
	CounterCorroborations = "corroborations"
	CounterDisputes       = "disputes"
)

// counterFor maps a verification to the report counter it bumps
func counterFor(v VerificationType) (string, bool) {
	switch v {
	case VerificationUpvote:
		return CounterUpvotes, true
	case VerificationHappenedToMe:
		return CounterCorroborations, true
	case VerificationDispute:
		return CounterDisputes, true
	}
	return "", false
}

// MaxCheckReports caps the reports attached to an entity check
const MaxCheckReports = 10

// ========================================
// ADVERSE REPORTS
// ========================================

// AdverseReport is a community claim about a fraud incident. Content is
// immutable once created; only counters, status and evidence change.
type AdverseReport struct {
	ID             uuid.UUID    `json:"id"`
	ReporterID     uuid.UUID    `json:"reporter_id"`
	Title          string       `json:"title"`
	Description    string       `json:"description"`
	ScamType       ScamType     `json:"scam_type"`
	Category       Category     `json:"category"`
	Location       string       `json:"location,omitempty"`
	RiskLevel      int          `json:"risk_level"`
	PhoneNumber    string       `json:"phone_number,omitempty"`
	Email          string       `json:"email,omitempty"`
	Domain         string       `json:"domain,omitempty"`
	CompanyName    string       `json:"company_name,omitempty"`
	AmountLost     *float64     `json:"amount_lost,omitempty"`
	EvidenceURLs   []string     `json:"evidence_urls"`
	Upvotes        int          `json:"upvotes"`
	Corroborations int          `json:"corroborations"`
	Disputes       int          `json:"disputes"`
	Status         ReportStatus `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	UpdatedAt      time.Time    `json:"updated_at"`
}

// EntityRefs returns the entities the report names, skipping empty fields
func (r *AdverseReport) EntityRefs() []trust.EntityRef {
	candidates := []trust.EntityRef{
		{ID: r.PhoneNumber, Type: trust.EntityPhone},
		{ID: r.Email, Type: trust.EntityEmail},
		{ID: r.Domain, Type: trust.EntityDomain},
		{ID: r.CompanyName, Type: trust.EntityCompany},
	}
	refs := make([]trust.EntityRef, 0, len(candidates))
	for _, ref := range candidates {
		if ref.ID != "" {
			refs = append(refs, ref)
		}
	}
	return refs
}

// Summary is the view of the report the risk assessor needs
func (r *AdverseReport) Summary() risk.ReportSummary {
	return risk.ReportSummary{
		ID:        r.ID,
		RiskLevel: r.RiskLevel,
		ScamType:  string(r.ScamType),
		CreatedAt: r.CreatedAt,
	}
}

// CreateReportRequest is the body of POST /api/v1/reports
type CreateReportRequest struct {
	Title        string   `json:"title" validate:"required,min=3,max=200"`
	Description  string   `json:"description" validate:"required,max=5000"`
	ScamType     string   `json:"scam_type" validate:"required,scam_type"`
	Category     string   `json:"category" validate:"required,report_category"`
	Location     string   `json:"location" validate:"max=200"`
	RiskLevel    int      `json:"risk_level" validate:"required,gte=1,lte=5"`
	PhoneNumber  string   `json:"phone_number" validate:"omitempty,max=32"`
	Email        string   `json:"email" validate:"omitempty,email,max=254"`
	Domain       string   `json:"domain" validate:"omitempty,max=253"`
	CompanyName  string   `json:"company_name" validate:"omitempty,max=200"`
	AmountLost   *float64 `json:"amount_lost" validate:"omitempty,gte=0"`
	EvidenceURLs []string `json:"evidence_urls" validate:"omitempty,max=10,dive,url"`
}

// ReportFilters narrows the scam wall listing
type ReportFilters struct {
	Category  string `form:"category"`
	Location  string `form:"location"`
	ScamType  string `form:"scam_type"`
	RiskLevel int    `form:"risk_level"`
	Limit     int    `form:"-"`
	Offset    int    `form:"-"`
}

// ReportVerification records one user's reaction to a report
type ReportVerification struct {
	ID               uuid.UUID        `json:"id"`
	ReportID         uuid.UUID        `json:"report_id"`
	UserID           uuid.UUID        `json:"user_id"`
	VerificationType VerificationType `json:"verification_type"`
	Comment          string           `json:"comment,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
}

// VerifyReportRequest is the body of POST /api/v1/reports/:id/verify
type VerifyReportRequest struct {
	VerificationType string `json:"verification_type" validate:"required,oneof=upvote happened_to_me dispute"`
	Comment          string `json:"comment" validate:"max=1000"`
}

// ========================================
// BUSINESS DIRECTORY
// ========================================

// Verification states of a business listing
const (
	ListingPending  = "pending"
	ListingVerified = "verified"
	ListingRejected = "rejected"
)

// BusinessListing is an entry in the community business directory
type BusinessListing struct {
	ID                 uuid.UUID `json:"id"`
	OwnerID            uuid.UUID `json:"owner_id"`
	Name               string    `json:"business_name"`
	Description        string    `json:"description,omitempty"`
	Category           string    `json:"category"`
	Subcategory        string    `json:"subcategory,omitempty"`
	Location           string    `json:"location,omitempty"`
	PhoneNumber        string    `json:"contact_phone,omitempty"`
	Email              string    `json:"contact_email,omitempty"`
	Website            string    `json:"website,omitempty"`
	RegistrationNumber string    `json:"registration_number,omitempty"`
	Services           []string  `json:"services"`
	VerificationStatus string    `json:"verification_status"`
	VerifiedByOrg      string    `json:"verified_by_org,omitempty"`
	TrustScore         int       `json:"trust_score"`
	IsStudentBusiness  bool      `json:"is_student_business"`
	IsSME              bool      `json:"is_sme"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// CreateBusinessRequest is the body of POST /api/v1/businesses
type CreateBusinessRequest struct {
	Name               string   `json:"business_name" validate:"required,min=2,max=200"`
	Description        string   `json:"description" validate:"max=2000"`
	Category           string   `json:"category" validate:"required,max=100"`
	Subcategory        string   `json:"subcategory" validate:"max=100"`
	Location           string   `json:"location" validate:"max=200"`
	PhoneNumber        string   `json:"contact_phone" validate:"omitempty,za_phone"`
	Email              string   `json:"contact_email" validate:"omitempty,email"`
	Website            string   `json:"website" validate:"omitempty,url"`
	RegistrationNumber string   `json:"registration_number" validate:"max=50"`
	Services           []string `json:"services" validate:"max=20,dive,max=100"`
	VerificationStatus string   `json:"verification_status" validate:"omitempty,oneof=pending verified rejected"`
	VerifiedByOrg      string   `json:"verified_by_org" validate:"max=200"`
	IsStudentBusiness  bool     `json:"is_student_business"`
	IsSME              bool     `json:"is_sme"`
}

// BusinessFilters narrows the directory listing
type BusinessFilters struct {
	Category           string `form:"category"`
	Location           string `form:"location"`
	VerificationStatus string `form:"verification_status"`
	IsStudentBusiness  *bool  `form:"is_student_business"`
	VerifiedByOrg      string `form:"verified_by_org"`
	Limit              int    `form:"-"`
	Offset             int    `form:"-"`
}

// ========================================
// ENTITY CHECKS
// ========================================

// EntityCheck is the answer to "can I trust this contact?". TrustRecord is
// nil when the community has never seen the entity.
type EntityCheck struct {
	EntityID       string           `json:"entity_id"`
	EntityType     trust.EntityType `json:"entity_type"`
	TrustRecord    *trust.Record    `json:"trust_record"`
	Reports        []*AdverseReport `json:"reports"`
	RiskAssessment *risk.Assessment `json:"risk_assessment"`
}
