package community

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/internal/trust"
)

// ErrDuplicateVerification is returned when a user repeats the same reaction to a report
var ErrDuplicateVerification = errors.New("report already verified by this user")

// Repository is the storage collaborator of the community service.
// Single-row getters return (nil, nil) when nothing matches.
type Repository interface {
	trust.Store

	// WithTx runs fn in one transaction. Nothing fn wrote is kept when it
	// returns an error.
	WithTx(ctx context.Context, fn func(tx Repository) error) error

	// Reports
	CreateReport(ctx context.Context, report *AdverseReport) error
	GetReport(ctx context.Context, id uuid.UUID) (*AdverseReport, error)
	ListReports(ctx context.Context, filters ReportFilters) ([]*AdverseReport, int64, error)
	// QueryReports returns active reports naming any of refs, newest first
	QueryReports(ctx context.Context, refs []trust.EntityRef, limit int) ([]*AdverseReport, error)
	IncrementReportCounter(ctx context.Context, reportID uuid.UUID, field string) error
	UpdateReportStatus(ctx context.Context, reportID uuid.UUID, status ReportStatus) error
	AppendEvidence(ctx context.Context, reportID uuid.UUID, url string) error
	CreateReportVerification(ctx context.Context, v *ReportVerification) error

	// Business directory
	CreateBusinessListing(ctx context.Context, listing *BusinessListing) error
	ListBusinessListings(ctx context.Context, filters BusinessFilters) ([]*BusinessListing, int64, error)

	// Gamification
	GetGamification(ctx context.Context, userID uuid.UUID) (*UserGamification, error)
	PutGamification(ctx context.Context, g *UserGamification) error
}

// TrustCache holds recently looked-up trust records
type TrustCache interface {
	Get(ctx context.Context, ref trust.EntityRef) (*trust.Record, bool)
	Set(ctx context.Context, record *trust.Record)
	Invalidate(ctx context.Context, refs ...trust.EntityRef)
}
