package community

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/internal/risk"
	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/eventbus"
	"github.com/richxcame/fraudshield/pkg/logger"
	"github.com/richxcame/fraudshield/pkg/security"
	"github.com/richxcame/fraudshield/pkg/storage"
	"github.com/richxcame/fraudshield/pkg/tracing"
	"github.com/richxcame/fraudshield/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	eventSource = "fraudshield.community"

	// CheckUnavailableMessage is returned whenever a check cannot be completed
	CheckUnavailableMessage = "unable to verify at this time, try again"

	defaultReportLimit = 50
	maxListLimit       = 100

	// MinDisputes is how many disputes a report needs before it can be marked disputed
	MinDisputes = 3

	maxEvidenceFiles = 10
)

var tracer = tracing.Tracer("community")

// Service implements the community trust operations
type Service struct {
	repo     Repository
	engine   *trust.Engine
	assessor *risk.Assessor

	cache            TrustCache
	events           eventbus.Publisher
	evidence         storage.Storage
	maxEvidenceBytes int64

	now func() time.Time
}

// NewService creates a community service on top of repo
func NewService(repo Repository, assessor *risk.Assessor) *Service {
	return &Service{
		repo:     repo,
		engine:   trust.NewEngine(repo),
		assessor: assessor,
		now:      time.Now,
	}
}

// SetCache enables read-through caching of trust lookups
func (s *Service) SetCache(cache TrustCache) {
	s.cache = cache
}

// SetEventPublisher enables publishing of community events
func (s *Service) SetEventPublisher(p eventbus.Publisher) {
	s.events = p
}

// SetEvidenceStorage enables evidence uploads of up to maxBytes per file
func (s *Service) SetEvidenceStorage(st storage.Storage, maxBytes int64) {
	s.evidence = st
	s.maxEvidenceBytes = maxBytes
}

// ========================================
// TRUST LEDGER
// ========================================

// RecordAdverseReport stores a community scam report and counts it against
// every entity it names
func (s *Service) RecordAdverseReport(ctx context.Context, reporterID uuid.UUID, req *CreateReportRequest) (*AdverseReport, error) {
	ctx, span := tracer.Start(ctx, "community.RecordAdverseReport")
	defer span.End()

	if err := validation.ValidateStruct(req); err != nil {
		return nil, common.NewBadRequestError("validation failed: "+err.Error(), err)
	}
	// reports are shown to every user of the scam wall
	title := security.CleanText(req.Title, 200)
	if title == "" {
		return nil, common.NewBadRequestError("title must contain text", nil)
	}

	now := s.now()
	report := &AdverseReport{
		ID:           uuid.New(),
		ReporterID:   reporterID,
		Title:        title,
		Description:  security.CleanText(req.Description, 5000),
		ScamType:     ScamType(req.ScamType),
		Category:     Category(req.Category),
		Location:     security.CleanText(req.Location, 200),
		RiskLevel:    req.RiskLevel,
		PhoneNumber:  trust.Normalize(trust.EntityPhone, req.PhoneNumber),
		Email:        trust.Normalize(trust.EntityEmail, req.Email),
		Domain:       trust.Normalize(trust.EntityDomain, req.Domain),
		CompanyName:  trust.Normalize(trust.EntityCompany, req.CompanyName),
		AmountLost:   req.AmountLost,
		EvidenceURLs: append([]string{}, req.EvidenceURLs...),
		Status:       ReportActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	refs := report.EntityRefs()
	span.SetAttributes(attribute.Int("report.entity_refs", len(refs)))

	// the report and its trust counter updates commit or roll back together
	var changes []*trust.Change
	err := s.repo.WithTx(ctx, func(tx Repository) error {
		changes = changes[:0]
		if err := tx.CreateReport(ctx, report); err != nil {
			return fmt.Errorf("create report: %w", err)
		}
		engine := s.engine.WithStore(tx)
		for _, ref := range refs {
			change, err := engine.Apply(ctx, ref.ID, ref.Type, trust.Delta{Reports: 1})
			if err != nil {
				return err
			}
			changes = append(changes, change)
		}
		return nil
	})
	if err != nil {
		tracing.RecordError(span, err)
		var storageErr *trust.StorageError
		if errors.As(err, &storageErr) {
			return nil, common.NewServiceUnavailableError("failed to update trust records", err)
		}
		return nil, common.NewInternalError("failed to create report", err)
	}
	s.invalidate(ctx, refs...)

	catches := 0
	for _, change := range changes {
		change.Observe(ctx)
		if change.BecameFlagged() {
			catches++
			entitiesFlagged.WithLabelValues(string(change.Record.EntityType)).Inc()
			s.publishFlagged(ctx, change.Record, report)
		}
	}

	reportsSubmitted.WithLabelValues(string(report.Category)).Inc()
	s.credit(ctx, reporterID, Contribution{Reports: 1, Catches: catches})
	s.publish(ctx, eventbus.SubjectReportCreated, eventbus.ReportCreated{
		ReportID:   report.ID.String(),
		ReporterID: reporterID.String(),
		Category:   string(report.Category),
		ScamType:   string(report.ScamType),
		RiskLevel:  report.RiskLevel,
		CreatedAt:  report.CreatedAt,
	})

	logger.WithContext(ctx).Info("adverse report recorded",
		zap.String("report_id", report.ID.String()),
		zap.String("category", string(report.Category)),
		zap.Int("entity_refs", len(refs)),
		zap.Int("fraud_catches", catches),
	)

	return report, nil
}

// RecordVerificationEvent counts a positive verification of an entity
func (s *Service) RecordVerificationEvent(ctx context.Context, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	return s.applyDelta(ctx, "community.RecordVerificationEvent", entityID, entityType, trust.Delta{Verifications: 1})
}

// RecordSuccessfulTransaction counts a completed transaction with an entity
func (s *Service) RecordSuccessfulTransaction(ctx context.Context, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	return s.applyDelta(ctx, "community.RecordSuccessfulTransaction", entityID, entityType, trust.Delta{Transactions: 1})
}

// VerifyEntity records a verification made by a community member and
// credits them for it. Verifying a company counts as a business verification.
func (s *Service) VerifyEntity(ctx context.Context, userID uuid.UUID, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	record, err := s.RecordVerificationEvent(ctx, entityID, entityType)
	if err != nil {
		return nil, err
	}

	if entityType == trust.EntityCompany {
		s.credit(ctx, userID, Contribution{Businesses: 1})
	} else {
		s.credit(ctx, userID, Contribution{Verifications: 1})
	}
	return record, nil
}

func (s *Service) applyDelta(ctx context.Context, op, entityID string, entityType trust.EntityType, delta trust.Delta) (*trust.Record, error) {
	ctx, span := tracer.Start(ctx, op, trace.WithAttributes(attribute.String("entity.type", string(entityType))))
	defer span.End()

	if _, err := trust.ParseEntityType(string(entityType)); err != nil {
		return nil, common.NewBadRequestError(err.Error(), err)
	}
	id := trust.Normalize(entityType, entityID)
	if id == "" {
		return nil, common.NewBadRequestError("entity id is required", nil)
	}

	record, err := s.engine.ApplyDelta(ctx, id, entityType, delta)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, trustError(err)
	}
	s.invalidate(ctx, trust.EntityRef{ID: id, Type: entityType})
	return record, nil
}

// CheckEntity answers whether an entity can be trusted: its trust record
// (nil when unknown), the latest active reports naming it and a risk verdict.
// Lookups never create trust records.
func (s *Service) CheckEntity(ctx context.Context, entityID string, entityType trust.EntityType) (*EntityCheck, error) {
	ctx, span := tracer.Start(ctx, "community.CheckEntity", trace.WithAttributes(attribute.String("entity.type", string(entityType))))
	defer span.End()

	if _, err := trust.ParseEntityType(string(entityType)); err != nil {
		return nil, common.NewBadRequestError(err.Error(), err)
	}
	id := trust.Normalize(entityType, entityID)
	if id == "" {
		return nil, common.NewBadRequestError("entity id is required", nil)
	}
	ref := trust.EntityRef{ID: id, Type: entityType}

	record, err := s.lookup(ctx, ref)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, common.NewServiceUnavailableError(CheckUnavailableMessage, err)
	}

	reports, err := s.repo.QueryReports(ctx, []trust.EntityRef{ref}, MaxCheckReports)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, common.NewServiceUnavailableError(CheckUnavailableMessage, err)
	}

	summaries := make([]risk.ReportSummary, 0, len(reports))
	for _, r := range reports {
		summaries = append(summaries, r.Summary())
	}

	// the phone format is judged on the number as given, not its lookup key
	subject := id
	if entityType == trust.EntityPhone {
		subject = strings.TrimSpace(entityID)
	}
	assessment, err := s.assessor.Assess(subject, entityType, record, summaries)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, common.NewServiceUnavailableError(CheckUnavailableMessage, err)
	}

	entityChecks.WithLabelValues(string(entityType), strconv.Itoa(assessment.RiskLevel)).Inc()
	span.SetAttributes(attribute.Int("risk.level", assessment.RiskLevel))

	return &EntityCheck{
		EntityID:       id,
		EntityType:     entityType,
		TrustRecord:    record,
		Reports:        reports,
		RiskAssessment: assessment,
	}, nil
}

func (s *Service) lookup(ctx context.Context, ref trust.EntityRef) (*trust.Record, error) {
	if s.cache != nil {
		if record, ok := s.cache.Get(ctx, ref); ok {
			return record, nil
		}
	}

	record, err := s.engine.Lookup(ctx, ref.ID, ref.Type)
	if err != nil {
		return nil, err
	}
	if record != nil && s.cache != nil {
		s.cache.Set(ctx, record)
	}
	return record, nil
}

func (s *Service) invalidate(ctx context.Context, refs ...trust.EntityRef) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, refs...)
	}
}

// trustError maps trust engine errors onto API errors
func trustError(err error) error {
	var verr *trust.ValidationError
	if errors.As(err, &verr) {
		return common.NewBadRequestError(verr.Error(), err)
	}
	return common.NewServiceUnavailableError("trust records are unavailable", err)
}

// ========================================
// SCAM WALL
// ========================================

// ListReports returns active reports newest first
func (s *Service) ListReports(ctx context.Context, filters ReportFilters) ([]*AdverseReport, int64, error) {
	filters.Limit = clampLimit(filters.Limit, defaultReportLimit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	reports, total, err := s.repo.ListReports(ctx, filters)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list reports", err)
	}
	return reports, total, nil
}

// GetReport returns one report
func (s *Service) GetReport(ctx context.Context, id uuid.UUID) (*AdverseReport, error) {
	report, err := s.repo.GetReport(ctx, id)
	if err != nil {
		return nil, common.NewInternalError("failed to get report", err)
	}
	if report == nil {
		return nil, common.NewNotFoundError("report not found", nil)
	}
	return report, nil
}

// VerifyReport records a community member's reaction to someone else's
// report. Reports whose disputes outweigh their support are marked disputed
// and drop out of entity checks until support catches up.
func (s *Service) VerifyReport(ctx context.Context, reportID, userID uuid.UUID, req *VerifyReportRequest) (*AdverseReport, error) {
	ctx, span := tracer.Start(ctx, "community.VerifyReport")
	defer span.End()

	if err := validation.ValidateStruct(req); err != nil {
		return nil, common.NewBadRequestError("validation failed: "+err.Error(), err)
	}
	vType := VerificationType(req.VerificationType)
	field, ok := counterFor(vType)
	if !ok {
		return nil, common.NewBadRequestError("unknown verification type", nil)
	}

	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID == userID {
		return nil, common.NewForbiddenError("you cannot verify your own report")
	}
	if report.Status == ReportResolved {
		return nil, common.NewConflictError("report is resolved")
	}

	verification := &ReportVerification{
		ID:               uuid.New(),
		ReportID:         reportID,
		UserID:           userID,
		VerificationType: vType,
		Comment:          req.Comment,
		CreatedAt:        s.now(),
	}
	previous := report.Status
	switch vType {
	case VerificationUpvote:
		report.Upvotes++
	case VerificationHappenedToMe:
		report.Corroborations++
	case VerificationDispute:
		report.Disputes++
	}
	next := disputeStatus(report)

	err = s.repo.WithTx(ctx, func(tx Repository) error {
		if err := tx.CreateReportVerification(ctx, verification); err != nil {
			return err
		}
		if err := tx.IncrementReportCounter(ctx, reportID, field); err != nil {
			return fmt.Errorf("increment %s: %w", field, err)
		}
		if next != previous {
			if err := tx.UpdateReportStatus(ctx, reportID, next); err != nil {
				return fmt.Errorf("update status: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateVerification) {
			return nil, common.NewConflictError(ErrDuplicateVerification.Error())
		}
		tracing.RecordError(span, err)
		return nil, common.NewInternalError("failed to record verification", err)
	}

	if next != previous {
		logger.WithContext(ctx).Info("report status changed",
			zap.String("report_id", reportID.String()),
			zap.String("from", string(previous)),
			zap.String("to", string(next)),
		)
		report.Status = next
	}
	report.UpdatedAt = verification.CreatedAt

	s.credit(ctx, userID, Contribution{Verifications: 1})
	return report, nil
}

// disputeStatus returns the status a report's counters call for
func disputeStatus(r *AdverseReport) ReportStatus {
	if r.Status == ReportResolved {
		return r.Status
	}
	if r.Disputes >= MinDisputes && r.Disputes > r.Upvotes+r.Corroborations {
		return ReportDisputed
	}
	return ReportActive
}

// AttachEvidence uploads a file for a report. Only the reporter may attach evidence.
func (s *Service) AttachEvidence(ctx context.Context, reportID, userID uuid.UUID, filename, contentType string, size int64, body io.Reader) (*storage.UploadResult, error) {
	ctx, span := tracer.Start(ctx, "community.AttachEvidence")
	defer span.End()

	if s.evidence == nil {
		return nil, common.NewServiceUnavailableError("evidence uploads are not available", nil)
	}

	report, err := s.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if report.ReporterID != userID {
		return nil, common.NewForbiddenError("only the reporter can attach evidence")
	}
	if len(report.EvidenceURLs) >= maxEvidenceFiles {
		return nil, common.NewBadRequestError(fmt.Sprintf("a report can hold at most %d evidence files", maxEvidenceFiles), nil)
	}

	filename = security.SanitizeFilename(filename)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = storage.GetMimeTypeFromExtension(filename)
	}
	if !storage.ValidateMimeType(contentType, storage.EvidenceTypes) {
		return nil, common.NewBadRequestError("evidence must be a JPEG, PNG or PDF file", nil)
	}
	if size <= 0 {
		return nil, common.NewBadRequestError("evidence file is empty", nil)
	}
	if s.maxEvidenceBytes > 0 && size > s.maxEvidenceBytes {
		return nil, common.NewBadRequestError(fmt.Sprintf("evidence file exceeds %d bytes", s.maxEvidenceBytes), nil)
	}

	key := storage.GenerateEvidenceKey(reportID, filename)
	result, err := s.evidence.Upload(ctx, key, body, size, contentType)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, common.NewServiceUnavailableError("failed to store evidence", err)
	}

	if err := s.repo.AppendEvidence(ctx, reportID, result.URL); err != nil {
		tracing.RecordError(span, err)
		if delErr := s.evidence.Delete(ctx, key); delErr != nil {
			logger.WithContext(ctx).Warn("failed to remove orphaned evidence", zap.String("key", key), zap.Error(delErr))
		}
		return nil, common.NewInternalError("failed to attach evidence", err)
	}

	logger.WithContext(ctx).Info("evidence attached",
		zap.String("report_id", reportID.String()),
		zap.String("key", key),
		zap.Int64("size", size),
	)
	return result, nil
}

// ========================================
// BUSINESS DIRECTORY
// ========================================

// AddBusinessListing adds a business to the community directory
func (s *Service) AddBusinessListing(ctx context.Context, ownerID uuid.UUID, req *CreateBusinessRequest) (*BusinessListing, error) {
	if err := validation.ValidateStruct(req); err != nil {
		return nil, common.NewBadRequestError("validation failed: "+err.Error(), err)
	}

	status := req.VerificationStatus
	if status == "" {
		status = ListingPending
	}

	now := s.now()
	listing := &BusinessListing{
		ID:                 uuid.New(),
		OwnerID:            ownerID,
		Name:               security.CleanText(req.Name, 0),
		Description:        security.CleanText(req.Description, 0),
		Category:           req.Category,
		Subcategory:        req.Subcategory,
		Location:           req.Location,
		PhoneNumber:        trust.Normalize(trust.EntityPhone, req.PhoneNumber),
		Email:              trust.Normalize(trust.EntityEmail, req.Email),
		Website:            req.Website,
		RegistrationNumber: req.RegistrationNumber,
		Services:           append([]string{}, req.Services...),
		VerificationStatus: status,
		VerifiedByOrg:      req.VerifiedByOrg,
		TrustScore:         trust.DefaultScore,
		IsStudentBusiness:  req.IsStudentBusiness,
		IsSME:              req.IsSME,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.repo.CreateBusinessListing(ctx, listing); err != nil {
		return nil, common.NewInternalError("failed to create business listing", err)
	}
	return listing, nil
}

// ListBusinessListings returns directory entries, most trusted first
func (s *Service) ListBusinessListings(ctx context.Context, filters BusinessFilters) ([]*BusinessListing, int64, error) {
	filters.Limit = clampLimit(filters.Limit, defaultReportLimit)
	if filters.Offset < 0 {
		filters.Offset = 0
	}

	listings, total, err := s.repo.ListBusinessListings(ctx, filters)
	if err != nil {
		return nil, 0, common.NewInternalError("failed to list businesses", err)
	}
	return listings, total, nil
}

func clampLimit(limit, def int) int {
	if limit <= 0 {
		return def
	}
	if limit > maxListLimit {
		return maxListLimit
	}
	return limit
}

// ========================================
// GAMIFICATION
// ========================================

// GetUserGamification returns a user's contribution profile. Users who have
// not contributed yet get an empty level 1 profile.
func (s *Service) GetUserGamification(ctx context.Context, userID uuid.UUID) (*UserGamification, error) {
	g, err := s.repo.GetGamification(ctx, userID)
	if err != nil {
		return nil, common.NewInternalError("failed to get gamification profile", err)
	}
	if g == nil {
		return newGamification(userID), nil
	}
	return g, nil
}

// credit adds c to a user's profile. Failures are logged and never fail the
// operation that earned the credit.
func (s *Service) credit(ctx context.Context, userID uuid.UUID, c Contribution) {
	if c.empty() || userID == uuid.Nil {
		return
	}

	log := logger.WithContext(ctx).With(zap.String("user_id", userID.String()))

	g, err := s.repo.GetGamification(ctx, userID)
	if err != nil {
		log.Warn("failed to load gamification profile", zap.Error(err))
		return
	}
	if g == nil {
		g = newGamification(userID)
	}

	before := g.Level
	g.apply(c, s.now())

	if err := s.repo.PutGamification(ctx, g); err != nil {
		log.Warn("failed to save gamification profile", zap.Error(err))
		return
	}
	if g.Level > before {
		log.Info("user levelled up", zap.Int("level", g.Level), zap.Int("points", g.Points))
	}
}

// ========================================
// EVENTS
// ========================================

func (s *Service) publishFlagged(ctx context.Context, record *trust.Record, report *AdverseReport) {
	s.publish(ctx, eventbus.SubjectEntityFlagged, eventbus.FlaggedEntity{
		EntityID:    record.EntityID,
		EntityType:  string(record.EntityType),
		TrustScore:  record.Score,
		ReportCount: record.ReportCount,
		ReportID:    report.ID.String(),
		ReporterID:  report.ReporterID.String(),
		FlaggedAt:   record.LastUpdated,
	})
}

// publish sends an event when a publisher is configured. Failures are logged.
func (s *Service) publish(ctx context.Context, subject string, payload interface{}) {
	if s.events == nil {
		return
	}

	evt, err := eventbus.NewEvent(subject, eventSource, payload)
	if err == nil {
		err = s.events.Publish(ctx, subject, evt)
	}
	if err != nil {
		logger.WithContext(ctx).Warn("failed to publish event", zap.String("subject", subject), zap.Error(err))
	}
}
