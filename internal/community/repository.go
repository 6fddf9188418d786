package community

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/richxcame/fraudshield/internal/trust"
)

const uniqueViolation = "23505"

// querier is satisfied by both *pgxpool.Pool and pgx.Tx
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores community data in PostgreSQL
type PostgresRepository struct {
	pool *pgxpool.Pool // nil inside a transaction
	db   querier
}

var _ Repository = (*PostgresRepository)(nil)

// NewPostgresRepository creates a repository on pool
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool, db: pool}
}

// WithTx runs fn against a repository bound to one transaction and commits
// when fn succeeds. Nested calls reuse the open transaction.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	if r.pool == nil {
		return fn(r)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(&PostgresRepository{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// ========================================
// TRUST RECORDS
// ========================================

// GetTrustRecord loads one trust record
func (r *PostgresRepository) GetTrustRecord(ctx context.Context, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	query := `
		SELECT entity_id, entity_type, score, verification_count, report_count,
		       successful_transaction_count, badge, last_updated
		FROM trust_records
		WHERE entity_id = $1 AND entity_type = $2
	`

	rec := &trust.Record{}
	err := r.db.QueryRow(ctx, query, entityID, entityType).Scan(
		&rec.EntityID, &rec.EntityType, &rec.Score, &rec.VerificationCount, &rec.ReportCount,
		&rec.SuccessfulTransactionCount, &rec.Badge, &rec.LastUpdated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// PutTrustRecord upserts a trust record
func (r *PostgresRepository) PutTrustRecord(ctx context.Context, rec *trust.Record) error {
	query := `
		INSERT INTO trust_records (
			entity_id, entity_type, score, verification_count, report_count,
			successful_transaction_count, badge, last_updated
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (entity_id, entity_type) DO UPDATE SET
			score = EXCLUDED.score,
			verification_count = EXCLUDED.verification_count,
			report_count = EXCLUDED.report_count,
			successful_transaction_count = EXCLUDED.successful_transaction_count,
			badge = EXCLUDED.badge,
			last_updated = EXCLUDED.last_updated
	`

	_, err := r.db.Exec(ctx, query,
		rec.EntityID, rec.EntityType, rec.Score, rec.VerificationCount, rec.ReportCount,
		rec.SuccessfulTransactionCount, rec.Badge, rec.LastUpdated,
	)
	return err
}

// ========================================
// ADVERSE REPORTS
// ========================================

const reportColumns = `
	id, reporter_id, title, description, scam_type, category, location, risk_level,
	phone_number, email, domain, company_name, amount_lost, evidence_urls,
	upvotes, corroborations, disputes, status, created_at, updated_at
`

func scanReport(row pgx.Row) (*AdverseReport, error) {
	rep := &AdverseReport{}
	err := row.Scan(
		&rep.ID, &rep.ReporterID, &rep.Title, &rep.Description, &rep.ScamType, &rep.Category,
		&rep.Location, &rep.RiskLevel, &rep.PhoneNumber, &rep.Email, &rep.Domain, &rep.CompanyName,
		&rep.AmountLost, &rep.EvidenceURLs, &rep.Upvotes, &rep.Corroborations, &rep.Disputes,
		&rep.Status, &rep.CreatedAt, &rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if rep.EvidenceURLs == nil {
		rep.EvidenceURLs = []string{}
	}
	return rep, nil
}

func collectReports(rows pgx.Rows) ([]*AdverseReport, error) {
	defer rows.Close()

	reports := make([]*AdverseReport, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, rep)
	}
	return reports, rows.Err()
}

// CreateReport inserts a new report
func (r *PostgresRepository) CreateReport(ctx context.Context, rep *AdverseReport) error {
	query := `INSERT INTO adverse_reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)`

	_, err := r.db.Exec(ctx, query,
		rep.ID, rep.ReporterID, rep.Title, rep.Description, rep.ScamType, rep.Category,
		rep.Location, rep.RiskLevel, rep.PhoneNumber, rep.Email, rep.Domain, rep.CompanyName,
		rep.AmountLost, rep.EvidenceURLs, rep.Upvotes, rep.Corroborations, rep.Disputes,
		rep.Status, rep.CreatedAt, rep.UpdatedAt,
	)
	return err
}

// GetReport loads a report by ID
func (r *PostgresRepository) GetReport(ctx context.Context, id uuid.UUID) (*AdverseReport, error) {
	rep, err := scanReport(r.db.QueryRow(ctx, `SELECT `+reportColumns+` FROM adverse_reports WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	return rep, err
}

// ListReports returns active reports matching filters, newest first, with the total count
func (r *PostgresRepository) ListReports(ctx context.Context, f ReportFilters) ([]*AdverseReport, int64, error) {
	where := []string{"status = 'active'"}
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.ScamType != "" {
		add("scam_type = $%d", f.ScamType)
	}
	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", f.Location)
	}
	if f.RiskLevel > 0 {
		add("risk_level = $%d", f.RiskLevel)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM adverse_reports WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM adverse_reports WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		reportColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	reports, err := collectReports(rows)
	return reports, total, err
}

// QueryReports returns active reports naming any of refs
func (r *PostgresRepository) QueryReports(ctx context.Context, refs []trust.EntityRef, limit int) ([]*AdverseReport, error) {
	if len(refs) == 0 {
		return []*AdverseReport{}, nil
	}

	var (
		ors  []string
		args []interface{}
	)
	for _, ref := range refs {
		column, ok := entityColumn(ref.Type)
		if !ok {
			continue
		}
		args = append(args, ref.ID)
		ors = append(ors, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if len(ors) == 0 {
		return []*AdverseReport{}, nil
	}

	args = append(args, limit)
	query := fmt.Sprintf(`SELECT %s FROM adverse_reports
		WHERE status = 'active' AND (%s)
		ORDER BY created_at DESC
		LIMIT $%d`, reportColumns, strings.Join(ors, " OR "), len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return collectReports(rows)
}

func entityColumn(t trust.EntityType) (string, bool) {
	switch t {
	case trust.EntityPhone:
		return "phone_number", true
	case trust.EntityEmail:
		return "email", true
	case trust.EntityDomain:
		return "domain", true
	case trust.EntityCompany:
		return "company_name", true
	}
	return "", false
}

// IncrementReportCounter adds one to upvotes, corroborations or disputes
func (r *PostgresRepository) IncrementReportCounter(ctx context.Context, reportID uuid.UUID, field string) error {
	switch field {
	case CounterUpvotes, CounterCorroborations, CounterDisputes:
	default:
		return fmt.Errorf("unknown report counter %q", field)
	}

	// field is whitelisted above
	query := fmt.Sprintf(`UPDATE adverse_reports SET %[1]s = %[1]s + 1, updated_at = $2 WHERE id = $1`, field)
	tag, err := r.db.Exec(ctx, query, reportID, time.Now())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateReportStatus sets a report's moderation status
func (r *PostgresRepository) UpdateReportStatus(ctx context.Context, reportID uuid.UUID, status ReportStatus) error {
	_, err := r.db.Exec(ctx,
		`UPDATE adverse_reports SET status = $2, updated_at = $3 WHERE id = $1`,
		reportID, status, time.Now())
	return err
}

// AppendEvidence adds an evidence URL to a report
func (r *PostgresRepository) AppendEvidence(ctx context.Context, reportID uuid.UUID, url string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE adverse_reports SET evidence_urls = array_append(evidence_urls, $2), updated_at = $3 WHERE id = $1`,
		reportID, url, time.Now())
	return err
}

// CreateReportVerification records a reaction. A repeat of the same reaction
// by the same user returns ErrDuplicateVerification.
func (r *PostgresRepository) CreateReportVerification(ctx context.Context, v *ReportVerification) error {
	query := `
		INSERT INTO report_verifications (id, report_id, user_id, verification_type, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.Exec(ctx, query, v.ID, v.ReportID, v.UserID, v.VerificationType, v.Comment, v.CreatedAt)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateVerification
	}
	return err
}

// ========================================
// BUSINESS DIRECTORY
// ========================================

const listingColumns = `
	id, owner_id, name, description, category, subcategory, location, phone_number, email,
	website, registration_number, services, verification_status, verified_by_org, trust_score,
	is_student_business, is_sme, created_at, updated_at
`

// CreateBusinessListing inserts a directory entry
func (r *PostgresRepository) CreateBusinessListing(ctx context.Context, l *BusinessListing) error {
	query := `INSERT INTO business_listings (` + listingColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`

	_, err := r.db.Exec(ctx, query,
		l.ID, l.OwnerID, l.Name, l.Description, l.Category, l.Subcategory, l.Location, l.PhoneNumber, l.Email,
		l.Website, l.RegistrationNumber, l.Services, l.VerificationStatus, l.VerifiedByOrg, l.TrustScore,
		l.IsStudentBusiness, l.IsSME, l.CreatedAt, l.UpdatedAt,
	)
	return err
}

// ListBusinessListings returns listings matching filters, highest trust first
func (r *PostgresRepository) ListBusinessListings(ctx context.Context, f BusinessFilters) ([]*BusinessListing, int64, error) {
	where := []string{"TRUE"}
	var args []interface{}
	add := func(clause string, v interface{}) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(clause, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Location != "" {
		add("location ILIKE '%%' || $%d || '%%'", f.Location)
	}
	if f.VerificationStatus != "" {
		add("verification_status = $%d", f.VerificationStatus)
	}
	if f.IsStudentBusiness != nil {
		add("is_student_business = $%d", *f.IsStudentBusiness)
	}
	if f.VerifiedByOrg != "" {
		add("verified_by_org = $%d", f.VerifiedByOrg)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM business_listings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM business_listings WHERE %s
		ORDER BY trust_score DESC, created_at DESC LIMIT $%d OFFSET $%d`,
		listingColumns, cond, len(args)-1, len(args))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	listings := make([]*BusinessListing, 0)
	for rows.Next() {
		l := &BusinessListing{}
		if err := rows.Scan(
			&l.ID, &l.OwnerID, &l.Name, &l.Description, &l.Category, &l.Subcategory, &l.Location, &l.PhoneNumber, &l.Email,
			&l.Website, &l.RegistrationNumber, &l.Services, &l.VerificationStatus, &l.VerifiedByOrg, &l.TrustScore,
			&l.IsStudentBusiness, &l.IsSME, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		if l.Services == nil {
			l.Services = []string{}
		}
		listings = append(listings, l)
	}
	return listings, total, rows.Err()
}

// ========================================
// GAMIFICATION
// ========================================

// GetGamification loads a user's contribution profile
func (r *PostgresRepository) GetGamification(ctx context.Context, userID uuid.UUID) (*UserGamification, error) {
	query := `
		SELECT user_id, reports_submitted, verifications_made, businesses_verified, fraud_catches,
		       points, level, badges, updated_at
		FROM user_gamification
		WHERE user_id = $1
	`

	g := &UserGamification{}
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&g.UserID, &g.ReportsSubmitted, &g.VerificationsMade, &g.BusinessesVerified, &g.FraudCatches,
		&g.Points, &g.Level, &g.Badges, &g.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if g.Badges == nil {
		g.Badges = []string{}
	}
	return g, nil
}

// PutGamification upserts a user's contribution profile
func (r *PostgresRepository) PutGamification(ctx context.Context, g *UserGamification) error {
	query := `
		INSERT INTO user_gamification (
			user_id, reports_submitted, verifications_made, businesses_verified, fraud_catches,
			points, level, badges, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (user_id) DO UPDATE SET
			reports_submitted = EXCLUDED.reports_submitted,
			verifications_made = EXCLUDED.verifications_made,
			businesses_verified = EXCLUDED.businesses_verified,
			fraud_catches = EXCLUDED.fraud_catches,
			points = EXCLUDED.points,
			level = EXCLUDED.level,
			badges = EXCLUDED.badges,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.Exec(ctx, query,
		g.UserID, g.ReportsSubmitted, g.VerificationsMade, g.BusinessesVerified, g.FraudCatches,
		g.Points, g.Level, g.Badges, g.UpdatedAt,
	)
	return err
}
