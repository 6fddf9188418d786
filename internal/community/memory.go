package community

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/richxcame/fraudshield/internal/trust"
)

// MemoryRepository keeps community data in process memory. It backs the
// memory store driver and the service tests.
type MemoryRepository struct {
	txMu          sync.Mutex
	mu            sync.RWMutex
	records       map[trust.EntityRef]trust.Record
	reports       map[uuid.UUID]*AdverseReport
	verifications map[string]*ReportVerification
	listings      []*BusinessListing
	gamification  map[uuid.UUID]UserGamification
}

var _ Repository = (*MemoryRepository)(nil)

// NewMemoryRepository creates an empty in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		records:       make(map[trust.EntityRef]trust.Record),
		reports:       make(map[uuid.UUID]*AdverseReport),
		verifications: make(map[string]*ReportVerification),
		gamification:  make(map[uuid.UUID]UserGamification),
	}
}

// WithTx serializes transactions and restores the state held before fn
// when fn fails
func (m *MemoryRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	snap := m.snapshot()
	if err := fn(memoryTx{m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

// memoryTx is the repository handed to WithTx callbacks
type memoryTx struct {
	*MemoryRepository
}

func (t memoryTx) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	return fn(t)
}

type memorySnapshot struct {
	records       map[trust.EntityRef]trust.Record
	reports       map[uuid.UUID]*AdverseReport
	verifications map[string]*ReportVerification
	listings      []*BusinessListing
	gamification  map[uuid.UUID]UserGamification
}

func (m *MemoryRepository) snapshot() memorySnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := memorySnapshot{
		records:       make(map[trust.EntityRef]trust.Record, len(m.records)),
		reports:       make(map[uuid.UUID]*AdverseReport, len(m.reports)),
		verifications: make(map[string]*ReportVerification, len(m.verifications)),
		listings:      append([]*BusinessListing{}, m.listings...),
		gamification:  make(map[uuid.UUID]UserGamification, len(m.gamification)),
	}
	for k, v := range m.records {
		snap.records[k] = v
	}
	for k, v := range m.reports {
		snap.reports[k] = copyReport(v)
	}
	for k, v := range m.verifications {
		snap.verifications[k] = v
	}
	for k, v := range m.gamification {
		snap.gamification[k] = v
	}
	return snap
}

func (m *MemoryRepository) restore(snap memorySnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records = snap.records
	m.reports = snap.reports
	m.verifications = snap.verifications
	m.listings = snap.listings
	m.gamification = snap.gamification
}

func (m *MemoryRepository) GetTrustRecord(ctx context.Context, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[trust.EntityRef{ID: entityID, Type: entityType}]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryRepository) PutTrustRecord(ctx context.Context, rec *trust.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.records[trust.EntityRef{ID: rec.EntityID, Type: rec.EntityType}] = *rec
	return nil
}

func copyReport(r *AdverseReport) *AdverseReport {
	c := *r
	c.EvidenceURLs = append([]string{}, r.EvidenceURLs...)
	return &c
}

func (m *MemoryRepository) CreateReport(ctx context.Context, rep *AdverseReport) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.reports[rep.ID]; exists {
		return fmt.Errorf("report %s already exists", rep.ID)
	}
	m.reports[rep.ID] = copyReport(rep)
	return nil
}

func (m *MemoryRepository) GetReport(ctx context.Context, id uuid.UUID) (*AdverseReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rep, ok := m.reports[id]
	if !ok {
		return nil, nil
	}
	return copyReport(rep), nil
}

// activeNewestFirst returns copies of active reports accepted by keep, newest first
func (m *MemoryRepository) activeNewestFirst(keep func(*AdverseReport) bool) []*AdverseReport {
	out := make([]*AdverseReport, 0)
	for _, rep := range m.reports {
		if rep.Status == ReportActive && keep(rep) {
			out = append(out, copyReport(rep))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

func (m *MemoryRepository) ListReports(ctx context.Context, f ReportFilters) ([]*AdverseReport, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := m.activeNewestFirst(func(r *AdverseReport) bool {
		if f.Category != "" && string(r.Category) != f.Category {
			return false
		}
		if f.ScamType != "" && string(r.ScamType) != f.ScamType {
			return false
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(r.Location), strings.ToLower(f.Location)) {
			return false
		}
		if f.RiskLevel > 0 && r.RiskLevel != f.RiskLevel {
			return false
		}
		return true
	})
	return page(matches, f.Limit, f.Offset), int64(len(matches)), nil
}

func (m *MemoryRepository) QueryReports(ctx context.Context, refs []trust.EntityRef, limit int) ([]*AdverseReport, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(refs) == 0 {
		return []*AdverseReport{}, nil
	}
	matches := m.activeNewestFirst(func(r *AdverseReport) bool {
		for _, own := range r.EntityRefs() {
			for _, want := range refs {
				if own == want {
					return true
				}
			}
		}
		return false
	})
	return page(matches, limit, 0), nil
}

func (m *MemoryRepository) IncrementReportCounter(ctx context.Context, reportID uuid.UUID, field string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rep, ok := m.reports[reportID]
	if !ok {
		return pgx.ErrNoRows
	}
	switch field {
	case CounterUpvotes:
		rep.Upvotes++
	case CounterCorroborations:
		rep.Corroborations++
	case CounterDisputes:
		rep.Disputes++
	default:
		return fmt.Errorf("unknown report counter %q", field)
	}
	rep.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) UpdateReportStatus(ctx context.Context, reportID uuid.UUID, status ReportStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rep, ok := m.reports[reportID]
	if !ok {
		return pgx.ErrNoRows
	}
	rep.Status = status
	rep.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) AppendEvidence(ctx context.Context, reportID uuid.UUID, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rep, ok := m.reports[reportID]
	if !ok {
		return pgx.ErrNoRows
	}
	rep.EvidenceURLs = append(rep.EvidenceURLs, url)
	rep.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryRepository) CreateReportVerification(ctx context.Context, v *ReportVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := fmt.Sprintf("%s/%s/%s", v.ReportID, v.UserID, v.VerificationType)
	if _, exists := m.verifications[key]; exists {
		return ErrDuplicateVerification
	}
	c := *v
	m.verifications[key] = &c
	return nil
}

func (m *MemoryRepository) CreateBusinessListing(ctx context.Context, l *BusinessListing) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *l
	c.Services = append([]string{}, l.Services...)
	m.listings = append(m.listings, &c)
	return nil
}

func (m *MemoryRepository) ListBusinessListings(ctx context.Context, f BusinessFilters) ([]*BusinessListing, int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]*BusinessListing, 0)
	for _, l := range m.listings {
		if f.Category != "" && l.Category != f.Category {
			continue
		}
		if f.Location != "" && !strings.Contains(strings.ToLower(l.Location), strings.ToLower(f.Location)) {
			continue
		}
		if f.VerificationStatus != "" && l.VerificationStatus != f.VerificationStatus {
			continue
		}
		if f.IsStudentBusiness != nil && l.IsStudentBusiness != *f.IsStudentBusiness {
			continue
		}
		if f.VerifiedByOrg != "" && l.VerifiedByOrg != f.VerifiedByOrg {
			continue
		}
		c := *l
		matches = append(matches, &c)
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].TrustScore != matches[j].TrustScore {
			return matches[i].TrustScore > matches[j].TrustScore
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})
	return page(matches, f.Limit, f.Offset), int64(len(matches)), nil
}

func (m *MemoryRepository) GetGamification(ctx context.Context, userID uuid.UUID) (*UserGamification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	g, ok := m.gamification[userID]
	if !ok {
		return nil, nil
	}
	g.Badges = append([]string{}, g.Badges...)
	return &g, nil
}

func (m *MemoryRepository) PutGamification(ctx context.Context, g *UserGamification) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	c := *g
	c.Badges = append([]string{}, g.Badges...)
	m.gamification[g.UserID] = c
	return nil
}
