package community

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/internal/trust"
	"github.com/richxcame/fraudshield/pkg/eventbus"
	"github.com/stretchr/testify/mock"
)

// ========================================
// MOCK REPOSITORY
// ========================================

type mockRepository struct {
	mock.Mock
}

func (m *mockRepository) GetTrustRecord(ctx context.Context, entityID string, entityType trust.EntityType) (*trust.Record, error) {
	args := m.Called(ctx, entityID, entityType)
	rec, _ := args.Get(0).(*trust.Record)
	return rec, args.Error(1)
}

func (m *mockRepository) PutTrustRecord(ctx context.Context, record *trust.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *mockRepository) WithTx(ctx context.Context, fn func(tx Repository) error) error {
	return fn(m)
}

func (m *mockRepository) CreateReport(ctx context.Context, report *AdverseReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

func (m *mockRepository) GetReport(ctx context.Context, id uuid.UUID) (*AdverseReport, error) {
	args := m.Called(ctx, id)
	rep, _ := args.Get(0).(*AdverseReport)
	return rep, args.Error(1)
}

func (m *mockRepository) ListReports(ctx context.Context, filters ReportFilters) ([]*AdverseReport, int64, error) {
	args := m.Called(ctx, filters)
	reps, _ := args.Get(0).([]*AdverseReport)
	return reps, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) QueryReports(ctx context.Context, refs []trust.EntityRef, limit int) ([]*AdverseReport, error) {
	args := m.Called(ctx, refs, limit)
	reps, _ := args.Get(0).([]*AdverseReport)
	return reps, args.Error(1)
}

func (m *mockRepository) IncrementReportCounter(ctx context.Context, reportID uuid.UUID, field string) error {
	args := m.Called(ctx, reportID, field)
	return args.Error(0)
}

func (m *mockRepository) UpdateReportStatus(ctx context.Context, reportID uuid.UUID, status ReportStatus) error {
	args := m.Called(ctx, reportID, status)
	return args.Error(0)
}

func (m *mockRepository) AppendEvidence(ctx context.Context, reportID uuid.UUID, url string) error {
	args := m.Called(ctx, reportID, url)
	return args.Error(0)
}

func (m *mockRepository) CreateReportVerification(ctx context.Context, v *ReportVerification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *mockRepository) CreateBusinessListing(ctx context.Context, listing *BusinessListing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *mockRepository) ListBusinessListings(ctx context.Context, filters BusinessFilters) ([]*BusinessListing, int64, error) {
	args := m.Called(ctx, filters)
	listings, _ := args.Get(0).([]*BusinessListing)
	return listings, args.Get(1).(int64), args.Error(2)
}

func (m *mockRepository) GetGamification(ctx context.Context, userID uuid.UUID) (*UserGamification, error) {
	args := m.Called(ctx, userID)
	g, _ := args.Get(0).(*UserGamification)
	return g, args.Error(1)
}

func (m *mockRepository) PutGamification(ctx context.Context, g *UserGamification) error {
	args := m.Called(ctx, g)
	return args.Error(0)
}

// ========================================
// FAKES
// ========================================

type recordingPublisher struct {
	mu     sync.Mutex
	events map[string][]*eventbus.Event
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{events: make(map[string][]*eventbus.Event)}
}

func (p *recordingPublisher) Publish(ctx context.Context, subject string, evt *eventbus.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events[subject] = append(p.events[subject], evt)
	return nil
}

func (p *recordingPublisher) on(subject string) []*eventbus.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.events[subject]
}

type countingCache struct {
	records     map[trust.EntityRef]trust.Record
	hits        int
	invalidated []trust.EntityRef
}

func newCountingCache() *countingCache {
	return &countingCache{records: make(map[trust.EntityRef]trust.Record)}
}

func (c *countingCache) Get(ctx context.Context, ref trust.EntityRef) (*trust.Record, bool) {
	rec, ok := c.records[ref]
	if !ok {
		return nil, false
	}
	c.hits++
	return &rec, true
}

func (c *countingCache) Set(ctx context.Context, rec *trust.Record) {
	c.records[trust.EntityRef{ID: rec.EntityID, Type: rec.EntityType}] = *rec
}

func (c *countingCache) Invalidate(ctx context.Context, refs ...trust.EntityRef) {
	for _, ref := range refs {
		delete(c.records, ref)
	}
	c.invalidated = append(c.invalidated, refs...)
}
