package trust

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestEngine(store Store) *Engine {
	e := NewEngine(store)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestEngine_GetOrCreate_UnknownEntityIsNotPersisted(t *testing.T) {
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "0821234567", EntityPhone).Return(nil, nil)

	record, err := newTestEngine(store).GetOrCreate(context.Background(), "0821234567", EntityPhone)

	require.NoError(t, err)
	assert.Equal(t, DefaultScore, record.Score)
	assert.Equal(t, BadgeUnverified, record.Badge)
	assert.Zero(t, record.ReportCount)
	store.AssertNotCalled(t, "PutTrustRecord", mock.Anything, mock.Anything)
}

func TestEngine_Lookup_UnknownReturnsNil(t *testing.T) {
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "nobody.co.za", EntityDomain).Return(nil, nil)

	record, err := newTestEngine(store).Lookup(context.Background(), "nobody.co.za", EntityDomain)

	require.NoError(t, err)
	assert.Nil(t, record)
}

func TestEngine_Lookup_RejectsUnknownType(t *testing.T) {
	_, err := newTestEngine(new(MockStore)).Lookup(context.Background(), "x", EntityType("iban"))

	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestEngine_ApplyDelta_Report(t *testing.T) {
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "scam@fake.co", EntityEmail).Return(nil, nil)
	store.On("PutTrustRecord", mock.Anything, mock.MatchedBy(func(r *Record) bool {
		return r.EntityID == "scam@fake.co" && r.ReportCount == 1 && r.Score == 35 && r.Badge == BadgeUnderWatch
	})).Return(nil)

	record, err := newTestEngine(store).ApplyDelta(context.Background(), "scam@fake.co", EntityEmail, Delta{Reports: 1})

	require.NoError(t, err)
	assert.Equal(t, 35, record.Score)
	assert.Equal(t, BadgeUnderWatch, record.Badge)
	assert.Equal(t, fixedNow, record.LastUpdated)
	store.AssertExpectations(t)
}

func TestEngine_ApplyDelta_ThirdReportFlags(t *testing.T) {
	existing := &Record{
		EntityID:    "0821234567",
		EntityType:  EntityPhone,
		Score:       20,
		ReportCount: 2,
		Badge:       BadgeUnderWatch,
	}
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "0821234567", EntityPhone).Return(existing, nil)
	store.On("PutTrustRecord", mock.Anything, mock.Anything).Return(nil)

	record, err := newTestEngine(store).ApplyDelta(context.Background(), "0821234567", EntityPhone, Delta{Reports: 1})

	require.NoError(t, err)
	assert.Equal(t, 3, record.ReportCount)
	assert.Equal(t, 10, record.Score)
	assert.Equal(t, BadgeFlagged, record.Badge)
}

func TestEngine_ApplyDelta_VerificationsReachVerified(t *testing.T) {
	existing := &Record{
		EntityID:                   "acme.co.za",
		EntityType:                 EntityDomain,
		VerificationCount:          2,
		SuccessfulTransactionCount: 5,
	}
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "acme.co.za", EntityDomain).Return(existing, nil)
	store.On("PutTrustRecord", mock.Anything, mock.Anything).Return(nil)

	record, err := newTestEngine(store).ApplyDelta(context.Background(), "acme.co.za", EntityDomain, Delta{Verifications: 1})

	require.NoError(t, err)
	assert.Equal(t, 75, record.Score)
	assert.Equal(t, BadgeVerified, record.Badge)
}

func TestEngine_ApplyDelta_NegativeRejected(t *testing.T) {
	store := new(MockStore)

	_, err := newTestEngine(store).ApplyDelta(context.Background(), "x", EntityPhone, Delta{Reports: -1})

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	store.AssertNotCalled(t, "GetTrustRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestEngine_StorageErrors(t *testing.T) {
	dbErr := errors.New("connection refused")

	t.Run("read", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetTrustRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil, dbErr)

		_, err := newTestEngine(store).ApplyDelta(context.Background(), "x", EntityPhone, Delta{Reports: 1})

		var sErr *StorageError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, "get", sErr.Op)
		assert.ErrorIs(t, err, dbErr)
	})

	t.Run("write", func(t *testing.T) {
		store := new(MockStore)
		store.On("GetTrustRecord", mock.Anything, mock.Anything, mock.Anything).Return(nil, nil)
		store.On("PutTrustRecord", mock.Anything, mock.Anything).Return(dbErr).Once()

		_, err := newTestEngine(store).ApplyDelta(context.Background(), "x", EntityPhone, Delta{Reports: 1})

		var sErr *StorageError
		require.ErrorAs(t, err, &sErr)
		assert.Equal(t, "put", sErr.Op)
		store.AssertNumberOfCalls(t, "PutTrustRecord", 1)
	})
}

func TestEngine_Apply_ReportsPreviousBadge(t *testing.T) {
	existing := &Record{EntityID: "scam@fake.co", EntityType: EntityEmail, Score: 20, ReportCount: 2, Badge: BadgeUnderWatch}
	store := new(MockStore)
	store.On("GetTrustRecord", mock.Anything, "scam@fake.co", EntityEmail).Return(existing, nil)
	store.On("PutTrustRecord", mock.Anything, mock.Anything).Return(nil)

	change, err := newTestEngine(store).Apply(context.Background(), "scam@fake.co", EntityEmail, Delta{Reports: 1})

	require.NoError(t, err)
	assert.Equal(t, BadgeUnderWatch, change.PreviousBadge)
	assert.Equal(t, BadgeFlagged, change.Record.Badge)
	assert.True(t, change.BecameFlagged())

	already := &Change{Record: &Record{Badge: BadgeFlagged}, PreviousBadge: BadgeFlagged}
	assert.False(t, already.BecameFlagged())
}

func TestEngine_WithStore_KeepsClock(t *testing.T) {
	original := new(MockStore)
	other := new(MockStore)
	other.On("GetTrustRecord", mock.Anything, "0821234567", EntityPhone).Return(nil, nil)
	other.On("PutTrustRecord", mock.Anything, mock.Anything).Return(nil)

	rec, err := newTestEngine(original).WithStore(other).ApplyDelta(context.Background(), "0821234567", EntityPhone, Delta{Verifications: 1})

	require.NoError(t, err)
	assert.Equal(t, fixedNow, rec.LastUpdated)
	other.AssertExpectations(t)
	original.AssertNotCalled(t, "PutTrustRecord", mock.Anything, mock.Anything)
}
