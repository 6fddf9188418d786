package trust

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) GetTrustRecord(ctx context.Context, entityID string, entityType EntityType) (*Record, error) {
	args := m.Called(ctx, entityID, entityType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Record), args.Error(1)
}

func (m *MockStore) PutTrustRecord(ctx context.Context, record *Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}
