package trust

import "context"

// Store persists trust records. GetTrustRecord returns (nil, nil) when no
// record exists.
type Store interface {
	GetTrustRecord(ctx context.Context, entityID string, entityType EntityType) (*Record, error)
	PutTrustRecord(ctx context.Context, record *Record) error
}
