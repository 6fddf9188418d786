package jwtkeys

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// ErrKeyNotFound is returned when no usable verification key matches a kid.
var ErrKeyNotFound = errors.New("jwt verification key not found")

// SigningKey is an HMAC key published by the identity service.
type SigningKey struct {
	ID        string    `json:"id"`
	Secret    string    `json:"secret"` // base64
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
	Revoked   bool      `json:"revoked"`
}

// SecretBytes decodes the key material.
func (k SigningKey) SecretBytes() ([]byte, error) {
	return base64.StdEncoding.DecodeString(k.Secret)
}

func (k SigningKey) usable(now time.Time) bool {
	return !k.Revoked && (k.ExpiresAt.IsZero() || now.Before(k.ExpiresAt))
}

// KeyProvider resolves the secret a token was signed with.
type KeyProvider interface {
	ResolveKey(kid string) ([]byte, error)
	LegacyKey() []byte
}

// Store loads the published key set.
type Store interface {
	Load(ctx context.Context) ([]SigningKey, error)
}

// StaticProvider verifies every token with one shared secret.
type StaticProvider struct {
	secret []byte
}

// NewStaticProvider creates a provider for a single HS256 secret.
func NewStaticProvider(secret string) *StaticProvider {
	return &StaticProvider{secret: []byte(secret)}
}

func (p *StaticProvider) ResolveKey(string) ([]byte, error) {
	if len(p.secret) == 0 {
		return nil, ErrKeyNotFound
	}
	return p.secret, nil
}

func (p *StaticProvider) LegacyKey() []byte {
	return p.secret
}

// KeySet is a read-only view of keys rotated by the identity service.
type KeySet struct {
	store  Store
	legacy []byte
	now    func() time.Time

	mu   sync.RWMutex
	keys map[string]SigningKey
}

// NewKeySet loads keys from store. legacySecret verifies tokens without a kid.
func NewKeySet(ctx context.Context, store Store, legacySecret string) (*KeySet, error) {
	ks := &KeySet{
		store:  store,
		legacy: []byte(legacySecret),
		now:    time.Now,
		keys:   map[string]SigningKey{},
	}
	if err := ks.Refresh(ctx); err != nil {
		return nil, err
	}
	return ks, nil
}

// Refresh reloads keys from the store.
func (ks *KeySet) Refresh(ctx context.Context) error {
	keys, err := ks.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load jwt keys: %w", err)
	}

	next := make(map[string]SigningKey, len(keys))
	for _, k := range keys {
		next[k.ID] = k
	}

	ks.mu.Lock()
	ks.keys = next
	ks.mu.Unlock()

	logger.Debug("jwt keys loaded", zap.Int("count", len(next)))
	return nil
}

func (ks *KeySet) ResolveKey(kid string) ([]byte, error) {
	if kid == "" {
		return nil, ErrKeyNotFound
	}

	ks.mu.RLock()
	k, ok := ks.keys[kid]
	ks.mu.RUnlock()

	if !ok || !k.usable(ks.now()) {
		return nil, ErrKeyNotFound
	}
	return k.SecretBytes()
}

func (ks *KeySet) LegacyKey() []byte {
	return ks.legacy
}

// NewProviderFromConfig returns a Vault-backed key set when a key path is
// configured, otherwise a static provider on the shared secret.
func NewProviderFromConfig(ctx context.Context, jwtCfg config.JWTConfig, secretsCfg config.SecretsConfig) (KeyProvider, error) {
	if jwtCfg.VaultPath == "" || secretsCfg.VaultAddress == "" || secretsCfg.VaultToken == "" {
		return NewStaticProvider(jwtCfg.Secret), nil
	}

	store, err := newVaultStore(VaultConfig{
		Address:   secretsCfg.VaultAddress,
		Token:     secretsCfg.VaultToken,
		Path:      jwtCfg.VaultPath,
		Namespace: secretsCfg.VaultNamespace,
	})
	if err != nil {
		return nil, err
	}
	return NewKeySet(ctx, store, jwtCfg.Secret)
}
