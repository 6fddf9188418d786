package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/logger"
	"go.uber.org/zap"
)

// ProviderType enumerates supported secret backends.
type ProviderType string

const (
	ProviderNone  ProviderType = ""
	ProviderVault ProviderType = "vault"
	ProviderAWS   ProviderType = "aws"
)

// SecretType classifies a secret for audit logs.
type SecretType string

const (
	SecretProviderAPIKey SecretType = "provider_api_key"
	SecretTwilio         SecretType = "twilio_credentials"
	SecretJWTKeys        SecretType = "jwt_verification_keys"
	SecretCustom         SecretType = "custom"
)

var (
	// ErrProviderNotConfigured is returned when no provider is configured.
	ErrProviderNotConfigured = errors.New("secrets: provider not configured")
	// ErrInvalidReference indicates an invalid or empty reference string.
	ErrInvalidReference = errors.New("secrets: invalid reference")
	// ErrKeyNotFound is returned when a requested key does not exist in the secret payload.
	ErrKeyNotFound = errors.New("secrets: key not found")
)

// Reference locates a secret within a provider.
type Reference struct {
	Name     string // used only in logs
	Path     string
	Mount    string // vault mount override
	Key      string // single entry within the payload
	Version  string
	Provider ProviderType
	Type     SecretType
}

// CacheKey returns the cache identifier for the reference.
func (r Reference) CacheKey() string {
	var sb strings.Builder
	if r.Mount != "" {
		sb.WriteString(r.Mount)
		sb.WriteString("|")
	}
	sb.WriteString(r.Path)
	if r.Version != "" {
		sb.WriteString("@")
		sb.WriteString(r.Version)
	}
	return sb.String()
}

// ParseReference parses [provider://][mount::]path[@version][#key].
func ParseReference(name string, secretType SecretType, raw string) (Reference, error) {
	ref := Reference{Name: name, Type: secretType}

	clean := strings.TrimSpace(raw)
	if clean == "" {
		return ref, ErrInvalidReference
	}

	if p, rest, ok := strings.Cut(clean, "://"); ok && p != "" {
		ref.Provider = ProviderType(p)
		clean = rest
	}
	if rest, key, ok := strings.Cut(clean, "#"); ok {
		ref.Key = strings.TrimSpace(key)
		clean = strings.TrimSpace(rest)
	}
	if rest, version, ok := strings.Cut(clean, "@"); ok {
		ref.Version = strings.TrimSpace(version)
		clean = strings.TrimSpace(rest)
	}

	clean = strings.Trim(clean, "/")
	if mount, path, ok := strings.Cut(clean, "::"); ok {
		ref.Mount = strings.TrimSpace(mount)
		clean = path
	}

	ref.Path = strings.Trim(clean, "/")
	if ref.Path == "" {
		return ref, ErrInvalidReference
	}
	return ref, nil
}

// Metadata carries provider-specific metadata about a secret.
type Metadata struct {
	Version     string
	CreatedAt   time.Time
	RetrievedAt time.Time
}

// Secret is a resolved secret payload.
type Secret struct {
	Data     map[string]string
	Metadata Metadata
}

// Value returns a non-empty entry from the payload.
func (s Secret) Value(key string) (string, bool) {
	val, ok := s.Data[key]
	return val, ok && val != ""
}

// Manager resolves secrets from the configured backend.
type Manager interface {
	GetSecret(ctx context.Context, ref Reference) (Secret, error)
	GetString(ctx context.Context, ref Reference) (string, error)
}

type provider interface {
	Name() ProviderType
	Fetch(ctx context.Context, ref Reference) (Secret, error)
}

type manager struct {
	provider     provider
	cache        *cache.Cache
	auditEnabled bool
}

// NewManager creates a Manager for the configured backend. It returns
// ErrProviderNotConfigured when no backend is selected.
func NewManager(ctx context.Context, cfg config.SecretsConfig) (Manager, error) {
	var (
		prov provider
		err  error
	)

	switch ProviderType(cfg.Provider) {
	case ProviderNone:
		return nil, ErrProviderNotConfigured
	case ProviderVault:
		prov, err = newVaultProvider(VaultConfig{
			Address:   cfg.VaultAddress,
			Token:     cfg.VaultToken,
			Namespace: cfg.VaultNamespace,
			MountPath: cfg.VaultMountPath,
		})
	case ProviderAWS:
		prov, err = newAWSProvider(ctx, AWSConfig{Region: cfg.AWSRegion, Endpoint: cfg.AWSEndpoint})
	default:
		err = fmt.Errorf("secrets: unsupported provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	ttl := time.Duration(cfg.CacheTTLSeconds) * time.Second
	return newManager(prov, ttl, cfg.AuditEnabled), nil
}

func newManager(prov provider, ttl time.Duration, audit bool) *manager {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &manager{
		provider:     prov,
		cache:        cache.New(ttl, 2*ttl),
		auditEnabled: audit,
	}
}

// GetSecret resolves the full payload for ref.
func (m *manager) GetSecret(ctx context.Context, ref Reference) (Secret, error) {
	if ref.Path == "" {
		return Secret{}, ErrInvalidReference
	}
	if ref.Provider != ProviderNone && ref.Provider != m.provider.Name() {
		return Secret{}, fmt.Errorf("secrets: reference provider %q does not match manager provider %q", ref.Provider, m.provider.Name())
	}

	if cached, ok := m.cache.Get(ref.CacheKey()); ok {
		return cloneSecret(cached.(Secret)), nil
	}

	secret, err := m.provider.Fetch(ctx, ref)
	if err != nil {
		m.audit(ref, Metadata{}, err)
		return Secret{}, err
	}
	secret.Metadata.RetrievedAt = time.Now().UTC()

	m.cache.SetDefault(ref.CacheKey(), cloneSecret(secret))
	m.audit(ref, secret.Metadata, nil)
	return secret, nil
}

// GetString returns ref.Key from the referenced secret.
func (m *manager) GetString(ctx context.Context, ref Reference) (string, error) {
	if ref.Key == "" {
		return "", fmt.Errorf("%w: empty key in reference %q", ErrKeyNotFound, ref.Name)
	}

	secret, err := m.GetSecret(ctx, ref)
	if err != nil {
		return "", err
	}
	if value, ok := secret.Value(ref.Key); ok {
		return value, nil
	}
	return "", fmt.Errorf("%w: %s", ErrKeyNotFound, ref.Key)
}

// ResolveAPIKey returns the literal key of a provider endpoint or, when only a
// reference is configured, the value it points at.
func ResolveAPIKey(ctx context.Context, m Manager, name string, endpoint config.ProviderEndpoint) (string, error) {
	if endpoint.APIKey != "" || endpoint.APIKeyRef == "" {
		return endpoint.APIKey, nil
	}
	if m == nil {
		return "", fmt.Errorf("%s: api key reference set but %w", name, ErrProviderNotConfigured)
	}

	ref, err := ParseReference(name, SecretProviderAPIKey, endpoint.APIKeyRef)
	if err != nil {
		return "", fmt.Errorf("%s: %w", name, err)
	}
	if ref.Key == "" {
		ref.Key = "api_key"
	}
	return m.GetString(ctx, ref)
}

func (m *manager) audit(ref Reference, metadata Metadata, err error) {
	if !m.auditEnabled {
		return
	}

	fields := []zap.Field{
		zap.String("secret_name", ref.Name),
		zap.String("secret_path", ref.Path),
		zap.String("secret_type", string(ref.Type)),
		zap.String("provider", string(m.provider.Name())),
	}
	if metadata.Version != "" {
		fields = append(fields, zap.String("version", metadata.Version))
	}

	if err != nil {
		logger.Warn("secret fetch failed", append(fields, zap.Error(err))...)
		return
	}
	logger.Info("secret fetched", fields...)
}

func cloneSecret(src Secret) Secret {
	dst := Secret{
		Data:     make(map[string]string, len(src.Data)),
		Metadata: src.Metadata,
	}
	for k, v := range src.Data {
		dst.Data[k] = v
	}
	return dst
}
