package secrets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	data  map[string]map[string]string
	calls int
	err   error
}

func (f *fakeProvider) Name() ProviderType { return ProviderVault }

func (f *fakeProvider) Fetch(ctx context.Context, ref Reference) (Secret, error) {
	f.calls++
	if f.err != nil {
		return Secret{}, f.err
	}
	data, ok := f.data[ref.Path]
	if !ok {
		return Secret{}, errors.New("not found")
	}
	return Secret{Data: data, Metadata: Metadata{Version: "1"}}, nil
}

func TestParseReference(t *testing.T) {
	tests := []struct {
		raw  string
		want Reference
	}{
		{"providers/stitch", Reference{Path: "providers/stitch"}},
		{"/providers/stitch/", Reference{Path: "providers/stitch"}},
		{"vault://providers/stitch#api_key", Reference{Provider: ProviderVault, Path: "providers/stitch", Key: "api_key"}},
		{"aws://fraudshield/safps@v2#token", Reference{Provider: ProviderAWS, Path: "fraudshield/safps", Version: "v2", Key: "token"}},
		{"kv::providers/cipc#key", Reference{Mount: "kv", Path: "providers/cipc", Key: "key"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref, err := ParseReference("test", SecretProviderAPIKey, tt.raw)
			require.NoError(t, err)
			tt.want.Name = "test"
			tt.want.Type = SecretProviderAPIKey
			assert.Equal(t, tt.want, ref)
		})
	}
}

func TestParseReference_Invalid(t *testing.T) {
	for _, raw := range []string{"", "   ", "vault://", "/#key", "kv::/"} {
		_, err := ParseReference("test", SecretCustom, raw)
		assert.ErrorIs(t, err, ErrInvalidReference, raw)
	}
}

func TestReference_CacheKey(t *testing.T) {
	a := Reference{Path: "p", Key: "one"}
	b := Reference{Path: "p", Key: "two"}
	assert.Equal(t, a.CacheKey(), b.CacheKey(), "keys of one secret share a cache entry")
	assert.NotEqual(t, Reference{Path: "p"}.CacheKey(), Reference{Path: "p", Version: "2"}.CacheKey())
	assert.Equal(t, "kv|p@3", Reference{Mount: "kv", Path: "p", Version: "3"}.CacheKey())
}

func TestManager_CachesFetches(t *testing.T) {
	prov := &fakeProvider{data: map[string]map[string]string{
		"providers/stitch": {"api_key": "sk_live"},
	}}
	m := newManager(prov, 0, true)
	ref := Reference{Name: "stitch", Path: "providers/stitch", Key: "api_key"}

	for i := 0; i < 3; i++ {
		v, err := m.GetString(context.Background(), ref)
		require.NoError(t, err)
		assert.Equal(t, "sk_live", v)
	}
	assert.Equal(t, 1, prov.calls)
}

func TestManager_ReturnsClones(t *testing.T) {
	prov := &fakeProvider{data: map[string]map[string]string{"p": {"k": "v"}}}
	m := newManager(prov, 0, false)

	s, err := m.GetSecret(context.Background(), Reference{Path: "p"})
	require.NoError(t, err)
	s.Data["k"] = "mutated"

	s, err = m.GetSecret(context.Background(), Reference{Path: "p"})
	require.NoError(t, err)
	assert.Equal(t, "v", s.Data["k"])
}

func TestManager_Errors(t *testing.T) {
	prov := &fakeProvider{data: map[string]map[string]string{"p": {"k": ""}}}
	m := newManager(prov, 0, false)
	ctx := context.Background()

	_, err := m.GetString(ctx, Reference{Path: "p"})
	assert.ErrorIs(t, err, ErrKeyNotFound)

	_, err = m.GetString(ctx, Reference{Path: "p", Key: "k"})
	assert.ErrorIs(t, err, ErrKeyNotFound, "empty values count as missing")

	_, err = m.GetSecret(ctx, Reference{})
	assert.ErrorIs(t, err, ErrInvalidReference)

	_, err = m.GetSecret(ctx, Reference{Path: "p", Provider: ProviderAWS})
	assert.ErrorContains(t, err, "does not match")

	prov.err = errors.New("vault sealed")
	_, err = m.GetSecret(ctx, Reference{Path: "other"})
	assert.ErrorContains(t, err, "vault sealed")
}

func TestNewManager_Config(t *testing.T) {
	ctx := context.Background()

	_, err := NewManager(ctx, config.SecretsConfig{})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)

	_, err = NewManager(ctx, config.SecretsConfig{Provider: "gcp"})
	assert.ErrorContains(t, err, "unsupported provider")

	_, err = NewManager(ctx, config.SecretsConfig{Provider: "vault", VaultAddress: "http://vault:8200"})
	assert.ErrorContains(t, err, "address and token")

	_, err = NewManager(ctx, config.SecretsConfig{Provider: "aws"})
	assert.ErrorContains(t, err, "requires region")
}

func TestResolveAPIKey(t *testing.T) {
	ctx := context.Background()
	m := newManager(&fakeProvider{data: map[string]map[string]string{
		"providers/ozow": {"api_key": "from-vault"},
	}}, 0, false)

	key, err := ResolveAPIKey(ctx, m, "ozow", config.ProviderEndpoint{APIKey: "literal", APIKeyRef: "providers/ozow"})
	require.NoError(t, err)
	assert.Equal(t, "literal", key)

	key, err = ResolveAPIKey(ctx, m, "ozow", config.ProviderEndpoint{APIKeyRef: "providers/ozow"})
	require.NoError(t, err)
	assert.Equal(t, "from-vault", key)

	key, err = ResolveAPIKey(ctx, nil, "ozow", config.ProviderEndpoint{})
	require.NoError(t, err)
	assert.Empty(t, key)

	_, err = ResolveAPIKey(ctx, nil, "ozow", config.ProviderEndpoint{APIKeyRef: "providers/ozow"})
	assert.ErrorIs(t, err, ErrProviderNotConfigured)
}

func TestVaultProvider_Fetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/secret/data/providers/safps" {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"errors":[]}`))
			return
		}
		assert.Equal(t, "root", r.Header.Get("X-Vault-Token"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{"data":{"api_key":"safps-key","site_code":"42"},
			"metadata":{"version":3,"created_time":"2026-01-02T03:04:05Z"}}}`))
	}))
	defer srv.Close()

	prov, err := newVaultProvider(VaultConfig{Address: srv.URL, Token: "root"})
	require.NoError(t, err)

	secret, err := prov.Fetch(context.Background(), Reference{Path: "providers/safps"})
	require.NoError(t, err)
	assert.Equal(t, "safps-key", secret.Data["api_key"])
	assert.Equal(t, "42", secret.Data["site_code"])
	assert.Equal(t, "3", secret.Metadata.Version)

	_, err = prov.Fetch(context.Background(), Reference{Path: "providers/missing"})
	assert.Error(t, err)

	_, err = prov.Fetch(context.Background(), Reference{Path: "providers/safps", Version: "latest"})
	assert.ErrorContains(t, err, "invalid vault version")
}
