package storage

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateEvidenceKey(t *testing.T) {
	reportID := uuid.New()

	key := GenerateEvidenceKey(reportID, "Proof Of Payment.PDF")

	prefix := "reports/" + reportID.String() + "/evidence/" + time.Now().UTC().Format("20060102") + "_"
	assert.True(t, strings.HasPrefix(key, prefix), key)
	assert.True(t, strings.HasSuffix(key, ".pdf"), key)
	assert.NotEqual(t, key, GenerateEvidenceKey(reportID, "Proof Of Payment.PDF"))
}

func TestValidateMimeType(t *testing.T) {
	tests := []struct {
		mime    string
		allowed []string
		want    bool
	}{
		{"image/png", EvidenceTypes, true},
		{"IMAGE/JPEG", EvidenceTypes, true},
		{"application/pdf; charset=binary", EvidenceTypes, true},
		{"image/gif", EvidenceTypes, false},
		{"text/html", EvidenceTypes, false},
		{"image/gif", []string{"image/*"}, true},
		{"anything/at-all", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.mime, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidateMimeType(tt.mime, tt.allowed))
		})
	}
}

func TestGetMimeTypeFromExtension(t *testing.T) {
	assert.Equal(t, "image/jpeg", GetMimeTypeFromExtension("screenshot.JPG"))
	assert.Equal(t, "application/pdf", GetMimeTypeFromExtension("pop.pdf"))
	assert.Equal(t, "application/octet-stream", GetMimeTypeFromExtension("payload.exe"))
}

func TestMemoryStorage(t *testing.T) {
	store := NewMemoryStorage("https://evidence.local/")
	ctx := context.Background()

	res, err := store.Upload(ctx, "reports/1/a.png", bytes.NewReader([]byte("png")), 3, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://evidence.local/reports/1/a.png", res.URL)

	data, ok := store.Object("reports/1/a.png")
	require.True(t, ok)
	assert.Equal(t, []byte("png"), data)

	_, err = store.Upload(ctx, "reports/1/b.png", bytes.NewReader([]byte("longer")), 3, "image/png")
	assert.Error(t, err)

	require.NoError(t, store.Delete(ctx, "reports/1/a.png"))
	_, ok = store.Object("reports/1/a.png")
	assert.False(t, ok)
}

func TestS3Storage_DeleteAndURL(t *testing.T) {
	var mu sync.Mutex
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		gotMethod, gotPath = r.Method, r.URL.Path
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	store, err := NewS3Storage(context.Background(), config.StorageConfig{
		Bucket:    "evidence",
		Region:    "af-south-1",
		Endpoint:  srv.URL,
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)

	assert.Equal(t, srv.URL+"/evidence/reports/1/a.png", store.GetURL("reports/1/a.png"))

	require.NoError(t, store.Delete(context.Background(), "reports/1/a.png"))
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, http.MethodDelete, gotMethod)
	assert.Equal(t, "/evidence/reports/1/a.png", gotPath)
}

func TestNewS3Storage_DefaultURL(t *testing.T) {
	store, err := NewS3Storage(context.Background(), config.StorageConfig{
		Bucket:    "evidence",
		Region:    "af-south-1",
		AccessKey: "test",
		SecretKey: "test",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://evidence.s3.af-south-1.amazonaws.com/k", store.GetURL("k"))
}
