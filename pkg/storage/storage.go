package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// EvidenceTypes are the MIME types accepted as report evidence
var EvidenceTypes = []string{"image/jpeg", "image/png", "application/pdf"}

// UploadResult describes a stored object
type UploadResult struct {
	Key        string    `json:"key"`
	URL        string    `json:"url"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mime_type"`
	UploadedAt time.Time `json:"uploaded_at"`
}

// Storage is the object store used for report evidence
type Storage interface {
	Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error)
	Delete(ctx context.Context, key string) error
	GetURL(key string) string
}

// GenerateEvidenceKey returns a unique key for a file attached to a report.
// Format: reports/{report_id}/evidence/{yyyymmdd}_{short_id}{ext}
func GenerateEvidenceKey(reportID uuid.UUID, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("reports/%s/evidence/%s_%s%s",
		reportID.String(),
		time.Now().UTC().Format("20060102"),
		uuid.New().String()[:8],
		ext,
	)
}

// ValidateMimeType reports whether mimeType is allowed. Entries ending in
// "/*" match a whole family; an empty list allows everything.
func ValidateMimeType(mimeType string, allowedTypes []string) bool {
	if len(allowedTypes) == 0 {
		return true
	}

	mimeType = strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	for _, allowed := range allowedTypes {
		allowed = strings.ToLower(allowed)
		if allowed == mimeType {
			return true
		}
		if prefix, ok := strings.CutSuffix(allowed, "*"); ok && strings.HasSuffix(prefix, "/") && strings.HasPrefix(mimeType, prefix) {
			return true
		}
	}
	return false
}

// GetMimeTypeFromExtension guesses a MIME type for evidence uploads sent
// without a usable Content-Type
func GetMimeTypeFromExtension(filename string) string {
	switch strings.ToLower(path.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".pdf":
		return "application/pdf"
	}
	return "application/octet-stream"
}

// MemoryStorage keeps objects in process memory
type MemoryStorage struct {
	mu      sync.RWMutex
	objects map[string][]byte
	baseURL string
}

var _ Storage = (*MemoryStorage)(nil)

// NewMemoryStorage creates an empty in-memory store
func NewMemoryStorage(baseURL string) *MemoryStorage {
	return &MemoryStorage{objects: make(map[string][]byte), baseURL: strings.TrimSuffix(baseURL, "/")}
}

func (m *MemoryStorage) Upload(ctx context.Context, key string, reader io.Reader, size int64, contentType string) (*UploadResult, error) {
	data, err := io.ReadAll(io.LimitReader(reader, size+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("upload size mismatch: declared %d, got %d", size, len(data))
	}

	m.mu.Lock()
	m.objects[key] = data
	m.mu.Unlock()

	return &UploadResult{Key: key, URL: m.GetURL(key), Size: size, MimeType: contentType, UploadedAt: time.Now()}, nil
}

func (m *MemoryStorage) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

func (m *MemoryStorage) GetURL(key string) string {
	return m.baseURL + "/" + key
}

// Object returns the stored bytes for key
func (m *MemoryStorage) Object(key string) ([]byte, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.objects[key]
	return data, ok
}
