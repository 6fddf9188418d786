package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/richxcame/fraudshield/pkg/common"
	"github.com/richxcame/fraudshield/pkg/config"
	"github.com/richxcame/fraudshield/pkg/jwtkeys"
	"github.com/richxcame/fraudshield/pkg/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func init() {
	gin.SetMode(gin.TestMode)
}

func signToken(t *testing.T, secret string, sub string, role string, expires time.Time) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:  role,
		Email: "reporter@example.co.za",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func protectedRouter(provider jwtkeys.KeyProvider, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{AuthMiddlewareWithProvider(provider)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		id, err := GetUserID(c)
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	r.GET("/me", handlers...)
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	token := signToken(t, testSecret, userID.String(), "user", time.Now().Add(time.Hour))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	protectedRouter(jwtkeys.NewStaticProvider(testSecret)).ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, userID.String(), w.Body.String())
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"not bearer", "Basic abc"},
		{"wrong secret", "Bearer " + signToken(t, "other", uuid.NewString(), "user", time.Now().Add(time.Hour))},
		{"expired", "Bearer " + signToken(t, testSecret, uuid.NewString(), "user", time.Now().Add(-time.Minute))},
		{"non uuid subject", "Bearer " + signToken(t, testSecret, "alice", "user", time.Now().Add(time.Hour))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			protectedRouter(jwtkeys.NewStaticProvider(testSecret)).ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp common.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
		})
	}
}

func TestOptionalAuth(t *testing.T) {
	r := gin.New()
	r.GET("/check", OptionalAuth(jwtkeys.NewStaticProvider(testSecret)), func(c *gin.Context) {
		_, err := GetUserID(c)
		c.JSON(http.StatusOK, gin.H{"authenticated": err == nil})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/check", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"authenticated":false}`, w.Body.String())

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, testSecret, uuid.NewString(), "user", time.Now().Add(time.Hour)))
	r.ServeHTTP(w, req)
	assert.JSONEq(t, `{"authenticated":true}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/check", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole(t *testing.T) {
	token := signToken(t, testSecret, uuid.NewString(), "user", time.Now().Add(time.Hour))
	router := protectedRouter(jwtkeys.NewStaticProvider(testSecret), RequireRole("admin", "moderator"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)

	token = signToken(t, testSecret, uuid.NewString(), "moderator", time.Now().Add(time.Hour))
	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGetUserID(t *testing.T) {
	id := uuid.New()

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	_, err := GetUserID(c)
	assert.Error(t, err)

	c.Set("user_id", id)
	got, err := GetUserID(c)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	c.Set("user_id", id.String())
	got, err = GetUserID(c)
	require.NoError(t, err)
	assert.Equal(t, id, got)

	c.Set("user_id", 42)
	_, err = GetUserID(c)
	assert.Error(t, err)
}

func TestCorrelationID(t *testing.T) {
	r := gin.New()
	r.Use(CorrelationID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, GetCorrelationID(c)) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationIDHeader))

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err)
}

func TestRecovery(t *testing.T) {
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	var resp common.Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "internal server error", resp.Error.Message)
}

func TestSecurityHeaders(t *testing.T) {
	r := gin.New()
	r.Use(SecurityHeaders())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
}

func TestRateLimit_FailsOpen(t *testing.T) {
	// No expectations registered: every redis call errors
	client, _ := redismock.NewClientMock()
	limiter := ratelimit.NewLimiter(client, config.RateLimitConfig{
		Enabled:        true,
		WindowSeconds:  60,
		AnonymousLimit: 5,
		RedisPrefix:    "rl",
	})

	r := gin.New()
	r.POST("/api/v1/reports", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestRateLimit_Disabled(t *testing.T) {
	client, mock := redismock.NewClientMock()
	limiter := ratelimit.NewLimiter(client, config.RateLimitConfig{Enabled: false})

	r := gin.New()
	r.POST("/api/v1/reports", RateLimit(limiter), func(c *gin.Context) { c.Status(http.StatusCreated) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/v1/reports", nil))
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-RateLimit-Limit"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestValidateAndBind(t *testing.T) {
	type body struct {
		Phone string `json:"phone" validate:"required,za_phone"`
	}

	r := gin.New()
	r.POST("/", func(c *gin.Context) {
		var req body
		if !ValidateAndBind(c, &req) {
			return
		}
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"phone":"12345"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "phone")

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", jsonBody(`{"phone":"0821234567"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func jsonBody(s string) *strings.Reader {
	return strings.NewReader(s)
}
