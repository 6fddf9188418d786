package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	NATS          NATSConfig
	Storage       StorageConfig
	Providers     ProvidersConfig
	Notifications NotificationsConfig
	RateLimit     RateLimitConfig
	Risk          RiskConfig
	Secrets       SecretsConfig
	Tracing       TracingConfig
	Sentry        SentryConfig
}

// ServerConfig holds server-specific configuration
type ServerConfig struct {
	Port           string
	Environment    string
	ServiceName    string
	ReadTimeout    int
	WriteTimeout   int
	RequestTimeout int    // per-request handler timeout in seconds
	CORSOrigins    string // Comma-separated list of allowed origins
	StoreDriver    string // "postgres" or "memory"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
	MaxConns int
	MinConns int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host          string
	Port          string
	Password      string
	DB            int
	Enabled       bool
	TrustCacheTTL int // seconds
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret    string
	VaultPath string // KV path of keys published by the identity service
}

// NATSConfig holds event bus configuration
type NATSConfig struct {
	URL     string
	Enabled bool
}

// StorageConfig holds evidence storage configuration
type StorageConfig struct {
	Bucket        string
	Region        string
	Endpoint      string
	AccessKey     string
	SecretKey     string
	BaseURL       string
	MaxFileSizeMB int
	Enabled       bool
}

// ProviderEndpoint describes one outbound verification provider.
// APIKey may be given directly or as a secret reference in APIKeyRef.
type ProviderEndpoint struct {
	BaseURL   string
	APIKey    string
	APIKeyRef string
	SiteCode  string
	Enabled   bool
}

// ProvidersConfig holds payment and registry provider configuration
type ProvidersConfig struct {
	Stitch                  ProviderEndpoint
	Ozow                    ProviderEndpoint
	PayShap                 ProviderEndpoint
	Stripe                  ProviderEndpoint
	CIPC                    ProviderEndpoint
	WHOIS                   ProviderEndpoint
	SAFPS                   ProviderEndpoint
	TimeoutSeconds          int
	BreakerFailureThreshold int
	BreakerTimeoutSeconds   int
}

// NotificationsConfig holds alert delivery configuration
type NotificationsConfig struct {
	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioFromNumber   string
	TwilioWhatsAppFrom string
	ShoutrrrURLs       []string
	DefaultLanguage    string
	Enabled            bool
}

// EndpointRateLimitConfig overrides the default limits for one endpoint
type EndpointRateLimitConfig struct {
	AuthenticatedLimit int
	AuthenticatedBurst int
	AnonymousLimit     int
	AnonymousBurst     int
	WindowSeconds      int
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	Enabled           bool
	WindowSeconds     int
	DefaultLimit      int
	DefaultBurst      int
	AnonymousLimit    int
	AnonymousBurst    int
	RedisPrefix       string
	EndpointOverrides map[string]EndpointRateLimitConfig
}

// Window returns the default limiter window
func (c RateLimitConfig) Window() time.Duration {
	if c.WindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.WindowSeconds) * time.Second
}

// RiskConfig holds risk assessment tuning
type RiskConfig struct {
	ReferenceDomains []string
}

// SecretsConfig selects the secret backend for provider credentials
type SecretsConfig struct {
	Provider        string // "", "vault" or "aws"
	CacheTTLSeconds int
	AuditEnabled    bool
	VaultAddress    string
	VaultToken      string
	VaultNamespace  string
	VaultMountPath  string
	AWSRegion       string
	AWSEndpoint     string
}

// TracingConfig holds OpenTelemetry configuration
type TracingConfig struct {
	Endpoint    string
	Insecure    bool
	SampleRatio float64
	Enabled     bool
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN              string
	TracesSampleRate float64
	Enabled          bool
}

// Load loads configuration from environment variables
func Load(serviceName string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnv("PORT", "8080"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			ServiceName:    serviceName,
			ReadTimeout:    getEnvAsInt("READ_TIMEOUT", 10),
			WriteTimeout:   getEnvAsInt("WRITE_TIMEOUT", 10),
			RequestTimeout: getEnvAsInt("REQUEST_TIMEOUT", 15),
			CORSOrigins:    getEnv("CORS_ORIGINS", "http://localhost:3000"),
			StoreDriver:    getEnv("STORE_DRIVER", "postgres"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "fraudshield"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns: getEnvAsInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:          getEnv("REDIS_HOST", "localhost"),
			Port:          getEnv("REDIS_PORT", "6379"),
			Password:      getEnv("REDIS_PASSWORD", ""),
			DB:            getEnvAsInt("REDIS_DB", 0),
			Enabled:       getEnvAsBool("REDIS_ENABLED", true),
			TrustCacheTTL: getEnvAsInt("TRUST_CACHE_TTL", 300),
		},
		JWT: JWTConfig{
			Secret:    getEnv("JWT_SECRET", "your-secret-key-change-in-production"),
			VaultPath: getEnv("JWT_VAULT_PATH", ""),
		},
		NATS: NATSConfig{
			URL:     getEnv("NATS_URL", "nats://localhost:4222"),
			Enabled: getEnvAsBool("NATS_ENABLED", false),
		},
		Storage: StorageConfig{
			Bucket:        getEnv("EVIDENCE_BUCKET", "fraudshield-evidence"),
			Region:        getEnv("EVIDENCE_REGION", "af-south-1"),
			Endpoint:      getEnv("EVIDENCE_ENDPOINT", ""),
			AccessKey:     getEnv("EVIDENCE_ACCESS_KEY", ""),
			SecretKey:     getEnv("EVIDENCE_SECRET_KEY", ""),
			BaseURL:       getEnv("EVIDENCE_BASE_URL", ""),
			MaxFileSizeMB: getEnvAsInt("EVIDENCE_MAX_FILE_SIZE_MB", 10),
			Enabled:       getEnvAsBool("EVIDENCE_ENABLED", false),
		},
		Providers: ProvidersConfig{
			Stitch:                  loadProvider("STITCH", "https://api.stitch.money"),
			Ozow:                    loadProvider("OZOW", "https://api.ozow.com"),
			PayShap:                 loadProvider("PAYSHAP", "https://api.payshap.co.za/v1"),
			Stripe:                  loadProvider("STRIPE", ""),
			CIPC:                    loadProvider("CIPC", "https://eservices.cipc.co.za/api"),
			WHOIS:                   loadProvider("WHOIS", "https://api.whoisjson.com/v1"),
			SAFPS:                   loadProvider("SAFPS", "https://api.safps.org.za/v1"),
			TimeoutSeconds:          getEnvAsInt("PROVIDER_TIMEOUT", 10),
			BreakerFailureThreshold: getEnvAsInt("PROVIDER_BREAKER_FAILURES", 5),
			BreakerTimeoutSeconds:   getEnvAsInt("PROVIDER_BREAKER_TIMEOUT", 30),
		},
		Notifications: NotificationsConfig{
			TwilioAccountSID:   getEnv("TWILIO_ACCOUNT_SID", ""),
			TwilioAuthToken:    getEnv("TWILIO_AUTH_TOKEN", ""),
			TwilioFromNumber:   getEnv("TWILIO_FROM_NUMBER", ""),
			TwilioWhatsAppFrom: getEnv("TWILIO_WHATSAPP_FROM", ""),
			ShoutrrrURLs:       getEnvAsList("ALERT_SHOUTRRR_URLS", nil),
			DefaultLanguage:    getEnv("ALERT_DEFAULT_LANGUAGE", "en"),
			Enabled:            getEnvAsBool("ALERTS_ENABLED", false),
		},
		RateLimit: RateLimitConfig{
			Enabled:        getEnvAsBool("RATE_LIMIT_ENABLED", true),
			WindowSeconds:  getEnvAsInt("RATE_LIMIT_WINDOW", 60),
			DefaultLimit:   getEnvAsInt("RATE_LIMIT_DEFAULT", 60),
			DefaultBurst:   getEnvAsInt("RATE_LIMIT_BURST", 10),
			AnonymousLimit: getEnvAsInt("RATE_LIMIT_ANONYMOUS", 20),
			AnonymousBurst: getEnvAsInt("RATE_LIMIT_ANONYMOUS_BURST", 5),
			RedisPrefix:    getEnv("RATE_LIMIT_PREFIX", "rl"),
			EndpointOverrides: map[string]EndpointRateLimitConfig{
				"/api/v1/reports": {
					AuthenticatedLimit: getEnvAsInt("RATE_LIMIT_REPORTS", 10),
					AuthenticatedBurst: 2,
					WindowSeconds:      3600,
				},
			},
		},
		Risk: RiskConfig{
			ReferenceDomains: getEnvAsList("RISK_REFERENCE_DOMAINS", nil),
		},
		Secrets: SecretsConfig{
			Provider:        getEnv("SECRETS_PROVIDER", ""),
			CacheTTLSeconds: getEnvAsInt("SECRETS_CACHE_TTL", 300),
			AuditEnabled:    getEnvAsBool("SECRETS_AUDIT", false),
			VaultAddress:    getEnv("VAULT_ADDR", ""),
			VaultToken:      getEnv("VAULT_TOKEN", ""),
			VaultNamespace:  getEnv("VAULT_NAMESPACE", ""),
			VaultMountPath:  getEnv("VAULT_MOUNT_PATH", "secret"),
			AWSRegion:       getEnv("SECRETS_AWS_REGION", "af-south-1"),
			AWSEndpoint:     getEnv("SECRETS_AWS_ENDPOINT", ""),
		},
		Tracing: TracingConfig{
			Endpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
			Insecure:    getEnvAsBool("OTEL_EXPORTER_OTLP_INSECURE", true),
			SampleRatio: getEnvAsFloat("OTEL_TRACES_SAMPLE_RATIO", 1.0),
		},
		Sentry: SentryConfig{
			DSN:              getEnv("SENTRY_DSN", ""),
			TracesSampleRate: getEnvAsFloat("SENTRY_TRACES_SAMPLE_RATE", 0.1),
		},
	}

	cfg.Tracing.Enabled = cfg.Tracing.Endpoint != ""
	cfg.Sentry.Enabled = cfg.Sentry.DSN != ""

	if cfg.Server.StoreDriver != "postgres" && cfg.Server.StoreDriver != "memory" {
		return nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Server.StoreDriver)
	}

	return cfg, nil
}

// DSN returns the database connection string
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// URL returns the database connection string in URL form, as used by migrations
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.SSLMode,
	)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

func loadProvider(prefix, defaultURL string) ProviderEndpoint {
	return ProviderEndpoint{
		BaseURL:   getEnv(prefix+"_BASE_URL", defaultURL),
		APIKey:    getEnv(prefix+"_API_KEY", ""),
		APIKeyRef: getEnv(prefix+"_API_KEY_REF", ""),
		SiteCode:  getEnv(prefix+"_SITE_CODE", ""),
		Enabled:   getEnvAsBool(prefix+"_ENABLED", false),
	}
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
