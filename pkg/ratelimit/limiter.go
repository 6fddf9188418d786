package ratelimit

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/richxcame/fraudshield/pkg/config"
)

// IdentityType distinguishes callers with a verified token from everyone else
type IdentityType int

const (
	IdentityAnonymous IdentityType = iota
	IdentityAuthenticated
)

// Rule is the token bucket applied to one endpoint and identity type.
// Limit tokens refill per Window; Burst adds headroom above Limit.
type Rule struct {
	Limit  int
	Burst  int
	Window time.Duration
}

// Result describes a single rate limit decision
type Result struct {
	Allowed      bool
	Remaining    int
	RetryAfter   time.Duration
	Limit        int
	Window       time.Duration
	ResetAfter   time.Duration
	IdentityKey  string
	EndpointKey  string
	IdentityType IdentityType
}

// tokenBucket refills at ARGV[1] tokens/second up to ARGV[2] and takes one token.
// Returns {allowed, remaining, retry_after_seconds, reset_after_seconds}.
const tokenBucket = `
local key = KEYS[1]
local rate = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local now = tonumber(ARGV[3])
local ttl = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'ts')
local tokens = tonumber(state[1])
local ts = tonumber(state[2])
if tokens == nil then
  tokens = capacity
  ts = now
end

tokens = math.min(capacity, tokens + math.max(0, now - ts) * rate)

local allowed = 0
local retry_after = 0
if tokens >= 1 then
  tokens = tokens - 1
  allowed = 1
else
  retry_after = (1 - tokens) / rate
end

redis.call('HSET', key, 'tokens', tokens, 'ts', now)
redis.call('EXPIRE', key, ttl)

return {allowed, math.floor(tokens), tostring(retry_after), tostring((capacity - tokens) / rate)}
`

// Limiter enforces per-endpoint token buckets stored in Redis
type Limiter struct {
	client redis.Scripter
	cfg    config.RateLimitConfig
	script *redis.Script
	now    func() time.Time
}

// NewLimiter creates a limiter backed by client
func NewLimiter(client redis.Scripter, cfg config.RateLimitConfig) *Limiter {
	return &Limiter{
		client: client,
		cfg:    cfg,
		script: redis.NewScript(tokenBucket),
		now:    time.Now,
	}
}

// WithNow overrides the clock
func (l *Limiter) WithNow(now func() time.Time) *Limiter {
	l.now = now
	return l
}

// Enabled reports whether limits are enforced
func (l *Limiter) Enabled() bool {
	return l.cfg.Enabled
}

// RuleFor returns the rule for endpoint, applying any configured override
func (l *Limiter) RuleFor(endpoint string, identity IdentityType) Rule {
	rule := Rule{
		Limit:  l.cfg.DefaultLimit,
		Burst:  l.cfg.DefaultBurst,
		Window: l.cfg.Window(),
	}
	if identity == IdentityAnonymous {
		rule.Limit = l.cfg.AnonymousLimit
		rule.Burst = l.cfg.AnonymousBurst
	}

	if override, ok := l.cfg.EndpointOverrides[endpoint]; ok {
		if identity == IdentityAuthenticated && override.AuthenticatedLimit > 0 {
			rule.Limit = override.AuthenticatedLimit
			rule.Burst = override.AuthenticatedBurst
		}
		if identity == IdentityAnonymous && override.AnonymousLimit > 0 {
			rule.Limit = override.AnonymousLimit
			rule.Burst = override.AnonymousBurst
		}
		if override.WindowSeconds > 0 {
			rule.Window = time.Duration(override.WindowSeconds) * time.Second
		}
	}

	if rule.Burst < 0 {
		rule.Burst = 0
	}
	return rule
}

// Allow takes one token for identity on endpoint
func (l *Limiter) Allow(ctx context.Context, endpoint, identity string, rule Rule, identityType IdentityType) (*Result, error) {
	result := &Result{
		Allowed:      true,
		Remaining:    rule.Limit,
		Limit:        rule.Limit,
		Window:       rule.Window,
		IdentityKey:  identity,
		EndpointKey:  endpoint,
		IdentityType: identityType,
	}
	if !l.cfg.Enabled || rule.Limit <= 0 {
		return result, nil
	}

	window := rule.Window
	if window <= 0 {
		window = l.cfg.Window()
	}

	rate := float64(rule.Limit) / window.Seconds()
	capacity := rule.Limit + rule.Burst
	now := float64(l.now().UnixNano()) / float64(time.Second)
	ttl := int(math.Ceil(window.Seconds())) * 2

	key := l.key(endpoint, identity)
	raw, err := l.script.Run(ctx, l.client, []string{key},
		formatFloat(rate), capacity, formatFloat(now), ttl).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit script: %w", err)
	}
	if len(raw) != 4 {
		return nil, fmt.Errorf("rate limit script: unexpected reply length %d", len(raw))
	}

	result.Allowed = toInt(raw[0]) == 1
	result.Remaining = toInt(raw[1])
	result.Limit = capacity
	result.Window = window
	result.RetryAfter = seconds(toFloat(raw[2]))
	result.ResetAfter = seconds(toFloat(raw[3]))
	return result, nil
}

func (l *Limiter) key(endpoint, identity string) string {
	return fmt.Sprintf("%s:%s:%s", l.cfg.RedisPrefix, endpoint, identity)
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', 10, 64)
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0
		}
		return i
	}
	return 0
}

func toFloat(v interface{}) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	case int:
		return float64(n)
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}
