package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
)

// Rate limiting keys:
// - ratelimit:{ip}:connect - fixed window of websocket upgrades per client IP

// connectScript increments the window counter unless the limit was reached.
// Returns {allowed, remaining, ttl_seconds}.
var connectScript = goredis.NewScript(`
	local key = KEYS[1]
	local limit = tonumber(ARGV[1])
	local window = tonumber(ARGV[2])

	local current = tonumber(redis.call('GET', key) or '0')
	if current >= limit then
		local ttl = redis.call('TTL', key)
		if ttl < 0 then ttl = window end
		return {0, 0, ttl}
	end

	current = redis.call('INCR', key)
	if current == 1 then
		redis.call('EXPIRE', key, window)
	end
	local ttl = redis.call('TTL', key)
	if ttl < 0 then ttl = window end
	return {1, limit - current, ttl}
`)

// RateLimitResult contains the result of a rate limit check
type RateLimitResult struct {
	Allowed   bool          // Whether the action is allowed
	Remaining int           // Remaining actions in the window
	ResetIn   time.Duration // Time until the window resets
	Limit     int           // The limit for this action
}

// ConnectLimiter limits websocket connection attempts. The counters live in
// redis so every instance shares them.
type ConnectLimiter struct {
	client goredis.Scripter
	limit  int
	window time.Duration
}

// NewConnectLimiter allows limit connects per window for each key
func NewConnectLimiter(client goredis.Scripter, limit int, window time.Duration) *ConnectLimiter {
	return &ConnectLimiter{client: client, limit: limit, window: window}
}

// AllowConnect checks if ip may open another websocket
func (r *ConnectLimiter) AllowConnect(ctx context.Context, ip string) (*RateLimitResult, error) {
	key := fmt.Sprintf("ratelimit:%s:connect", ip)

	result, err := connectScript.Run(ctx, r.client, []string{key}, r.limit, int(r.window.Seconds())).Slice()
	if err != nil {
		return nil, fmt.Errorf("rate limit check failed: %w", err)
	}
	if len(result) < 3 {
		return nil, fmt.Errorf("unexpected rate limit result format")
	}

	allowed, _ := result[0].(int64)
	remaining, _ := result[1].(int64)
	ttl, _ := result[2].(int64)

	return &RateLimitResult{
		Allowed:   allowed == 1,
		Remaining: int(remaining),
		ResetIn:   time.Duration(ttl) * time.Second,
		Limit:     r.limit,
	}, nil
}
