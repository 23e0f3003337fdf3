package middleware

import (
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/farmland-registry/internal/config"
)

// tokenBucketScript holds one bucket per key in a Redis hash and updates
// it atomically: refill by elapsed intervals, then take a token if one is
// available.  Returns {allowed, remaining, retry_after_ms}.
const tokenBucketScript = `
local tokens, last = unpack(redis.call('HMGET', KEYS[1], 'tokens', 'last_ms'))
local now_ms   = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local refill   = tonumber(ARGV[3])
local step_ms  = tonumber(ARGV[4])

tokens = tonumber(tokens)
last = tonumber(last)
if tokens == nil or last == nil then
  tokens = capacity
  last = now_ms
end

local steps = math.floor(math.max(0, now_ms - last) / step_ms)
if steps > 0 then
  tokens = math.min(capacity, tokens + steps * refill)
  last = last + steps * step_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
  allowed = 1
  tokens = tokens - 1
else
  retry_ms = math.max(0, step_ms - (now_ms - last))
end

redis.call('HMSET', KEYS[1], 'tokens', tokens, 'last_ms', last)
redis.call('EXPIRE', KEYS[1], tonumber(ARGV[5]))
return {allowed, tokens, retry_ms}
`

// NewTokenBucket returns a distributed token-bucket limiter backed by
// Redis, so multiple instances share one budget per key.  Any Redis error
// fails open: throttling is protective, never load-bearing.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	script := redis.NewScript(tokenBucketScript)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			res, err := script.Run(c.Request().Context(), rdb,
				[]string{rateKey(cfg, c)},
				time.Now().UnixMilli(),
				cfg.Capacity,
				cfg.RefillTokens,
				cfg.RefillInterval.Milliseconds(),
				int64(cfg.TTL/time.Second),
			).Int64Slice()
			if err != nil || len(res) != 3 {
				return next(c)
			}
			allowed, remaining, retryMs := res[0] == 1, res[1], res[2]

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

			if !allowed {
				secs := int(math.Ceil(float64(retryMs) / 1000.0))
				h.Set("Retry-After", strconv.Itoa(secs))
				return c.JSON(http.StatusTooManyRequests, echo.Map{
					"error":       "too_many_requests",
					"message":     "rate limit exceeded",
					"retry_after": secs,
				})
			}
			return next(c)
		}
	}
}

// rateKey assembles the bucket key for a request.  The user component is
// the session-resolved ID when present, "anon" otherwise.
func rateKey(cfg config.RateLimitConfig, c echo.Context) string {
	ip := c.RealIP()
	if ip == "" {
		ip = "unknown"
	}
	uid := requestUserID(c)
	route := c.Request().Method + " " + c.Path()

	switch cfg.KeyStrategy {
	case "ip":
		return cfg.Prefix + ":ip:" + ip
	case "user":
		return cfg.Prefix + ":user:" + uid
	case "user_route":
		return cfg.Prefix + ":user:" + uid + ":route:" + route
	default: // "ip_user_route"
		return cfg.Prefix + ":ip:" + ip + ":user:" + uid + ":route:" + route
	}
}
