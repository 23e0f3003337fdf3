package middleware

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/farmland-registry/internal/config"
)

// cachedResponse is the stored form of a cacheable response.  Headers ride
// along with the body so a hit replays exactly what the handler produced.
type cachedResponse struct {
	Status int         `json:"status"`
	Header http.Header `json:"header"`
	Body   []byte      `json:"body"`
}

// bodyRecorder tees the response body into a buffer while streaming it to
// the client.  Once the buffer would exceed the limit the recording is
// abandoned; the response itself is never truncated.
type bodyRecorder struct {
	http.ResponseWriter
	status   int
	buf      bytes.Buffer
	limit    int
	overflow bool
}

func (w *bodyRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *bodyRecorder) Write(p []byte) (int, error) {
	if !w.overflow {
		if w.limit > 0 && w.buf.Len()+len(p) > w.limit {
			w.overflow = true
			w.buf.Reset()
		} else {
			w.buf.Write(p)
		}
	}
	return w.ResponseWriter.Write(p)
}

// responseCacheKey hashes method, route pattern and raw query into one
// namespaced key.  The route pattern (not the concrete path) keeps the
// key space bounded for parameterized routes.
func responseCacheKey(prefix string, c echo.Context) string {
	r := c.Request()
	sum := sha1.Sum([]byte(r.Method + " " + c.Path() + "?" + r.URL.RawQuery))
	return fmt.Sprintf("%s:%x", prefix, sum)
}

// NewRedisCache caches successful responses to the configured methods for
// cfg.TTL.  Only the read-only browse endpoints sit behind it; anything
// reflecting per-user state (auth, role checks) must not.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
	if !cfg.Enabled || rdb == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
				return next(c)
			}

			key := responseCacheKey(cfg.Prefix, c)
			if raw, err := rdb.Get(c.Request().Context(), key).Bytes(); err == nil {
				var entry cachedResponse
				if json.Unmarshal(raw, &entry) == nil {
					h := c.Response().Header()
					for name, vals := range entry.Header {
						if strings.EqualFold(name, "Content-Length") {
							continue // recomputed on write
						}
						for _, v := range vals {
							h.Add(name, v)
						}
					}
					h.Set("X-Cache", "HIT")
					c.Response().WriteHeader(entry.Status)
					_, _ = c.Response().Write(entry.Body)
					return nil
				}
			}

			rec := &bodyRecorder{
				ResponseWriter: c.Response().Writer,
				status:         http.StatusOK,
				limit:          cfg.MaxBodyBytes,
			}
			c.Response().Writer = rec
			c.Response().Header().Set("X-Cache", "MISS")

			if err := next(c); err != nil {
				return err
			}

			if rec.status == http.StatusOK && !rec.overflow {
				entry := cachedResponse{
					Status: rec.status,
					Header: c.Response().Header().Clone(),
					Body:   rec.buf.Bytes(),
				}
				if raw, err := json.Marshal(entry); err == nil {
					_ = rdb.SetEx(context.Background(), key, raw, ttl).Err()
				}
			}
			return nil
		}
	}
}
