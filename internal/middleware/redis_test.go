package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/cinebook/internal/config"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestTokenBucketLimitsAndRefills(t *testing.T) {
	_, rdb := newRedis(t)
	start := time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)
	now := start
	clock = func() time.Time { return now }
	t.Cleanup(func() { clock = time.Now })

	cfg := config.RateLimitConfig{
		Enabled:        true,
		Capacity:       2,
		RefillTokens:   1,
		RefillInterval: 10 * time.Second,
		TTL:            time.Minute,
		KeyStrategy:    "ip_route",
		Prefix:         "test:rl",
	}
	e := echo.New()
	e.POST("/api/auth/login", okHandler, NewTokenBucket(cfg, rdb))
	send := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = ip + ":40000"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	for i, want := range []string{"1", "0"} {
		rec := send("10.0.0.1")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
		if got := rec.Header().Get("X-RateLimit-Remaining"); got != want {
			t.Errorf("request %d: remaining %q, want %q", i+1, got, want)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("limit header %q", got)
		}
	}

	rec := send("10.0.0.1")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("third request: status %d", rec.Code)
	}
	if got := rec.Header().Get(echo.HeaderRetryAfter); got != "10" {
		t.Errorf("Retry-After %q", got)
	}
	if !strings.Contains(rec.Body.String(), `"retry_after":10`) {
		t.Errorf("body %s", rec.Body.String())
	}

	// another client has its own bucket
	if rec := send("10.0.0.2"); rec.Code != http.StatusOK {
		t.Errorf("other ip: status %d", rec.Code)
	}

	now = start.Add(4 * time.Second)
	if rec := send("10.0.0.1"); rec.Code != http.StatusTooManyRequests || rec.Header().Get(echo.HeaderRetryAfter) != "6" {
		t.Errorf("before refill: status %d retry %q", rec.Code, rec.Header().Get(echo.HeaderRetryAfter))
	}

	now = start.Add(10 * time.Second)
	if rec := send("10.0.0.1"); rec.Code != http.StatusOK {
		t.Fatalf("after refill: status %d", rec.Code)
	}
	if rec := send("10.0.0.1"); rec.Code != http.StatusTooManyRequests {
		t.Errorf("one token per interval: status %d", rec.Code)
	}
}

func TestTokenBucketFailsOpen(t *testing.T) {
	mr, rdb := newRedis(t)
	mr.Close()

	e := echo.New()
	e.POST("/api/auth/login", okHandler, NewTokenBucket(config.RateLimitConfig{
		Enabled: true, Capacity: 1, RefillTokens: 1, RefillInterval: time.Second, TTL: time.Minute,
	}, rdb))
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d: status %d", i+1, rec.Code)
		}
	}
}

func TestRedisCacheHitAndMiss(t *testing.T) {
	mr, rdb := newRedis(t)
	cfg := config.CacheConfig{
		Enabled:      true,
		Methods:      map[string]bool{http.MethodGet: true},
		TTL:          time.Minute,
		RouteTTL:     map[string]time.Duration{"/movie/:id": 30 * time.Minute},
		KeyStrategy:  "route_query",
		Prefix:       "test:cache",
		MaxBodyBytes: 64,
	}

	calls := 0
	e := echo.New()
	e.Use(echomw.RequestID())
	handler := func(c echo.Context) error {
		calls++
		switch id := c.Param("id"); id {
		case "404":
			return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
		case "big":
			return c.String(http.StatusOK, strings.Repeat("x", 100))
		default:
			c.Response().Header().Set("X-RateLimit-Remaining", "3")
			return c.JSON(http.StatusOK, echo.Map{"id": id})
		}
	}
	e.GET("/movie/:id", handler, NewRedisCache(cfg, rdb))
	e.GET("/popular", handler, NewRedisCache(cfg, rdb))

	get := func(target, requestID string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, target, nil)
		req.Header.Set(echo.HeaderXRequestID, requestID)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	first := get("/movie/1", "req-1")
	if first.Code != http.StatusOK || first.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first: %d %q", first.Code, first.Header().Get("X-Cache"))
	}
	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("keys %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl != 30*time.Minute {
		t.Errorf("details ttl %v", ttl)
	}

	second := get("/movie/1", "req-2")
	if second.Header().Get("X-Cache") != "HIT" || calls != 1 {
		t.Fatalf("second: cache %q calls %d", second.Header().Get("X-Cache"), calls)
	}
	if second.Body.String() != first.Body.String() {
		t.Errorf("body %q, want %q", second.Body.String(), first.Body.String())
	}
	if got := second.Header().Get(echo.HeaderXRequestID); got != "req-2" {
		t.Errorf("request id %q", got)
	}
	if got := second.Header().Get("X-RateLimit-Remaining"); got != "" {
		t.Errorf("rate limit header replayed: %q", got)
	}
	if got := second.Header().Get(echo.HeaderContentType); !strings.HasPrefix(got, echo.MIMEApplicationJSON) {
		t.Errorf("content type %q", got)
	}

	if rec := get("/movie/2", "req-3"); rec.Header().Get("X-Cache") != "MISS" || calls != 2 {
		t.Errorf("other id: cache %q calls %d", rec.Header().Get("X-Cache"), calls)
	}

	mr.FlushAll()
	get("/popular", "req-4")
	keys = mr.Keys()
	if len(keys) != 1 || mr.TTL(keys[0]) != time.Minute {
		t.Errorf("default ttl: keys %v", keys)
	}

	for _, target := range []string{"/movie/404", "/movie/big"} {
		before := calls
		for i := 0; i < 2; i++ {
			if rec := get(target, "r"); rec.Header().Get("X-Cache") != "MISS" {
				t.Errorf("%s: cache %q", target, rec.Header().Get("X-Cache"))
			}
		}
		if calls-before != 2 {
			t.Errorf("%s stored: handler ran %d times", target, calls-before)
		}
	}
	if len(mr.Keys()) != 1 {
		t.Errorf("keys %v", mr.Keys())
	}
}

func TestReplayable(t *testing.T) {
	for k, want := range map[string]bool{
		"Content-Type":                true,
		"Cache-Control":               true,
		"content-length":              false,
		"X-Request-Id":                false,
		"X-RateLimit-Limit":           false,
		"X-RateLimit-Key":             false,
		"Retry-After":                 false,
		"Access-Control-Allow-Origin": false,
		"X-Cache":                     false,
	} {
		if got := replayable(k); got != want {
			t.Errorf("replayable(%s) = %v", k, got)
		}
	}
}
