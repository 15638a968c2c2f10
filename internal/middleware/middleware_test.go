package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/cinebook/internal/config"
	"github.com/iliyamo/cinebook/internal/utils"
)

type fakeVerifier struct{ secret string }

func (f fakeVerifier) VerifySession(token string) (*utils.SessionClaims, error) {
	return utils.ParseSessionToken(f.secret, token)
}

func newContext(method, target, auth string) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	if auth != "" {
		req.Header.Set(echo.HeaderAuthorization, auth)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func okHandler(c echo.Context) error { return c.String(http.StatusOK, "ok") }

func TestJWTAuth(t *testing.T) {
	good, _ := utils.NewSessionToken("s", 9, "Ann", "ann@x.com", "ADMIN", time.Now(), time.Hour)
	expired, _ := utils.NewSessionToken("s", 9, "Ann", "ann@x.com", "USER", time.Now().Add(-3*time.Hour), time.Hour)

	cases := []struct {
		name   string
		auth   string
		status int
	}{
		{"missing header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"expired", "Bearer " + expired.Token, http.StatusUnauthorized},
		{"valid", "Bearer " + good.Token, http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(http.MethodGet, "/api/auth/me", tc.auth)
			var seen *utils.SessionClaims
			h := JWTAuth(fakeVerifier{"s"})(func(c echo.Context) error {
				seen = Claims(c)
				return okHandler(c)
			})
			if err := h(c); err != nil {
				t.Fatalf("handler error: %v", err)
			}
			if rec.Code != tc.status {
				t.Fatalf("status = %d, want %d", rec.Code, tc.status)
			}
			if tc.status == http.StatusOK {
				if seen == nil || seen.Email != "ann@x.com" || c.Get("user_id") != "9" || c.Get("role") != "ADMIN" {
					t.Fatalf("context not populated: claims=%+v", seen)
				}
			} else if !strings.Contains(rec.Body.String(), `"error"`) {
				t.Fatalf("body = %s", rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	for role, want := range map[string]int{"ADMIN": http.StatusOK, "USER": http.StatusForbidden, "": http.StatusForbidden} {
		c, rec := newContext(http.MethodGet, "/api/bookings", "")
		if role != "" {
			c.Set("role", role)
		}
		if err := RequireRole("ADMIN")(okHandler)(c); err != nil {
			t.Fatalf("handler error: %v", err)
		}
		if rec.Code != want {
			t.Errorf("role %q: status = %d, want %d", role, rec.Code, want)
		}
	}
}

func TestDisabledRedisMiddlewarePassesThrough(t *testing.T) {
	calls := 0
	next := func(c echo.Context) error { calls++; return okHandler(c) }

	rl := NewTokenBucket(config.RateLimitConfig{Enabled: true, Capacity: 1}, nil)
	cache := NewRedisCache(config.CacheConfig{Enabled: true, Methods: map[string]bool{"GET": true}}, nil)
	for i := 0; i < 3; i++ {
		c, rec := newContext(http.MethodPost, "/api/auth/login", "")
		if err := rl(cache(next))(c); err != nil || rec.Code != http.StatusOK {
			t.Fatalf("call %d: status=%d err=%v", i, rec.Code, err)
		}
		if rec.Header().Get("X-Cache") != "" {
			t.Fatal("disabled cache must not set X-Cache")
		}
	}
	if calls != 3 {
		t.Fatalf("calls = %d", calls)
	}
}

func TestBuildRateKey(t *testing.T) {
	c, _ := newContext(http.MethodPost, "/api/auth/login", "")
	c.SetPath("/api/auth/login")
	c.Request().RemoteAddr = "10.0.0.1:1234"
	c.Set("user_id", "7")

	cases := map[string]string{
		"ip":       "rl:ip:10.0.0.1",
		"user":     "rl:user:7",
		"ip_route": "rl:ip:10.0.0.1:route:POST /api/auth/login",
		"":         "rl:ip:10.0.0.1:user:7:route:POST /api/auth/login",
	}
	for strategy, want := range cases {
		got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: strategy}, c)
		if got != want {
			t.Errorf("%q: key = %q, want %q", strategy, got, want)
		}
	}

	anon, _ := newContext(http.MethodGet, "/", "")
	if got := buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "user"}, anon); got != "rl:user:anon" {
		t.Errorf("anonymous key = %q", got)
	}
}

func TestCacheKeyDistinguishesParamsAndQuery(t *testing.T) {
	cfg := config.CacheConfig{Prefix: "cc", KeyStrategy: "route_query"}
	key := func(target, id string) string {
		c, _ := newContext(http.MethodGet, target, "")
		c.SetPath("/api/tmdb/movie/:id")
		c.SetParamNames("id")
		c.SetParamValues(id)
		return cacheKeyFrom(cfg, c)
	}
	a, b := key("/api/tmdb/movie/1", "1"), key("/api/tmdb/movie/2", "2")
	if a == b {
		t.Fatal("different movie ids share a cache key")
	}
	if a != key("/api/tmdb/movie/1", "1") {
		t.Fatal("cache key is not stable")
	}
	if key("/api/tmdb/movie/1?page=2", "1") == a {
		t.Fatal("query string ignored")
	}
	if !strings.HasPrefix(a, "cc:") {
		t.Fatalf("key %q lacks prefix", a)
	}
}

func TestCaptureWriterLimit(t *testing.T) {
	rec := httptest.NewRecorder()
	cw := &captureWriter{ResponseWriter: rec, status: http.StatusOK, limit: 4}
	_, _ = cw.Write([]byte("ab"))
	_, _ = cw.Write([]byte("cde"))
	if !cw.truncated || cw.buf.String() != "ab" || rec.Body.String() != "abcde" {
		t.Fatalf("truncated=%v buf=%q client=%q", cw.truncated, cw.buf.String(), rec.Body.String())
	}
}

var _ SessionVerifier = fakeVerifier{}
