package config

import (
	"strings"
	"time"
)

// defaultRouteTTLs keeps movie details, credits and videos longer than
// listings; details rarely change while popular and search results do.
const defaultRouteTTLs = "/api/tmdb/movie/:id=30m,/api/tmdb/movie/:id/credits=30m," +
	"/api/tmdb/movie/:id/videos=30m,/api/tmdb/search=2m"

// CacheConfig configures the Redis response cache in front of the catalog
// proxy.  Caching is off when Enabled is false or no Redis client exists.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool          // HTTP methods to cache, upper case
	TTL          time.Duration            // lifetime of routes without an override
	RouteTTL     map[string]time.Duration // keyed by echo route pattern
	KeyStrategy  string
	Prefix       string
	MaxBodyBytes int // larger responses are served but not stored
}

// LoadCacheConfig reads CACHE_* variables.  CACHE_ROUTE_TTLS is a comma
// separated list of pattern=duration pairs.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      envBool("CACHE_ENABLED", true),
		Methods:      parseMethods(envStr("CACHE_METHODS", "GET")),
		TTL:          envDur("CACHE_TTL", 5*time.Minute),
		RouteTTL:     parseRouteTTLs(envStr("CACHE_ROUTE_TTLS", defaultRouteTTLs)),
		KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       envStr("CACHE_PREFIX", "cinebook:cache"),
		MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

// TTLFor returns the entry lifetime for an echo route pattern such as
// "/api/tmdb/movie/:id".
func (c CacheConfig) TTLFor(route string) time.Duration {
	if d := c.RouteTTL[route]; d > 0 {
		return d
	}
	if c.TTL > 0 {
		return c.TTL
	}
	return 5 * time.Minute
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range splitList(s) {
		m[strings.ToUpper(p)] = true
	}
	return m
}

// parseRouteTTLs skips malformed pairs.
func parseRouteTTLs(s string) map[string]time.Duration {
	out := map[string]time.Duration{}
	for _, pair := range splitList(s) {
		route, dur, ok := strings.Cut(pair, "=")
		if !ok {
			continue
		}
		d, err := time.ParseDuration(strings.TrimSpace(dur))
		if err != nil || d <= 0 {
			continue
		}
		out[strings.TrimSpace(route)] = d
	}
	return out
}
