package config

import (
	"strings"
	"time"
)

// CacheConfig defines settings for the response cache middleware.
// KeyStrategy determines which parts of the request contribute to the key:
// route, method_route, method_route_query or route_query (default).
type CacheConfig struct {
	Enabled      bool          `env:"CACHE_ENABLED" env-default:"true"`
	Methods      string        `env:"CACHE_METHODS" env-default:"GET"`
	TTL          time.Duration `env:"CACHE_TTL" env-default:"30s"`
	KeyStrategy  string        `env:"CACHE_KEY_STRATEGY" env-default:"route_query"`
	Prefix       string        `env:"CACHE_PREFIX" env-default:"cache"`
	MaxBodyBytes int           `env:"CACHE_MAX_BODY_BYTES" env-default:"1048576"`
}

func (c *CacheConfig) normalize() {
	if c.TTL <= 0 {
		c.TTL = 30 * time.Second
	}
	if c.Prefix == "" {
		c.Prefix = "cache"
	}
}

// MethodSet returns the upper-cased HTTP methods whose responses are cached.
func (c CacheConfig) MethodSet() map[string]bool {
	return parseMethods(c.Methods)
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
