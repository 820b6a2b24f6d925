// Package config reads the portal settings from the environment. A .env
// file in the working directory is loaded first; variables already set in
// the process environment win.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Session store backends
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreRedis  = "redis"
)

// EnvProduction enables secure cookies and requires explicit keys.
const EnvProduction = "production"

// keyLen is the length of the session sealing and CSRF keys.
const keyLen = 32

// Config holds all configuration for the portal.
type Config struct {
	Addr           string
	Env            string
	BackendURL     string
	BackendTimeout time.Duration
	DBPath         string
	SessionStore   string
	Redis          RedisConfig
	SessionKey     []byte
	CSRFKey        []byte
	SessionTTL     time.Duration
	RateLimit      int
	RateBurst      int
	SlowRequest    time.Duration
	LogLevel       string
	LogFormat      string
}

// RedisConfig locates the optional shared session store.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Production reports whether the portal runs in production.
func (c Config) Production() bool {
	return c.Env == EnvProduction
}

// Load reads .env (when present) and the OTTER_* variables.
// PRE: none
// POST: Returns a validated Config or the first invalid setting
func Load() (Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			return Config{}, fmt.Errorf("load .env: %w", err)
		}
	}
	return FromLookup(os.LookupEnv)
}

// FromLookup builds a Config from lookup, which has the signature of os.LookupEnv.
func FromLookup(lookup func(string) (string, bool)) (Config, error) {
	get := func(key, fallback string) string {
		if v, ok := lookup(key); ok && v != "" {
			return v
		}
		return fallback
	}

	var errs []error
	duration := func(key, fallback string) time.Duration {
		d, err := time.ParseDuration(get(key, fallback))
		if err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("%s: invalid duration %q", key, get(key, fallback)))
		}
		return d
	}
	integer := func(key, fallback string) int {
		n, err := strconv.Atoi(get(key, fallback))
		if err != nil || n < 0 {
			errs = append(errs, fmt.Errorf("%s: invalid number %q", key, get(key, fallback)))
		}
		return n
	}

	c := Config{
		Addr:           get("OTTER_ADDR", ":8080"),
		Env:            get("OTTER_ENV", "development"),
		BackendURL:     get("OTTER_BACKEND_URL", "http://localhost:8081"),
		BackendTimeout: duration("OTTER_BACKEND_TIMEOUT", "15s"),
		DBPath:         get("OTTER_DB_PATH", "otterpoint.db"),
		SessionStore:   get("OTTER_SESSION_STORE", StoreSQLite),
		Redis: RedisConfig{
			Addr:     get("OTTER_REDIS_ADDR", ""),
			Password: get("OTTER_REDIS_PASSWORD", ""),
			DB:       integer("OTTER_REDIS_DB", "0"),
		},
		SessionTTL:  duration("OTTER_SESSION_TTL", "24h"),
		RateLimit:   integer("OTTER_RATE_LIMIT", "10"),
		RateBurst:   integer("OTTER_RATE_BURST", "30"),
		SlowRequest: time.Duration(integer("OTTER_SLOW_REQUEST_MS", "500")) * time.Millisecond,
		LogLevel:    get("OTTER_LOG_LEVEL", "info"),
		LogFormat:   get("OTTER_LOG_FORMAT", "text"),
	}

	u, err := url.Parse(c.BackendURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, fmt.Errorf("OTTER_BACKEND_URL: must be an absolute http(s) URL, got %q", c.BackendURL))
	}
	switch c.SessionStore {
	case StoreMemory, StoreSQLite:
	case StoreRedis:
		if c.Redis.Addr == "" {
			errs = append(errs, errors.New("OTTER_REDIS_ADDR: required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("OTTER_SESSION_STORE: unknown store %q", c.SessionStore))
	}
	if c.RateLimit < 1 || c.RateBurst < 1 {
		errs = append(errs, errors.New("OTTER_RATE_LIMIT and OTTER_RATE_BURST must be at least 1"))
	}

	c.SessionKey, err = key(lookup, "OTTER_SESSION_KEY", c.Production())
	if err != nil {
		errs = append(errs, err)
	}
	c.CSRFKey, err = key(lookup, "OTTER_CSRF_KEY", c.Production())
	if err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return Config{}, errors.Join(errs...)
	}
	return c, nil
}

// key decodes a 32-byte hex key. Outside production a missing key is
// replaced by a random one, so sessions do not survive a restart.
func key(lookup func(string) (string, bool), name string, required bool) ([]byte, error) {
	v, ok := lookup(name)
	if !ok || v == "" {
		if required {
			return nil, fmt.Errorf("%s: required in production", name)
		}
		k := make([]byte, keyLen)
		if _, err := rand.Read(k); err != nil {
			return nil, fmt.Errorf("%s: generate: %w", name, err)
		}
		return k, nil
	}
	k, err := hex.DecodeString(v)
	if err != nil || len(k) != keyLen {
		return nil, fmt.Errorf("%s: must be %d hex-encoded bytes", name, keyLen)
	}
	return k, nil
}
