package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	App struct {
		// dev | staging | prod
		Env string `yaml:"app_env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	SSO struct {
		// jws (header.payload.signature) | compact (payload.signature).
		// Fixed at startup; tokens are never shape-sniffed.
		TokenShape string `yaml:"token_shape"`

		HMACSecret     string `yaml:"hmac_secret"`
		ExpectedIssuer string `yaml:"expected_issuer"`

		// CredentialSecret keys the derived per-user credential. Rotating it
		// strands existing users, so treat it like a database password.
		CredentialSecret string `yaml:"credential_secret"`

		// AllowExpiredTokens skips expiry enforcement. Force-cleared in prod.
		AllowExpiredTokens bool `yaml:"allow_expired_tokens"`
	} `yaml:"sso"`

	Auth struct {
		Session struct {
			CookieName string `yaml:"cookie_name"`
			Domain     string `yaml:"domain"`
			SameSite   string `yaml:"samesite"`
			Secure     bool   `yaml:"secure"`
			TTL        string `yaml:"ttl"`
		} `yaml:"session"`
	} `yaml:"auth"`

	Storage struct {
		DSN string `yaml:"dsn"`
		// Timeout bounds each exchange's store phase.
		Timeout string `yaml:"timeout"`
	} `yaml:"storage"`

	Cache struct {
		Kind  string `yaml:"kind"`
		Redis struct {
			Addr     string `yaml:"addr"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			Prefix   string `yaml:"prefix"`
		} `yaml:"redis"`
	} `yaml:"cache"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Limit   int    `yaml:"limit"`
		Window  string `yaml:"window"`
	} `yaml:"rate"`

	Redirect struct {
		BaseURL   string `yaml:"base_url"`
		PlansPath string `yaml:"plans_path"`
	} `yaml:"redirect"`
}

// placeholders that must never reach a running service as a secret.
var placeholderSecrets = []string{"changeme", "secret", "example"}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	// sane defaults
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.SSO.TokenShape == "" {
		c.SSO.TokenShape = "jws"
	}
	if c.Cache.Kind == "" {
		c.Cache.Kind = "memory"
	}
	if c.Auth.Session.CookieName == "" {
		c.Auth.Session.CookieName = "sid"
	}
	if c.Auth.Session.SameSite == "" {
		c.Auth.Session.SameSite = "Lax"
	}
	if c.Auth.Session.TTL == "" {
		c.Auth.Session.TTL = "12h"
	}
	if c.Storage.Timeout == "" {
		c.Storage.Timeout = "5s"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 30
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "1m"
	}
	if c.Redirect.PlansPath == "" {
		c.Redirect.PlansPath = "/dashboard/billing/plans"
	}

	c.applyEnvOverrides()

	// Guardia dura: prod never skips expiry and never ships insecure cookies.
	if strings.EqualFold(c.App.Env, "prod") {
		c.SSO.AllowExpiredTokens = false
		c.Auth.Session.Secure = true
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// ---- Helpers env ----

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}
func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}
func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}

func (c *Config) applyEnvOverrides() {
	// APP
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}

	// SERVER
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}

	// SSO
	if v, ok := getEnvStr("SSO_TOKEN_SHAPE"); ok {
		c.SSO.TokenShape = strings.ToLower(strings.TrimSpace(v))
	}
	if v, ok := getEnvStr("SSO_HMAC_SECRET"); ok {
		c.SSO.HMACSecret = v
	}
	if v, ok := getEnvStr("SSO_EXPECTED_ISSUER"); ok {
		c.SSO.ExpectedIssuer = v
	}
	if v, ok := getEnvStr("SSO_CREDENTIAL_SECRET"); ok {
		c.SSO.CredentialSecret = v
	}
	if v, ok := getEnvBool("SSO_ALLOW_EXPIRED_TOKENS"); ok {
		c.SSO.AllowExpiredTokens = v
	}

	// AUTH
	if v, ok := getEnvStr("AUTH_SESSION_COOKIE_NAME"); ok {
		c.Auth.Session.CookieName = v
	}
	if v, ok := getEnvStr("AUTH_SESSION_DOMAIN"); ok {
		c.Auth.Session.Domain = v
	}
	if v, ok := getEnvStr("AUTH_SESSION_SAMESITE"); ok {
		c.Auth.Session.SameSite = v
	}
	if v, ok := getEnvBool("AUTH_SESSION_SECURE"); ok {
		c.Auth.Session.Secure = v
	}
	if v, ok := getEnvStr("AUTH_SESSION_TTL"); ok {
		c.Auth.Session.TTL = v
	}

	// STORAGE
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("STORAGE_TIMEOUT"); ok {
		c.Storage.Timeout = v
	}

	// CACHE
	if v, ok := getEnvStr("CACHE_KIND"); ok {
		c.Cache.Kind = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Cache.Redis.Addr = v
	}
	if v, ok := getEnvStr("REDIS_PASSWORD"); ok {
		c.Cache.Redis.Password = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Cache.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Cache.Redis.Prefix = v
	}

	// RATE
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}

	// REDIRECT
	if v, ok := getEnvStr("REDIRECT_BASE_URL"); ok {
		c.Redirect.BaseURL = v
	}
	if v, ok := getEnvStr("REDIRECT_PLANS_PATH"); ok {
		c.Redirect.PlansPath = v
	}
}

// Validate refuses configurations that would start a service that cannot
// safely verify or provision anything.
func (c *Config) Validate() error {
	switch c.SSO.TokenShape {
	case "jws", "compact":
	default:
		return fmt.Errorf("config: sso.token_shape must be jws or compact, got %q", c.SSO.TokenShape)
	}

	if err := checkSecret("sso.hmac_secret", c.SSO.HMACSecret); err != nil {
		return err
	}
	if err := checkSecret("sso.credential_secret", c.SSO.CredentialSecret); err != nil {
		return err
	}
	if strings.TrimSpace(c.SSO.ExpectedIssuer) == "" {
		return fmt.Errorf("config: sso.expected_issuer is required")
	}

	for _, field := range []struct{ name, val string }{
		{"auth.session.ttl", c.Auth.Session.TTL},
		{"storage.timeout", c.Storage.Timeout},
		{"rate.window", c.Rate.Window},
	} {
		if _, err := time.ParseDuration(field.val); err != nil {
			return fmt.Errorf("config: %s: %w", field.name, err)
		}
	}

	switch c.Cache.Kind {
	case "memory":
	case "redis":
		if strings.TrimSpace(c.Cache.Redis.Addr) == "" {
			return fmt.Errorf("config: cache.redis.addr is required when cache.kind=redis")
		}
	default:
		return fmt.Errorf("config: cache.kind must be memory or redis, got %q", c.Cache.Kind)
	}

	return nil
}

func checkSecret(name, v string) error {
	v = strings.TrimSpace(v)
	if v == "" {
		return fmt.Errorf("config: %s is required", name)
	}
	if len(v) < 16 {
		return fmt.Errorf("config: %s is too short (min 16 bytes)", name)
	}
	low := strings.ToLower(v)
	for _, p := range placeholderSecrets {
		if strings.Contains(low, p) {
			return fmt.Errorf("config: %s looks like a placeholder (%q)", name, p)
		}
	}
	return nil
}

// SessionTTL returns the parsed session lifetime. Call after Validate.
func (c *Config) SessionTTL() time.Duration {
	d, _ := time.ParseDuration(c.Auth.Session.TTL)
	return d
}

// StoreTimeout returns the parsed per-exchange store deadline.
func (c *Config) StoreTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Storage.Timeout)
	return d
}

// RateWindow returns the parsed fixed-window size.
func (c *Config) RateWindow() time.Duration {
	d, _ := time.ParseDuration(c.Rate.Window)
	return d
}
