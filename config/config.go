package config

import (
	"errors"
	"fmt"
	"net"
	neturl "net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// PortEnv is the variable hosting platforms use to inject the bind port.
	PortEnv = "PORT"
	// DefaultPort is used when PortEnv is not set.
	DefaultPort = 8000
	// DefaultShutdownGrace bounds how long in-flight requests may run after a termination signal.
	DefaultShutdownGrace = 10 * time.Second
	// DefaultKeepaliveMessage is served on "/" for platforms that ping idle services.
	DefaultKeepaliveMessage = "Bot is Alive"

	minRuntimeSecretLength = 32
)

// Config holds the startup configuration of the runner. It is resolved once
// from the environment and passed explicitly to everything that needs it.
type Config struct {
	Port              int
	Host              string
	ShutdownGrace     time.Duration
	Environment       string
	ServiceName       string
	KeepaliveMessage  string
	TrustProxyHeaders bool
	MetricsEnabled    bool

	DatabaseURL       string
	RedisURL          string
	RedisPassword     string
	MongoURI          string
	DependencyTimeout time.Duration
	ProbeInterval     time.Duration

	RuntimeJWTSecret []byte
}

// FromEnv builds a validated Config from an environment mapping. It never
// consults the process environment, so callers control exactly what it sees.
func FromEnv(env map[string]string) (*Config, error) {
	port, err := ResolvePort(env, DefaultPort)
	if err != nil {
		return nil, err
	}

	host, err := resolveHost(env)
	if err != nil {
		return nil, err
	}

	grace, err := GetEnvAsDuration(env, "SHUTDOWN_GRACE_PERIOD", DefaultShutdownGrace)
	if err != nil {
		return nil, err
	}
	depTimeout, err := GetEnvAsDuration(env, "DEPENDENCY_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	probeInterval, err := GetEnvAsDuration(env, "PROBE_INTERVAL", time.Minute)
	if err != nil {
		return nil, err
	}

	var runtimeSecret []byte
	if secret := strings.TrimSpace(env["RUNTIME_JWT_SECRET"]); secret != "" {
		if len(secret) < minRuntimeSecretLength {
			return nil, &ConfigurationError{
				Key:    "RUNTIME_JWT_SECRET",
				Value:  "<redacted>",
				Reason: fmt.Sprintf("must be at least %d characters long", minRuntimeSecretLength),
			}
		}
		runtimeSecret = []byte(secret)
	}

	dbURL := GetEnvOrDefault(env, "DATABASE_URL", "")
	if dbURL == "" {
		dbURL = buildDatabaseURLFromEnv(env)
	}

	return &Config{
		Port:              port,
		Host:              host,
		ShutdownGrace:     grace,
		Environment:       GetEnvOrDefault(env, "APP_ENV", "development"),
		ServiceName:       GetEnvOrDefault(env, "SERVICE_NAME", "bootstrap-runner"),
		KeepaliveMessage:  GetEnvOrDefault(env, "KEEPALIVE_MESSAGE", DefaultKeepaliveMessage),
		TrustProxyHeaders: GetEnvAsBool(env, "TRUST_PROXY_HEADERS", false),
		MetricsEnabled:    GetEnvAsBool(env, "ENABLE_METRICS", true),
		DatabaseURL:       dbURL,
		RedisURL:          normalizeRedisAddress(GetEnvOrDefault(env, "REDIS_URL", "")),
		RedisPassword:     resolveRedisPassword(env["REDIS_URL"], env["REDIS_PASSWORD"]),
		MongoURI:          GetEnvOrDefault(env, "MONGO_URI", ""),
		DependencyTimeout: depTimeout,
		ProbeInterval:     probeInterval,
		RuntimeJWTSecret:  runtimeSecret,
	}, nil
}

// ResolvePort returns the port named by PortEnv, or fallback when the
// variable is absent or blank. A present value that is not a decimal
// integer in 1..65535 is a ConfigurationError; it is never replaced.
func ResolvePort(env map[string]string, fallback int) (int, error) {
	raw, ok := env[PortEnv]
	value := strings.TrimSpace(raw)
	if !ok || value == "" {
		return fallback, nil
	}

	port, err := strconv.ParseUint(value, 10, 16)
	if err != nil {
		reason := "must be a base-10 integer"
		if errors.Is(err, strconv.ErrRange) {
			reason = "must not exceed 65535"
		}
		return 0, &ConfigurationError{Key: PortEnv, Value: raw, Reason: reason, Err: err}
	}
	if port == 0 {
		return 0, &ConfigurationError{Key: PortEnv, Value: raw, Reason: "must be between 1 and 65535"}
	}
	return int(port), nil
}

// Address returns the host:port pair the runner binds. An empty host means
// all interfaces.
func (c *Config) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// Redacted returns the configuration with secrets removed, suitable for
// diagnostics endpoints and startup logs.
func (c *Config) Redacted() map[string]interface{} {
	host := c.Host
	if host == "" {
		host = "*"
	}
	return map[string]interface{}{
		"service":             c.ServiceName,
		"environment":         c.Environment,
		"host":                host,
		"port":                c.Port,
		"shutdown_grace":      c.ShutdownGrace.String(),
		"dependency_timeout":  c.DependencyTimeout.String(),
		"probe_interval":      c.ProbeInterval.String(),
		"metrics_enabled":     c.MetricsEnabled,
		"trust_proxy_headers": c.TrustProxyHeaders,
		"database":            redactURL(c.DatabaseURL),
		"redis":               c.RedisURL,
		"mongo":               redactURL(c.MongoURI),
	}
}

func resolveHost(env map[string]string) (string, error) {
	host := strings.TrimSpace(env["HOST"])
	if host == "" || host == "localhost" {
		return host, nil
	}
	trimmed := strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if net.ParseIP(trimmed) == nil {
		return "", &ConfigurationError{Key: "HOST", Value: host, Reason: "must be an IP address or localhost"}
	}
	return trimmed, nil
}

// GetEnvOrDefault returns the trimmed value of key, or defaultValue when it is unset or blank.
func GetEnvOrDefault(env map[string]string, key, defaultValue string) string {
	if value := strings.TrimSpace(env[key]); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvAsBool parses key as a boolean, keeping defaultValue for unrecognised input.
func GetEnvAsBool(env map[string]string, key string, defaultValue bool) bool {
	if value := strings.TrimSpace(env[key]); value != "" {
		value = strings.ToLower(value)
		if value == "true" || value == "1" || value == "yes" {
			return true
		}
		if value == "false" || value == "0" || value == "no" {
			return false
		}
	}
	return defaultValue
}

// GetEnvAsDuration parses key as a Go duration ("15s") or a bare number of
// seconds ("15"). The result must be positive.
func GetEnvAsDuration(env map[string]string, key string, defaultValue time.Duration) (time.Duration, error) {
	raw := strings.TrimSpace(env[key])
	if raw == "" {
		return defaultValue, nil
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		if secs <= 0 {
			return 0, &ConfigurationError{Key: key, Value: raw, Reason: "must be positive"}
		}
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "must be a duration such as 10s", Err: err}
	}
	if d <= 0 {
		return 0, &ConfigurationError{Key: key, Value: raw, Reason: "must be positive"}
	}
	return d, nil
}

// normalizeRedisAddress converts redis:// URLs into host[:port] that go-redis expects.
func normalizeRedisAddress(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" || !strings.Contains(trimmed, "://") {
		return trimmed
	}
	u, err := neturl.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if u.Host != "" {
		return u.Host
	}
	return trimmed
}

// resolveRedisPassword returns an explicit password if provided, otherwise pulls
// the password component from a redis:// URL when available.
func resolveRedisPassword(redisURL, explicit string) string {
	if explicit != "" {
		return explicit
	}
	trimmed := strings.TrimSpace(redisURL)
	if trimmed == "" || !strings.Contains(trimmed, "://") {
		return explicit
	}
	u, err := neturl.Parse(trimmed)
	if err != nil {
		return explicit
	}
	if u.User != nil {
		if pw, ok := u.User.Password(); ok && pw != "" {
			return pw
		}
	}
	return explicit
}

// buildDatabaseURLFromEnv builds a postgres URL from the PG* variables that
// managed Postgres add-ons inject. Returns "" unless host, user and database are all set.
func buildDatabaseURLFromEnv(env map[string]string) string {
	host := strings.TrimSpace(env["PGHOST"])
	user := strings.TrimSpace(env["PGUSER"])
	db := strings.TrimSpace(env["PGDATABASE"])
	if host == "" || user == "" || db == "" {
		return ""
	}
	port := GetEnvOrDefault(env, "PGPORT", "5432")
	sslmode := GetEnvOrDefault(env, "PGSSLMODE", "require")

	u := &neturl.URL{
		Scheme: "postgres",
		User:   neturl.UserPassword(user, env["PGPASSWORD"]),
		Host:   net.JoinHostPort(host, port),
		Path:   "/" + db,
	}
	q := neturl.Values{}
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}

func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := neturl.Parse(raw)
	if err != nil || u.Host == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	return u.String()
}
