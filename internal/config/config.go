package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// DefaultBackendURL is used when BACKEND_API_URL is not set.
const DefaultBackendURL = "http://localhost:5000/api/v1"

type Config struct {
	Port            int
	MasterSecret    string
	BackendAPIURL   string
	GinMode         string
	TLSCertFile     string
	TLSKeyFile      string
	TokenExpiry     time.Duration
	StrictVerify    bool
	SessionFile     string
	ApprovalLogFile string
	ApprovalLogDSN  string
	LoginRateLimit  int
}

type Env interface {
	Getenv(key string) string
}

type osEnv struct{}

func (osEnv) Getenv(key string) string { return os.Getenv(key) }

func LoadConfig() (Config, error) {
	return LoadConfigFromEnv(osEnv{})
}

func LoadConfigFromEnv(env Env) (Config, error) {
	cfg := Config{
		Port:           3000,
		BackendAPIURL:  DefaultBackendURL,
		GinMode:        "release",
		TokenExpiry:    12 * time.Hour,
		LoginRateLimit: 10,
	}

	if raw := env.Getenv("PORT"); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil || port <= 0 || port > 65535 {
			return Config{}, fmt.Errorf("invalid PORT")
		}
		cfg.Port = port
	}

	cfg.MasterSecret = env.Getenv("MASTER_SECRET")
	if cfg.MasterSecret == "" {
		return Config{}, fmt.Errorf("MASTER_SECRET is required")
	}

	if raw := env.Getenv("BACKEND_API_URL"); raw != "" {
		cfg.BackendAPIURL = raw
	}

	if raw := env.Getenv("GIN_MODE"); raw != "" {
		cfg.GinMode = raw
	}

	cfg.TLSCertFile = env.Getenv("TLS_CERT_FILE")
	cfg.TLSKeyFile = env.Getenv("TLS_KEY_FILE")

	if raw := env.Getenv("TOKEN_EXPIRY_SECONDS"); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("invalid TOKEN_EXPIRY_SECONDS")
		}
		cfg.TokenExpiry = time.Duration(seconds) * time.Second
	}

	if raw := env.Getenv("STRICT_VERIFY"); raw != "" {
		strict, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("invalid STRICT_VERIFY")
		}
		cfg.StrictVerify = strict
	}

	cfg.SessionFile = env.Getenv("SESSION_STATE_FILE")
	cfg.ApprovalLogFile = env.Getenv("APPROVAL_LOG_FILE")
	cfg.ApprovalLogDSN = env.Getenv("APPROVAL_LOG_DSN")

	if raw := env.Getenv("LOGIN_RATE_LIMIT"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			return Config{}, fmt.Errorf("invalid LOGIN_RATE_LIMIT")
		}
		cfg.LoginRateLimit = limit
	}

	return cfg, nil
}
