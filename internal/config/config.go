package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the portal.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	Vitality     VitalityConfig
	Upload       UploadConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters.
type AuthConfig struct {
	JWTSecret               string
	AccessTokenTTLMinutes   int
	PasswordResetTTLMinutes int
	BcryptCost              int
}

// NotificationConfig holds stub notification endpoints.
type NotificationConfig struct {
	EmailFrom  string
	WebhookURL string
}

// VitalityConfig supplies the policy constants consumed by the vitality
// engine. Ward populations and thresholds are deployment inputs, not
// decisions made by the engine itself.
type VitalityConfig struct {
	DefaultWardPopulation int
	WardPopulations       map[string]int
	LocalThreshold        float64
	StateThreshold        float64
	NationalThreshold     float64
	BadgeSupportThreshold float64
	HotIssueThreshold     float64
}

// UploadConfig bounds issue media uploads.
type UploadConfig struct {
	Dir      string
	MaxBytes int64
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	wardPopulations, err := parseWardPopulations(os.Getenv("VITALITY_WARD_POPULATIONS"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "civicpulse"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:               getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes:   getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			PasswordResetTTLMinutes: getEnvAsInt("AUTH_PASSWORD_RESET_TTL_MINUTES", 30),
			BcryptCost:              getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			EmailFrom:  getEnv("NOTIFY_EMAIL_FROM", "noreply@civicpulse.example"),
			WebhookURL: getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		Vitality: VitalityConfig{
			DefaultWardPopulation: getEnvAsInt("VITALITY_DEFAULT_WARD_POPULATION", 10000),
			WardPopulations:       wardPopulations,
			LocalThreshold:        getEnvAsFloat("VITALITY_LOCAL_THRESHOLD", 10),
			StateThreshold:        getEnvAsFloat("VITALITY_STATE_THRESHOLD", 25),
			NationalThreshold:     getEnvAsFloat("VITALITY_NATIONAL_THRESHOLD", 50),
			BadgeSupportThreshold: getEnvAsFloat("VITALITY_BADGE_SUPPORT_THRESHOLD", 20),
			HotIssueThreshold:     getEnvAsFloat("HOT_ISSUE_SUPPORT_THRESHOLD", 20),
		},
		Upload: UploadConfig{
			Dir:      getEnv("UPLOAD_DIR", "uploads"),
			MaxBytes: int64(getEnvAsInt("UPLOAD_MAX_BYTES", 10*1024*1024)),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// PopulationFor looks up the population of a ward, falling back to the
// deployment-wide default when the ward has no configured figure.
func (v VitalityConfig) PopulationFor(wardNumber string) int {
	if pop, ok := v.WardPopulations[wardNumber]; ok {
		return pop
	}
	return v.DefaultWardPopulation
}

// parseWardPopulations parses "Ward 184:12000,Ward 12:8000" style overrides.
func parseWardPopulations(raw string) (map[string]int, error) {
	populations := make(map[string]int)
	if strings.TrimSpace(raw) == "" {
		return populations, nil
	}
	for _, pair := range strings.Split(raw, ",") {
		parts := strings.SplitN(pair, ":", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("invalid VITALITY_WARD_POPULATIONS entry %q", pair)
		}
		ward := strings.TrimSpace(parts[0])
		count, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil || count <= 0 {
			return nil, fmt.Errorf("invalid population for ward %q", ward)
		}
		populations[ward] = count
	}
	return populations, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
