package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database   DatabaseConfig
	Redis      RedisConfig
	JWT        JWTConfig
	CORS       CORSConfig
	Log        LogConfig
	Enrollment EnrollmentConfig
	Lookup     LookupConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// EnrollmentConfig tunes the enrollment wizard and its collaborators.
type EnrollmentConfig struct {
	DraftTTL             time.Duration
	HorizonMonths        int
	BusinessOpen         string
	BusinessClose        string
	ConflictCheckTimeout time.Duration
	SubmitTimeout        time.Duration
}

// LookupConfig governs type-ahead search caching.
type LookupConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	MaxResults   int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	horizon := v.GetInt("ENROLLMENT_HORIZON_MONTHS")
	if horizon <= 0 {
		horizon = 3
	}
	cfg.Enrollment = EnrollmentConfig{
		DraftTTL:             parseDuration(v.GetString("ENROLLMENT_DRAFT_TTL"), 2*time.Hour),
		HorizonMonths:        horizon,
		BusinessOpen:         v.GetString("ENROLLMENT_BUSINESS_OPEN"),
		BusinessClose:        v.GetString("ENROLLMENT_BUSINESS_CLOSE"),
		ConflictCheckTimeout: parseDuration(v.GetString("ENROLLMENT_CONFLICT_TIMEOUT"), 5*time.Second),
		SubmitTimeout:        parseDuration(v.GetString("ENROLLMENT_SUBMIT_TIMEOUT"), 10*time.Second),
	}

	cfg.Lookup = LookupConfig{
		CacheEnabled: v.GetBool("LOOKUP_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("LOOKUP_CACHE_TTL"), time.Minute),
		MaxResults:   v.GetInt("LOOKUP_MAX_RESULTS"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutoring_admin")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "tutoring-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ENROLLMENT_DRAFT_TTL", "2h")
	v.SetDefault("ENROLLMENT_HORIZON_MONTHS", 3)
	v.SetDefault("ENROLLMENT_BUSINESS_OPEN", "09:00")
	v.SetDefault("ENROLLMENT_BUSINESS_CLOSE", "22:00")
	v.SetDefault("ENROLLMENT_CONFLICT_TIMEOUT", "5s")
	v.SetDefault("ENROLLMENT_SUBMIT_TIMEOUT", "10s")

	v.SetDefault("LOOKUP_CACHE_ENABLED", true)
	v.SetDefault("LOOKUP_CACHE_TTL", "1m")
	v.SetDefault("LOOKUP_MAX_RESULTS", 20)
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
