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

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Catalogue CatalogueConfig
	Scheduler SchedulerConfig
	Audit     AuditConfig
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

// JWTConfig configures bearer-token validation. The engine never issues
// tokens itself; Secret/Issuer/Audience must match the identity service.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogueConfig points at the external catalogue store.
type CatalogueConfig struct {
	BaseURL       string
	RequestTimeout time.Duration
	CacheTTL      time.Duration
}

// SchedulerConfig holds worker pool sizing and default algorithm parameters.
type SchedulerConfig struct {
	MaxWorkers int

	CSPTimeLimit time.Duration

	GAPopulationSize   int
	GAGenerations      int
	GAMutationRate     float64
	GACrossoverRate    float64
	GAElitismRate      float64
	GATournamentSize   int
	GATimeLimit        time.Duration
}

// AuditConfig toggles the local job-audit log.
type AuditConfig struct {
	Enabled bool
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
		Secret:   v.GetString("JWT_SECRET"),
		Issuer:   v.GetString("JWT_ISSUER"),
		Audience: v.GetString("JWT_AUDIENCE"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalogue = CatalogueConfig{
		BaseURL:        v.GetString("CATALOGUE_BASE_URL"),
		RequestTimeout: parseDuration(v.GetString("CATALOGUE_REQUEST_TIMEOUT"), 30*time.Second),
		CacheTTL:       parseDuration(v.GetString("CATALOGUE_CACHE_TTL"), 30*time.Second),
	}

	cfg.Scheduler = SchedulerConfig{
		MaxWorkers: v.GetInt("SCHEDULER_MAX_WORKERS"),

		CSPTimeLimit: parseDuration(v.GetString("CSP_TIME_LIMIT"), 60*time.Second),

		GAPopulationSize: v.GetInt("GA_POPULATION_SIZE"),
		GAGenerations:    v.GetInt("GA_GENERATIONS"),
		GAMutationRate:   v.GetFloat64("GA_MUTATION_RATE"),
		GACrossoverRate:  v.GetFloat64("GA_CROSSOVER_RATE"),
		GAElitismRate:    v.GetFloat64("GA_ELITISM_RATE"),
		GATournamentSize: v.GetInt("GA_TOURNAMENT_SIZE"),
		GATimeLimit:      parseDuration(v.GetString("GA_TIME_LIMIT"), 60*time.Second),
	}

	cfg.Audit = AuditConfig{
		Enabled: v.GetBool("ENABLE_AUDIT_LOG"),
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
	v.SetDefault("DB_NAME", "scheduler_engine")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "identity-service")
	v.SetDefault("JWT_AUDIENCE", "scheduler-engine")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOGUE_BASE_URL", "http://localhost:4000")
	v.SetDefault("CATALOGUE_REQUEST_TIMEOUT", "30s")
	v.SetDefault("CATALOGUE_CACHE_TTL", "30s")

	v.SetDefault("SCHEDULER_MAX_WORKERS", 2)

	v.SetDefault("CSP_TIME_LIMIT", "60s")

	v.SetDefault("GA_POPULATION_SIZE", 50)
	v.SetDefault("GA_GENERATIONS", 100)
	v.SetDefault("GA_MUTATION_RATE", 0.10)
	v.SetDefault("GA_CROSSOVER_RATE", 0.80)
	v.SetDefault("GA_ELITISM_RATE", 0.10)
	v.SetDefault("GA_TOURNAMENT_SIZE", 5)
	v.SetDefault("GA_TIME_LIMIT", "60s")

	v.SetDefault("ENABLE_AUDIT_LOG", true)
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
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
