package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	RateLimit    RateLimitConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	BigQuery     BigQueryConfig
	Analytics    AnalyticsConfig
	Gemini       GeminiConfig
	Forecast     ForecastConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	if err := cfg.Forecast.validate(); err != nil {
		return nil, err
	}
	if cfg.Forecast.HistorySource == HistorySourceBigQuery && strings.TrimSpace(cfg.GCP.ProjectID) == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvGCPProjectID, EnvHistorySource, HistorySourceBigQuery)
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"PACKFINDERZ_APP_ENV" required:"true"`
	Port         string `envconfig:"PACKFINDERZ_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"PACKFINDERZ_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"PACKFINDERZ_LOG_WARN_STACK" default:"false"`

	CORSOrigins []string `envconfig:"PACKFINDERZ_CORS_ORIGINS"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"PACKFINDERZ_DB_DSN"`
	Driver string `envconfig:"PACKFINDERZ_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"PACKFINDERZ_DB_HOST"`
	LegacyPort     int    `envconfig:"PACKFINDERZ_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"PACKFINDERZ_DB_USER"`
	LegacyPassword string `envconfig:"PACKFINDERZ_DB_PASSWORD"`
	LegacyName     string `envconfig:"PACKFINDERZ_DB_NAME"`
	LegacySSLMode  string `envconfig:"PACKFINDERZ_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"PACKFINDERZ_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"PACKFINDERZ_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"PACKFINDERZ_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"PACKFINDERZ_REDIS_URL" required:"true"`
	Address      string        `envconfig:"PACKFINDERZ_REDIS_ADDR"`
	Password     string        `envconfig:"PACKFINDERZ_REDIS_PASSWORD"`
	DB           int           `envconfig:"PACKFINDERZ_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"PACKFINDERZ_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"PACKFINDERZ_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"PACKFINDERZ_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"PACKFINDERZ_REDIS_WRITE_TIMEOUT" default:"5s"`
}

// JWTConfig verifies access tokens minted by the marketplace API. The
// expiration is only used when this service mints tokens itself (tests, dev).
type JWTConfig struct {
	Secret            string `envconfig:"PACKFINDERZ_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"PACKFINDERZ_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"PACKFINDERZ_JWT_EXPIRATION_MINUTES" default:"60"`
}

// RateLimitConfig bounds forecast calls per store. Scenario comparisons count
// once per call regardless of how many scenarios they compute.
type RateLimitConfig struct {
	ForecastWindow time.Duration `envconfig:"PACKFINDERZ_FORECAST_RATE_LIMIT_WINDOW" default:"1m"`
	ForecastLimit  int           `envconfig:"PACKFINDERZ_FORECAST_RATE_LIMIT" default:"30"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"PACKFINDERZ_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"PACKFINDERZ_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"PACKFINDERZ_GCP_PROJECT_ID"`
	CredentialsJSON        string `envconfig:"PACKFINDERZ_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"PACKFINDERZ_GOOGLE_APPLICATION_CREDENTIALS"`
}

type BigQueryConfig struct {
	Dataset                string `envconfig:"PACKFINDERZ_BIGQUERY_DATASET" default:"packfinderz"`
	MarketplaceEventsTable string `envconfig:"PACKFINDERZ_BIGQUERY_MARKETPLACE_TABLE" default:"marketplace_events"`
}

// AnalyticsConfig points at the external forecasting service. An empty URL
// disables it and every forecast is served by the trend engine.
type AnalyticsConfig struct {
	BaseURL string        `envconfig:"PACKFINDERZ_ANALYTICS_URL"`
	APIKey  string        `envconfig:"PACKFINDERZ_ANALYTICS_API_KEY"`
	Timeout time.Duration `envconfig:"PACKFINDERZ_ANALYTICS_TIMEOUT" default:"10s"`
}

func (a AnalyticsConfig) Enabled() bool {
	return strings.TrimSpace(a.BaseURL) != ""
}

type GeminiConfig struct {
	APIKey  string        `envconfig:"PACKFINDERZ_GEMINI_API_KEY"`
	Model   string        `envconfig:"PACKFINDERZ_GEMINI_MODEL" default:"gemini-2.0-flash"`
	Timeout time.Duration `envconfig:"PACKFINDERZ_GEMINI_TIMEOUT" default:"20s"`
}

func (g GeminiConfig) Enabled() bool {
	return strings.TrimSpace(g.APIKey) != ""
}

type ForecastConfig struct {
	HistorySource      string        `envconfig:"PACKFINDERZ_HISTORY_SOURCE" default:"db"`
	MaxConcurrency     int           `envconfig:"PACKFINDERZ_FORECAST_MAX_CONCURRENCY" default:"3"`
	ScenarioTimeout    time.Duration `envconfig:"PACKFINDERZ_SCENARIO_TIMEOUT" default:"30s"`
	ScenarioSessionTTL time.Duration `envconfig:"PACKFINDERZ_SCENARIO_SESSION_TTL" default:"30m"`
	NarrativeAttempts  int           `envconfig:"PACKFINDERZ_NARRATIVE_MAX_ATTEMPTS" default:"3"`
	NarrativeBackoff   time.Duration `envconfig:"PACKFINDERZ_NARRATIVE_INITIAL_BACKOFF" default:"1s"`
}

func (f *ForecastConfig) validate() error {
	f.HistorySource = strings.ToLower(strings.TrimSpace(f.HistorySource))
	switch f.HistorySource {
	case HistorySourceDB, HistorySourceBigQuery:
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvHistorySource, HistorySourceDB, HistorySourceBigQuery, f.HistorySource)
	}
	if f.MaxConcurrency < 1 {
		return fmt.Errorf("%s must be >= 1", EnvMaxConcurrency)
	}
	if f.ScenarioTimeout <= 0 {
		return fmt.Errorf("%s must be positive", EnvScenarioTimeout)
	}
	if f.NarrativeAttempts < 1 {
		f.NarrativeAttempts = 1
	}
	return nil
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
