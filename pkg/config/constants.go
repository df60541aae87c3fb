package config

const EnvPrefix = "PACKFINDERZ"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	HistorySourceDB       = "db"
	HistorySourceBigQuery = "bigquery"
)

const (
	EnvAppEnv   = "PACKFINDERZ_APP_ENV"
	EnvPort     = "PACKFINDERZ_APP_PORT"
	EnvLogLevel = "PACKFINDERZ_LOG_LEVEL"

	EnvDBDSN      = "PACKFINDERZ_DB_DSN"
	EnvDBHost     = "PACKFINDERZ_DB_HOST"
	EnvDBUser     = "PACKFINDERZ_DB_USER"
	EnvDBPassword = "PACKFINDERZ_DB_PASSWORD"
	EnvDBName     = "PACKFINDERZ_DB_NAME"

	EnvRedisURL = "PACKFINDERZ_REDIS_URL"

	EnvJWTSecret = "PACKFINDERZ_JWT_SECRET"
	EnvJWTIssuer = "PACKFINDERZ_JWT_ISSUER"

	EnvGCPProjectID     = "PACKFINDERZ_GCP_PROJECT_ID"
	EnvHistorySource    = "PACKFINDERZ_HISTORY_SOURCE"
	EnvAnalyticsURL     = "PACKFINDERZ_ANALYTICS_URL"
	EnvAnalyticsTimeout = "PACKFINDERZ_ANALYTICS_TIMEOUT"
	EnvGeminiAPIKey     = "PACKFINDERZ_GEMINI_API_KEY"
	EnvGeminiModel      = "PACKFINDERZ_GEMINI_MODEL"
	EnvScenarioTimeout  = "PACKFINDERZ_SCENARIO_TIMEOUT"
	EnvMaxConcurrency   = "PACKFINDERZ_FORECAST_MAX_CONCURRENCY"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
