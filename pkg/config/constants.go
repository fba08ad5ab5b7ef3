package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "HOTSPOTBILL"

// App environments.
const (
	AppEnvDev  = "development"
	AppEnvProd = "production"
)

// Environment variable names used directly in tests and tooling.
const (
	EnvAppEnv    = "HOTSPOTBILL_APP_ENV"
	EnvPort      = "HOTSPOTBILL_APP_PORT"
	EnvDBDSN     = "HOTSPOTBILL_DB_DSN"
	EnvDBHost    = "HOTSPOTBILL_DB_HOST"
	EnvDBUser    = "HOTSPOTBILL_DB_USER"
	EnvDBName    = "HOTSPOTBILL_DB_NAME"
	EnvRedisURL  = "HOTSPOTBILL_REDIS_URL"
	EnvJWTSecret = "HOTSPOTBILL_JWT_SECRET"
	EnvJWTIssuer = "HOTSPOTBILL_JWT_ISSUER"
	EnvJWTExp    = "HOTSPOTBILL_JWT_EXPIRATION_MINUTES"

	EnvGatewayBaseURL = "HOTSPOTBILL_GATEWAY_BASE_URL"
	EnvGatewayAPIKey  = "HOTSPOTBILL_GATEWAY_API_KEY"
	EnvSMSBaseURL     = "HOTSPOTBILL_SMS_BASE_URL"
	EnvSMSUsername    = "HOTSPOTBILL_SMS_USERNAME"
	EnvSMSPassword    = "HOTSPOTBILL_SMS_PASSWORD"
	EnvMailBaseURL    = "HOTSPOTBILL_MAIL_BASE_URL"
	EnvMailAPIKey     = "HOTSPOTBILL_MAIL_API_KEY"
	EnvMailFrom       = "HOTSPOTBILL_MAIL_FROM"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
