package config

const (
	// EnvPrefix namespaces every environment variable this service reads.
	EnvPrefix = "market"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "MARKET_DB_DSN"
	EnvDBHost = "MARKET_DB_HOST"
	EnvDBUser = "MARKET_DB_USER"
	EnvDBName = "MARKET_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
