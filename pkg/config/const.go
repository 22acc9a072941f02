package config

// EnvPrefix scopes envconfig lookups; every variable is CARESCHED_*.
const EnvPrefix = "CARESCHED"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "CARESCHED_DB_DSN"
	EnvDBHost = "CARESCHED_DB_HOST"
	EnvDBUser = "CARESCHED_DB_USER"
	EnvDBName = "CARESCHED_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
