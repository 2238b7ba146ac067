package config

// EnvPrefix is left empty because every field declares a fully qualified
// KADAI_* variable name.
const EnvPrefix = ""

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "KADAI_DB_DSN"
	EnvDBHost = "KADAI_DB_HOST"
	EnvDBUser = "KADAI_DB_USER"
	EnvDBName = "KADAI_DB_NAME"
)

var requiredDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
