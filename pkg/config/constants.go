package config

const (
	// EnvPrefix is passed to envconfig; individual fields carry fully
	// qualified POINGEST_* tags so the prefix stays empty.
	EnvPrefix = ""

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv = "POINGEST_APP_ENV"
)
