package config

import (
	"fmt"
	"os"
	"strconv"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	frontendURLVar  = "FRONTEND_URL"
	catalogPathVar  = "CATALOG_PATH"
	catalogWatchVar = "CATALOG_WATCH"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port != "" || port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Portal Server")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

// GetFrontendURL returns the base URL the callback redirects back to
// (e.g. "https://portal.example.com"). Success lands on "/", failure on
// "/login?error=<code>".
func (EnvVars) GetFrontendURL() string {
	return GetEnv(frontendURLVar, "http://localhost:5173")
}

func (EnvVars) GetCatalogPath() string {
	return GetEnv(catalogPathVar, "./config/apps.yaml")
}

func (EnvVars) GetCatalogWatch() bool {
	return GetBoolEnv(catalogWatchVar, true)
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func GetBoolEnv(envVar string, defaultValue bool) bool {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return b
}
