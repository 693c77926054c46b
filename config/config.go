// Package config loads server settings from the environment and an optional
// .env file. Command-line flags in cmd/server override these values.
package config

import (
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// DevSecret signs tokens when JWT_SECRET is unset. Never use it in production.
const DevSecret = "dev-secret-change-me"

type AppConfig struct {
	Port        string
	DBPath      string
	JWTSecret   string
	LogMode     string

	// CORSOrigins is empty unless CORS_ORIGINS is set; the router then
	// allows only the local frontend origins.
	CORSOrigins []string

	// EnvFileErr is set when no .env file could be read. It is informational.
	EnvFileErr error
}

// Load reads .env (if present) and then the process environment.
func Load() AppConfig {
	envErr := godotenv.Load()

	get := func(k, def string) string {
		if v := os.Getenv(k); v != "" {
			return v
		}
		return def
	}
	return AppConfig{
		Port:        get("PORT", "8080"),
		DBPath:      get("DB_PATH", "./data/agro.db"),
		JWTSecret:   get("JWT_SECRET", DevSecret),
		LogMode:     get("LOG_MODE", "dev"),
		CORSOrigins: SplitList(get("CORS_ORIGINS", "")),
		EnvFileErr:  envErr,
	}
}

// SplitList splits a comma-separated value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
