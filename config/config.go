// Package config loads server configuration from the environment.
package config

import (
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/morikuni/failure/v2"
)

// ErrorCode defines error types for configuration loading
type ErrorCode string

const (
	// MissingVariable represents required environment variables that are not set
	MissingVariable ErrorCode = "MissingVariable"
	// InvalidVariable represents environment variables with unusable values
	InvalidVariable ErrorCode = "InvalidVariable"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

var validate = validator.New()

// AuthScheme selects how API credentials are sent.
type AuthScheme string

const (
	AuthBasic  AuthScheme = "basic"
	AuthBearer AuthScheme = "bearer"
)

// Confluence holds the Confluence API connection settings.
type Confluence struct {
	URL      string     `validate:"required,url"`
	Username string     `validate:"required_if=Auth basic"`
	APIToken string     `validate:"required"`
	Auth     AuthScheme `validate:"oneof=basic bearer"`
}

// Config is the application configuration.
type Config struct {
	Confluence Confluence
	LogLevel   string
	Debug      bool
}

// Load reads configuration from environment variables. A .env file in
// the working directory is honored when present.
//
// Required: CONFLUENCE_URL, CONFLUENCE_PAT, and CONFLUENCE_USERNAME
// unless CONFLUENCE_AUTH=bearer. All missing variables are reported in
// a single error.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Confluence: Confluence{
			URL:      strings.TrimRight(os.Getenv("CONFLUENCE_URL"), "/"),
			Username: os.Getenv("CONFLUENCE_USERNAME"),
			APIToken: os.Getenv("CONFLUENCE_PAT"),
			Auth:     AuthBasic,
		},
		LogLevel: os.Getenv("LOG_LEVEL"),
		Debug:    parseBool(os.Getenv("DEBUG")),
	}

	if scheme := os.Getenv("CONFLUENCE_AUTH"); scheme != "" {
		cfg.Confluence.Auth = AuthScheme(strings.ToLower(scheme))
	}

	if missing := missingVariables(cfg); len(missing) > 0 {
		return nil, failure.New(MissingVariable,
			failure.Message("Missing required environment variables: "+strings.Join(missing, ", ")),
			failure.Context{"variables": strings.Join(missing, ",")},
		)
	}

	if err := validate.Struct(cfg.Confluence); err != nil {
		return nil, failure.Wrap(err, failure.WithCode(InvalidVariable),
			failure.Message("Invalid Confluence configuration"),
		)
	}

	return cfg, nil
}

func missingVariables(cfg *Config) []string {
	var missing []string
	if cfg.Confluence.URL == "" {
		missing = append(missing, "CONFLUENCE_URL")
	}
	if cfg.Confluence.Username == "" && cfg.Confluence.Auth != AuthBearer {
		missing = append(missing, "CONFLUENCE_USERNAME")
	}
	if cfg.Confluence.APIToken == "" {
		missing = append(missing, "CONFLUENCE_PAT")
	}
	return missing
}

func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "y":
		return true
	}
	return false
}
