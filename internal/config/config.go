package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds the configuration for the application.
type Config struct {
	Environment   string `mapstructure:"environment"`
	DevModeBypass bool   `mapstructure:"dev_mode_bypass"`

	DB struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"db"`

	// Agents are the HTTP sidecars the pipeline talks to. Base is used for
	// any agent whose specific URL is left empty, so a single-host deploy
	// only sets one value.
	Agents struct {
		Base       string `mapstructure:"base"`
		Classifier string `mapstructure:"classifier"`
		Context    string `mapstructure:"context"`
		Generator  string `mapstructure:"generator"`
		Validator  string `mapstructure:"validator"`
		Deployer   string `mapstructure:"deployer"`
	} `mapstructure:"agents"`

	Workflow struct {
		ValidateRequiresPass bool          `mapstructure:"validate_requires_pass"`
		SessionTTL           time.Duration `mapstructure:"session_ttl"`
	} `mapstructure:"workflow"`

	Auth struct {
		OktaDomain      string `mapstructure:"okta_domain"`
		ClientID        string `mapstructure:"client_id"`
		ClientSecret    string `mapstructure:"client_secret"`
		RedirectURL     string `mapstructure:"redirect_url"`
		SwaggerClientID string `mapstructure:"swagger_client_id"`
	} `mapstructure:"auth"`

	TLS struct {
		Enable    bool     `mapstructure:"enable"`
		CertFile  string   `mapstructure:"cert_file"`
		KeyFile   string   `mapstructure:"key_file"`
		Hostnames []string `mapstructure:"hostnames"`
	} `mapstructure:"tls"`
}

// AgentURL resolves a specific agent endpoint, falling back to the shared
// base when the specific value is unset.
func (c *Config) AgentURL(specific string) string {
	if specific != "" {
		return specific
	}
	return c.Agents.Base
}

// DatabaseDSN renders the pgx connection string from the DB block.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

// LoadConfig loads the configuration from a file and the environment.
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("environment", "DEV")
	viper.SetDefault("db.port", 5432)
	viper.SetDefault("db.sslmode", "disable")
	viper.SetDefault("agents.base", "http://localhost:8000")
	viper.SetDefault("workflow.validate_requires_pass", false)
	viper.SetDefault("workflow.session_ttl", time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		// Missing file is fine; env vars and defaults still apply.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	// normalize OKTA issuer url (strip trailing slash if any)
	config.Auth.OktaDomain = normalizeOktaIssuer(config.Auth.OktaDomain)

	return &config, nil
}

// normalizeOktaIssuer ensures the provided Okta issuer string is in a
// predictable form. It removes any trailing slash and leaves the scheme and
// path intact. This allows users to paste the full URL from the Okta admin
// console without worrying about double prefixes.
func normalizeOktaIssuer(input string) string {
	iss := strings.TrimSpace(input)
	if strings.HasSuffix(iss, "/") {
		iss = strings.TrimRight(iss, "/")
	}
	return iss
}
