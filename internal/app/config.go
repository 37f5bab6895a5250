package app

import (
	"io/fs"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/joho/godotenv"
)

// DotEnvFile is loaded into the environment before configuration is read.
// Variables already set in the environment take precedence.
const DotEnvFile = ".env"

// DefaultFiles are the config files looked up by LoadConfig, in order.
var DefaultFiles = []string{"catalogue.yaml", "/etc/catalogue/config.yaml"}

// Config holds the complete client configuration, loadable from environment
// variables (CATALOGUE_ prefix) or YAML config files. Command-line flags are
// handled by the CLI.
type Config struct {
	BaseURL   string        `default:"https://dev-sikafiber-admin.spheraeng-software.com" env:"BASE_URL" yaml:"base_url" usage:"Catalogue service base URL"`
	Token     string        `env:"TOKEN" yaml:"token" usage:"Static access token (anonymous when empty)"`
	UserAgent string        `default:"catalogue-client" env:"USER_AGENT" yaml:"user_agent" usage:"User-Agent sent with every request"`
	Timeout   time.Duration `default:"30s" env:"TIMEOUT" yaml:"timeout" usage:"Timeout of a single request"`

	Country  string   `default:"Italy" env:"COUNTRY" yaml:"country" usage:"Default country for country reports"`
	Statuses []string `default:"Available,Available Upon Request" env:"STATUSES" yaml:"statuses" usage:"Availability statuses counted as available"`

	// Concurrency bounds how many reports "all" runs at once.
	Concurrency int `default:"4" env:"CONCURRENCY" yaml:"concurrency" usage:"Reports fetched concurrently by the all command"`
}

// LoadConfig loads configuration from environment variables (including an
// optional .env file) and the default YAML config files.
func LoadConfig() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}
	return loadConfig(DefaultFiles...)
}

func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return errors.Wrapf(err, "load %s", path)
	}
	return nil
}

func loadConfig(files ...string) (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "CATALOGUE",
		SkipFlags: true,
		Files:     files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.BaseURL == "" {
		return errors.New("base URL is required: set CATALOGUE_BASE_URL")
	}
	if len(c.Statuses) == 0 {
		return errors.New("at least one availability status is required")
	}
	if c.Timeout < 0 {
		return errors.Errorf("timeout %s must not be negative", c.Timeout)
	}
	return nil
}
