package config

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Scrape  ScrapeConfig  `yaml:"scrape" mapstructure:"scrape"`
	Fetch   FetchConfig   `yaml:"fetch" mapstructure:"fetch"`
	Storage StorageConfig `yaml:"storage" mapstructure:"storage"`
	Model   ModelConfig   `yaml:"model" mapstructure:"model"`
	Prompt  PromptConfig  `yaml:"prompt" mapstructure:"prompt"`
	Extract ExtractConfig `yaml:"extract" mapstructure:"extract"`
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// ScrapeConfig describes which directory pages are fetched.
type ScrapeConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	PageCount      int    `yaml:"page_count" mapstructure:"page_count"`
	RecordsPerPage int    `yaml:"records_per_page" mapstructure:"records_per_page"`
}

// FetchConfig configures the HTTP fetcher.
type FetchConfig struct {
	TimeoutSecs int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	UserAgent   string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSecs) * time.Second
}

// StorageConfig holds the on-disk locations for pages and results.
type StorageConfig struct {
	ScrapedDir   string `yaml:"scraped_dir" mapstructure:"scraped_dir"`
	ProcessedDir string `yaml:"processed_dir" mapstructure:"processed_dir"`
}

// ModelConfig points at the local text-generation endpoint.
type ModelConfig struct {
	Endpoint    string   `yaml:"endpoint" mapstructure:"endpoint"`
	Name        string   `yaml:"name" mapstructure:"name"`
	Temperature *float64 `yaml:"temperature" mapstructure:"temperature"`
	// TimeoutSecs of 0 leaves model calls unbounded.
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// Timeout returns the model call timeout as a duration.
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSecs) * time.Second
}

// PromptConfig configures how page content is prepared for the prompt.
type PromptConfig struct {
	ContentMode string `yaml:"content_mode" mapstructure:"content_mode"`
}

// ExtractConfig selects the JSON recovery policy.
type ExtractConfig struct {
	Mode string `yaml:"mode" mapstructure:"mode"`
}

// StoreConfig configures the run ledger backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// LoadFile reads configuration from the given file, or from ./config.yaml
// when path is empty. A missing default file is not an error.
func LoadFile(path string) (*Config, error) {
	v := viper.New()

	// Config file
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Environment
	v.SetEnvPrefix("HARVEST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("scrape.base_url", "https://accedacris.ulpgc.es/simple-search?query=&location=researcherprofiles&start=")
	v.SetDefault("scrape.page_count", 5)
	v.SetDefault("scrape.records_per_page", 50)
	v.SetDefault("fetch.timeout_secs", 10)
	v.SetDefault("fetch.user_agent", "profile-harvest/1.0")
	v.SetDefault("storage.scraped_dir", "scraped_pages")
	v.SetDefault("storage.processed_dir", "processed_pages")
	v.SetDefault("model.endpoint", "http://localhost:11434")
	v.SetDefault("model.name", "codellama")
	v.SetDefault("model.timeout_secs", 0)
	// No default, so Unmarshal only sees the env value once it is bound.
	if err := v.BindEnv("model.temperature"); err != nil {
		return nil, eris.Wrap(err, "config: bind env")
	}
	v.SetDefault("prompt.content_mode", "raw")
	v.SetDefault("extract.mode", "lenient")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "harvest.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Read config file (optional unless explicitly named)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || path != "" {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks that the configuration can drive a run.
func (c *Config) Validate() error {
	var errs []string

	if c.Scrape.PageCount < 1 {
		errs = append(errs, "scrape.page_count must be at least 1")
	}
	if c.Scrape.RecordsPerPage < 1 {
		errs = append(errs, "scrape.records_per_page must be at least 1")
	}
	if u, err := url.Parse(c.Scrape.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, "scrape.base_url must be an absolute URL")
	}
	if c.Fetch.TimeoutSecs < 1 {
		errs = append(errs, "fetch.timeout_secs must be positive")
	}
	if c.Storage.ScrapedDir == "" {
		errs = append(errs, "storage.scraped_dir is required")
	}
	if c.Storage.ProcessedDir == "" {
		errs = append(errs, "storage.processed_dir is required")
	}
	if c.Model.Endpoint == "" {
		errs = append(errs, "model.endpoint is required")
	}
	if c.Model.Name == "" {
		errs = append(errs, "model.name is required")
	}
	if c.Model.TimeoutSecs < 0 {
		errs = append(errs, "model.timeout_secs must not be negative")
	}

	switch c.Prompt.ContentMode {
	case "raw", "text", "markdown", "article":
	default:
		errs = append(errs, "prompt.content_mode must be one of raw, text, markdown, article")
	}

	switch c.Extract.Mode {
	case "lenient", "strict":
	default:
		errs = append(errs, "extract.mode must be lenient or strict")
	}

	switch c.Store.Driver {
	case "none":
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			errs = append(errs, "store.database_url is required for driver "+c.Store.Driver)
		}
	default:
		errs = append(errs, "store.driver must be sqlite, postgres or none")
	}

	if len(errs) > 0 {
		return eris.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// PageURL returns the directory URL for the given 1-based page index.
func (s ScrapeConfig) PageURL(index int) string {
	return s.BaseURL + strconv.Itoa((index-1)*s.RecordsPerPage)
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
