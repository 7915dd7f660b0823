package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, "https://accedacris.ulpgc.es/simple-search?query=&location=researcherprofiles&start=", cfg.Scrape.BaseURL)
	assert.Equal(t, 5, cfg.Scrape.PageCount)
	assert.Equal(t, 50, cfg.Scrape.RecordsPerPage)
	assert.Equal(t, 10, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 10*time.Second, cfg.Fetch.Timeout())
	assert.Equal(t, "scraped_pages", cfg.Storage.ScrapedDir)
	assert.Equal(t, "processed_pages", cfg.Storage.ProcessedDir)
	assert.Equal(t, "http://localhost:11434", cfg.Model.Endpoint)
	assert.Equal(t, "codellama", cfg.Model.Name)
	assert.Nil(t, cfg.Model.Temperature)
	assert.Equal(t, time.Duration(0), cfg.Model.Timeout())
	assert.Equal(t, "raw", cfg.Prompt.ContentMode)
	assert.Equal(t, "lenient", cfg.Extract.Mode)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "harvest.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
scrape:
  page_count: 2
  records_per_page: 20
model:
  name: phi
  temperature: 0.1
storage:
  processed_dir: out
log:
  level: debug
  format: json
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := LoadFile("")
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Scrape.PageCount)
	assert.Equal(t, 20, cfg.Scrape.RecordsPerPage)
	assert.Equal(t, "phi", cfg.Model.Name)
	require.NotNil(t, cfg.Model.Temperature)
	assert.InDelta(t, 0.1, *cfg.Model.Temperature, 0.0001)
	assert.Equal(t, "out", cfg.Storage.ProcessedDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	// Defaults still apply for unset values
	assert.Equal(t, "scraped_pages", cfg.Storage.ScrapedDir)
	assert.Equal(t, "http://localhost:11434", cfg.Model.Endpoint)
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	chdirTemp(t)
	path := filepath.Join(t.TempDir(), "harvest.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model:\n  endpoint: http://gpu-box:11434\n"), 0644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:11434", cfg.Model.Endpoint)
}

func TestLoadFile_MissingExplicitPath(t *testing.T) {
	chdirTemp(t)

	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: read file")
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
model:
  name: phi
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("HARVEST_MODEL_NAME", "codellama:13b")
	t.Setenv("HARVEST_LOG_LEVEL", "warn")

	cfg, err := LoadFile("")
	require.NoError(t, err)

	// Env overrides file
	assert.Equal(t, "codellama:13b", cfg.Model.Name)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("HARVEST_SCRAPE_PAGE_COUNT", "12")
	t.Setenv("HARVEST_STORE_DRIVER", "none")

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, 12, cfg.Scrape.PageCount)
	assert.Equal(t, "none", cfg.Store.Driver)
}

func TestLoadEnvTemperature(t *testing.T) {
	chdirTemp(t)

	cfg, err := LoadFile("")
	require.NoError(t, err)
	assert.Nil(t, cfg.Model.Temperature)

	t.Setenv("HARVEST_MODEL_TEMPERATURE", "0.2")

	cfg, err = LoadFile("")
	require.NoError(t, err)
	require.NotNil(t, cfg.Model.Temperature)
	assert.InDelta(t, 0.2, *cfg.Model.Temperature, 0.0001)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}

// validDefaults returns a Config with all defaults populated for validation tests.
func validDefaults() *Config {
	return &Config{
		Scrape: ScrapeConfig{
			BaseURL:        "https://directory.example.org/search?start=",
			PageCount:      5,
			RecordsPerPage: 50,
		},
		Fetch:   FetchConfig{TimeoutSecs: 10},
		Storage: StorageConfig{ScrapedDir: "scraped_pages", ProcessedDir: "processed_pages"},
		Model:   ModelConfig{Endpoint: "http://localhost:11434", Name: "codellama"},
		Prompt:  PromptConfig{ContentMode: "raw"},
		Extract: ExtractConfig{Mode: "lenient"},
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "harvest.db"},
	}
}

func TestValidate_OK(t *testing.T) {
	assert.NoError(t, validDefaults().Validate())
}

func TestValidate_StoreNoneNeedsNoURL(t *testing.T) {
	cfg := validDefaults()
	cfg.Store = StoreConfig{Driver: "none"}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"page count", func(c *Config) { c.Scrape.PageCount = 0 }, "scrape.page_count"},
		{"records per page", func(c *Config) { c.Scrape.RecordsPerPage = -1 }, "scrape.records_per_page"},
		{"relative base url", func(c *Config) { c.Scrape.BaseURL = "/search?start=" }, "scrape.base_url"},
		{"fetch timeout", func(c *Config) { c.Fetch.TimeoutSecs = 0 }, "fetch.timeout_secs"},
		{"scraped dir", func(c *Config) { c.Storage.ScrapedDir = "" }, "storage.scraped_dir"},
		{"processed dir", func(c *Config) { c.Storage.ProcessedDir = "" }, "storage.processed_dir"},
		{"endpoint", func(c *Config) { c.Model.Endpoint = "" }, "model.endpoint"},
		{"model name", func(c *Config) { c.Model.Name = "" }, "model.name"},
		{"model timeout", func(c *Config) { c.Model.TimeoutSecs = -5 }, "model.timeout_secs"},
		{"content mode", func(c *Config) { c.Prompt.ContentMode = "pdf" }, "prompt.content_mode"},
		{"extract mode", func(c *Config) { c.Extract.Mode = "fuzzy" }, "extract.mode"},
		{"store driver", func(c *Config) { c.Store.Driver = "mysql" }, "store.driver"},
		{"store url", func(c *Config) { c.Store.Driver = "postgres"; c.Store.DatabaseURL = "" }, "store.database_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	cfg := validDefaults()
	cfg.Model.Name = ""
	cfg.Storage.ScrapedDir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "model.name is required")
	assert.Contains(t, err.Error(), "storage.scraped_dir is required")
}

func TestPageURL(t *testing.T) {
	s := ScrapeConfig{BaseURL: "https://d.example/search?start=", RecordsPerPage: 50}

	assert.Equal(t, "https://d.example/search?start=0", s.PageURL(1))
	assert.Equal(t, "https://d.example/search?start=50", s.PageURL(2))
	assert.Equal(t, "https://d.example/search?start=200", s.PageURL(5))
}
