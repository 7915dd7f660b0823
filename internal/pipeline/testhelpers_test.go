package pipeline

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/sells-group/profile-harvest/internal/config"
	"github.com/sells-group/profile-harvest/internal/fetcher"
	"github.com/sells-group/profile-harvest/pkg/ollama"
)

// newTestConfig returns a config whose stores live under a temp dir.
func newTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Scrape: config.ScrapeConfig{
			BaseURL:        baseURL,
			PageCount:      3,
			RecordsPerPage: 50,
		},
		Fetch: config.FetchConfig{TimeoutSecs: 2},
		Storage: config.StorageConfig{
			ScrapedDir:   filepath.Join(dir, "scraped_pages"),
			ProcessedDir: filepath.Join(dir, "processed_pages"),
		},
		Model:   config.ModelConfig{Endpoint: "http://unused", Name: "codellama"},
		Prompt:  config.PromptConfig{ContentMode: "raw"},
		Extract: config.ExtractConfig{Mode: "lenient"},
		Store:   config.StoreConfig{Driver: "none"},
	}
}

// directoryServer serves one page per start offset. Offsets listed in
// failing answer 500.
func directoryServer(t *testing.T, failing ...int) *httptest.Server {
	t.Helper()
	fail := map[int]bool{}
	for _, f := range failing {
		fail[f] = true
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, err := strconv.Atoi(r.URL.Query().Get("start"))
		if err != nil {
			http.Error(w, "bad start", http.StatusBadRequest)
			return
		}
		if fail[start] {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprintf(w, "<html><body>researchers from %d</body></html>", start)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// modelServer answers every generate call with reply and counts calls.
func modelServer(t *testing.T, reply string, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		var req ollama.GenerateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(ollama.GenerateResponse{
			Model:    req.Model,
			Response: reply,
			Done:     true,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newFetcher() *fetcher.HTTPFetcher {
	return fetcher.NewHTTPFetcher(fetcher.HTTPOptions{Timeout: 2 * time.Second})
}

func newInvoker(endpoint string) *OllamaInvoker {
	return NewOllamaInvoker(ollama.NewClient(ollama.WithBaseURL(endpoint)), "codellama", nil, 5*time.Second)
}

func newPipeline(t *testing.T, cfg *config.Config, inv Invoker) *Pipeline {
	t.Helper()
	p, err := New(cfg, newFetcher(), inv, nil)
	require.NoError(t, err)
	return p
}
