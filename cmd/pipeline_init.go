package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/profile-harvest/internal/fetcher"
	"github.com/sells-group/profile-harvest/internal/pipeline"
	"github.com/sells-group/profile-harvest/pkg/ollama"
)

// initPipeline wires the fetcher, model client and ledger from cfg. The
// returned cleanup closes the ledger and must always be called.
func initPipeline(ctx context.Context) (*pipeline.Pipeline, func(), error) {
	st, err := initStore(ctx)
	if err != nil {
		return nil, func() {}, err
	}
	cleanup := func() {
		if st != nil {
			st.Close() //nolint:errcheck
		}
	}

	f := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.Fetch.Timeout(),
	})

	client := ollama.NewClient(
		ollama.WithBaseURL(cfg.Model.Endpoint),
		ollama.WithModel(cfg.Model.Name),
	)
	inv := pipeline.NewOllamaInvoker(client, cfg.Model.Name, cfg.Model.Temperature, cfg.Model.Timeout())

	p, err := pipeline.New(cfg, f, inv, st)
	if err != nil {
		cleanup()
		return nil, func() {}, eris.Wrap(err, "init pipeline")
	}
	return p, cleanup, nil
}
