// Package pipeline drives the two harvest steps: fetching directory pages
// to disk and turning stored pages into researcher records.
package pipeline

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/profile-harvest/internal/config"
	"github.com/sells-group/profile-harvest/internal/extract"
	"github.com/sells-group/profile-harvest/internal/fetcher"
	"github.com/sells-group/profile-harvest/internal/model"
	"github.com/sells-group/profile-harvest/internal/pagestore"
	"github.com/sells-group/profile-harvest/internal/prompt"
	"github.com/sells-group/profile-harvest/internal/store"
)

// Pipeline runs the scrape and process steps sequentially.
type Pipeline struct {
	cfg       *config.Config
	fetcher   fetcher.Fetcher
	invoker   Invoker
	ledger    store.Store
	pages     *pagestore.Pages
	results   *pagestore.Results
	prompts   prompt.Builder
	extractor extract.Extractor
}

// New creates a Pipeline. ledger may be nil, in which case no run history
// is recorded.
func New(cfg *config.Config, f fetcher.Fetcher, inv Invoker, ledger store.Store) (*Pipeline, error) {
	contentMode, err := prompt.ParseContentMode(cfg.Prompt.ContentMode)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: content mode")
	}
	extractMode, err := extract.ParseMode(cfg.Extract.Mode)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: extract mode")
	}

	return &Pipeline{
		cfg:       cfg,
		fetcher:   f,
		invoker:   inv,
		ledger:    ledger,
		pages:     pagestore.NewPages(cfg.Storage.ScrapedDir),
		results:   pagestore.NewResults(cfg.Storage.ProcessedDir),
		prompts:   prompt.Builder{Mode: contentMode},
		extractor: extract.Extractor{Mode: extractMode},
	}, nil
}

// Scrape fetches every configured page and stores the successful ones.
// Per-page failures are logged and skipped; only cancellation is returned.
func (p *Pipeline) Scrape(ctx context.Context) error {
	runID := p.startRun(ctx, model.RunKindScrape)
	err := p.scrape(ctx, runID)
	p.finishRun(ctx, runID, err)
	return err
}

// Process turns every stored page into a result file.
// Per-page failures are logged and skipped; only cancellation and an
// unreadable page directory are returned.
func (p *Pipeline) Process(ctx context.Context) error {
	runID := p.startRun(ctx, model.RunKindProcess)
	err := p.process(ctx, runID)
	p.finishRun(ctx, runID, err)
	return err
}

// Run performs Scrape followed by Process under a single ledger run.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := p.startRun(ctx, model.RunKindFull)
	err := p.scrape(ctx, runID)
	if err == nil {
		err = p.process(ctx, runID)
	}
	p.finishRun(ctx, runID, err)
	return err
}

func (p *Pipeline) scrape(ctx context.Context, runID string) error {
	log := zap.L().With(zap.String("step", string(model.PageStepFetch)))
	log.Info("pipeline: scraping pages",
		zap.Int("pages", p.cfg.Scrape.PageCount),
		zap.String("base_url", p.cfg.Scrape.BaseURL),
		zap.String("dir", p.pages.Dir()),
	)

	for i := 1; i <= p.cfg.Scrape.PageCount; i++ {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: scrape interrupted")
		}
		p.scrapePage(ctx, runID, i)
	}
	return nil
}

func (p *Pipeline) scrapePage(ctx context.Context, runID string, index int) {
	page := model.Page{Index: index, URL: p.cfg.Scrape.PageURL(index)}
	log := zap.L().With(zap.Int("page", index), zap.String("url", page.URL))
	outcome := &model.PageOutcome{RunID: runID, Index: index, Step: model.PageStepFetch, Source: page.URL}
	start := time.Now()

	var err error
	page.Content, err = p.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		log.Error("pipeline: fetch failed, skipping page", zap.Error(err))
		p.record(ctx, failed(outcome, err, start))
		return
	}

	path, err := p.pages.Save(page.Index, page.Content)
	if err != nil {
		log.Error("pipeline: save page failed", zap.Error(err))
		p.record(ctx, failed(outcome, err, start))
		return
	}

	log.Info("page saved", zap.String("path", path), zap.Int("bytes", len(page.Content)))
	p.record(ctx, succeeded(outcome, 0, start))
}

func (p *Pipeline) process(ctx context.Context, runID string) error {
	log := zap.L().With(zap.String("step", string(model.PageStepProcess)))
	log.Info("pipeline: processing stored pages",
		zap.String("dir", p.pages.Dir()),
		zap.String("out", p.results.Dir()),
	)

	for index, err := range p.pages.All() {
		if err != nil {
			return eris.Wrap(err, "pipeline: list stored pages")
		}
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "pipeline: process interrupted")
		}
		p.processPage(ctx, runID, index)
	}
	return nil
}

func (p *Pipeline) processPage(ctx context.Context, runID string, index int) {
	file := p.pages.Path(index)
	log := zap.L().With(zap.Int("page", index), zap.String("file", file))
	outcome := &model.PageOutcome{RunID: runID, Index: index, Step: model.PageStepProcess, Source: file}
	start := time.Now()

	content, err := p.pages.Load(index)
	if err != nil {
		log.Error("pipeline: load page failed", zap.Error(err))
		p.record(ctx, failed(outcome, err, start))
		return
	}
	page := model.Page{Index: index, URL: p.cfg.Scrape.PageURL(index), Content: content}

	raw, err := p.invoker.Invoke(ctx, p.prompts.Build(page.Content, page.URL))
	if err != nil {
		// The previous result, if any, stays in place.
		if ctx.Err() != nil {
			log.Warn("pipeline: model call interrupted", zap.Error(err))
		} else {
			log.Error("pipeline: model call failed, skipping page", zap.Error(err))
		}
		p.record(ctx, failed(outcome, err, start))
		return
	}

	result := model.ExtractionResult{Index: page.Index}
	result.Records, err = p.extractor.Extract(raw)
	if err != nil {
		log.Warn("pipeline: no records decoded, saving empty result",
			zap.Error(err),
			zap.String("raw_output", raw),
		)
	} else if n := nonRecords(result.Records); n > 0 {
		log.Warn("pipeline: model returned non-object elements, keeping them as sent",
			zap.Int("elements", n),
		)
	}

	path, saveErr := p.results.Save(result.Index, result.Records)
	if saveErr != nil {
		log.Error("pipeline: save result failed", zap.Error(saveErr))
		p.record(ctx, failed(outcome, saveErr, start))
		return
	}

	log.Info("results saved", zap.String("path", path), zap.Int("records", len(result.Records)))
	if err != nil {
		p.record(ctx, failed(outcome, err, start))
		return
	}
	p.record(ctx, succeeded(outcome, len(result.Records), start))
}

func nonRecords(records []model.Researcher) int {
	n := 0
	for _, r := range records {
		if !r.IsRecord() {
			n++
		}
	}
	return n
}
