package model

import "time"

// RunKind identifies which pipeline step a run covered.
type RunKind string

const (
	RunKindScrape  RunKind = "scrape"
	RunKindProcess RunKind = "process"
	RunKindFull    RunKind = "full"
)

// RunStatus represents the current state of a harvest run.
type RunStatus string

const (
	RunStatusRunning  RunStatus = "running"
	RunStatusComplete RunStatus = "complete"
	RunStatusFailed   RunStatus = "failed"
)

// ErrorCategory classifies a page failure for later inspection.
type ErrorCategory string

const (
	ErrorCategoryTransient ErrorCategory = "transient"
	ErrorCategoryPermanent ErrorCategory = "permanent"
)

// PageStep names the step that produced a page outcome.
type PageStep string

const (
	PageStepFetch   PageStep = "fetch"
	PageStepProcess PageStep = "process"
)

// PageStatus is the outcome of one step for one page.
type PageStatus string

const (
	PageStatusOK     PageStatus = "ok"
	PageStatusFailed PageStatus = "failed"
)

// Run is one invocation of the harvester.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Kind      RunKind   `json:"kind" yaml:"kind"`
	Status    RunStatus `json:"status" yaml:"status"`
	Model     string    `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL   string    `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Error     string    `json:"error,omitempty" yaml:"error,omitempty"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`

	Pages []PageOutcome `json:"pages,omitempty" yaml:"pages,omitempty"`
}

// PageOutcome records what happened to one page in one step of a run.
type PageOutcome struct {
	ID            string        `json:"id" yaml:"id"`
	RunID         string        `json:"run_id" yaml:"run_id"`
	Index         int           `json:"index" yaml:"index"`
	Step          PageStep      `json:"step" yaml:"step"`
	Status        PageStatus    `json:"status" yaml:"status"`
	Source        string        `json:"source" yaml:"source"`
	Records       int           `json:"records" yaml:"records"`
	ErrorKind     string        `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	ErrorCategory ErrorCategory `json:"error_category,omitempty" yaml:"error_category,omitempty"`
	Error         string        `json:"error,omitempty" yaml:"error,omitempty"`
	DurationMs    int64         `json:"duration_ms" yaml:"duration_ms"`
	CreatedAt     time.Time     `json:"created_at" yaml:"created_at"`
}
