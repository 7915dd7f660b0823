package fetcher

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"
)

// ErrBodyTooLarge means the page body exceeded the configured size cap.
var ErrBodyTooLarge = eris.New("body too large")

// Fetcher downloads a directory page and returns its body as UTF-8 text.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// FetchError reports a page that could not be downloaded: a network failure,
// a timeout, or a non-2xx status once redirects have been followed.
type FetchError struct {
	URL        string
	StatusCode int
	Block      BlockType
	Err        error
}

func (e *FetchError) Error() string {
	msg := "fetch " + e.URL
	if e.StatusCode != 0 {
		msg += ": status " + strconv.Itoa(e.StatusCode)
	}
	if e.Block != BlockNone {
		msg += ": blocked (" + string(e.Block) + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
