package pipeline

import (
	"context"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/sells-group/profile-harvest/internal/extract"
	"github.com/sells-group/profile-harvest/internal/fetcher"
	"github.com/sells-group/profile-harvest/internal/model"
	"github.com/sells-group/profile-harvest/internal/pagestore"
	"github.com/sells-group/profile-harvest/pkg/ollama"
)

// Error kinds recorded in the run ledger.
const (
	kindFetch    = "fetch"
	kindModel    = "model"
	kindDecode   = "decode"
	kindNotFound = "not_found"
	kindStorage  = "storage"
)

// errorKind names which stage produced err.
func errorKind(err error) string {
	var fe *fetcher.FetchError
	var me *ModelError
	var de *extract.DecodeError
	switch {
	case errors.As(err, &fe):
		return kindFetch
	case errors.As(err, &me):
		return kindModel
	case errors.As(err, &de):
		return kindDecode
	case errors.Is(err, pagestore.ErrNotFound):
		return kindNotFound
	default:
		return kindStorage
	}
}

// classify reports whether a rerun could plausibly succeed where this
// attempt failed.
func classify(err error) model.ErrorCategory {
	if isTransient(err) {
		return model.ErrorCategoryTransient
	}
	return model.ErrorCategoryPermanent
}

func isTransient(err error) bool {
	if err == nil {
		return false
	}

	var de *extract.DecodeError
	if errors.As(err, &de) {
		// Model output varies between calls.
		return true
	}

	var fe *fetcher.FetchError
	if errors.As(err, &fe) && fe.StatusCode != 0 {
		return isTransientHTTPStatus(fe.StatusCode)
	}
	var se *ollama.StatusError
	if errors.As(err, &se) {
		return isTransientHTTPStatus(se.StatusCode)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	if errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNABORTED) {
		return true
	}

	// String-based heuristics for errors flattened by HTTP clients.
	msg := strings.ToLower(err.Error())
	for _, p := range []string{
		"connection refused",
		"connection reset by peer",
		"broken pipe",
		"temporary failure in name resolution",
		"tls handshake timeout",
		"i/o timeout",
		"server closed idle connection",
	} {
		if strings.Contains(msg, p) {
			return true
		}
	}
	return false
}

func isTransientHTTPStatus(code int) bool {
	switch code {
	case 408, 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}
