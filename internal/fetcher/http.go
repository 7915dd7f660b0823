package fetcher

import (
	"context"
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/htmlindex"
)

// HTTPOptions configures the HTTP fetcher.
type HTTPOptions struct {
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int64
}

// HTTPFetcher implements Fetcher with a single bounded GET per page. It does
// not retry.
type HTTPFetcher struct {
	client *http.Client
	opts   HTTPOptions
}

// NewHTTPFetcher creates a new HTTPFetcher with the given options.
func NewHTTPFetcher(opts HTTPOptions) *HTTPFetcher {
	if opts.Timeout == 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "profile-harvest/1.0"
	}
	if opts.MaxBodyBytes == 0 {
		opts.MaxBodyBytes = 16 << 20
	}
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
	}
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		opts: opts,
	}
}

// Fetch downloads rawURL and returns the body decoded to UTF-8 according to
// the charset declared in Content-Type.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: eris.Wrap(err, "create request")}
	}
	req.Header.Set("User-Agent", f.opts.UserAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return "", &FetchError{URL: rawURL, Err: eris.Wrap(err, "send request")}
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Block:      DetectBlock(resp.StatusCode, resp.Header, string(snippet)),
		}
	}

	body, err := decodeBody(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: err}
	}

	data, err := io.ReadAll(io.LimitReader(body, f.opts.MaxBodyBytes+1))
	if err != nil {
		return "", &FetchError{URL: rawURL, StatusCode: resp.StatusCode, Err: eris.Wrap(err, "read body")}
	}
	if int64(len(data)) > f.opts.MaxBodyBytes {
		return "", &FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        eris.Wrapf(ErrBodyTooLarge, "limit %d bytes", f.opts.MaxBodyBytes),
		}
	}

	content := string(data)
	if bt := DetectBlock(resp.StatusCode, resp.Header, content); bt != BlockNone {
		zap.L().Warn("fetched page looks like an anti-bot page",
			zap.String("url", rawURL),
			zap.String("block", string(bt)),
		)
	}

	zap.L().Debug("fetched page",
		zap.String("url", rawURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
	)
	return content, nil
}

// decodeBody wraps r with a UTF-8 transcoder when contentType names another
// charset. Bodies without a charset are passed through unchanged.
func decodeBody(r io.Reader, contentType string) (io.Reader, error) {
	if contentType == "" {
		return r, nil
	}
	_, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		return r, nil
	}
	charset := strings.TrimSpace(params["charset"])
	if charset == "" || strings.EqualFold(charset, "utf-8") || strings.EqualFold(charset, "utf8") {
		return r, nil
	}

	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, eris.Wrapf(err, "unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(r), nil
}
