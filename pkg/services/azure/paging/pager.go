package paging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultMaxPages bounds any continuation walk. Hitting the cap truncates
	// the result with a warning instead of failing the fetch.
	DefaultMaxPages = 100

	defaultTimeout = 60 * time.Second

	// skipTokenField is the request-body field a skip-token continuation is
	// resent under.
	skipTokenField = "$skipToken"
)

// Continuation is the cursor state extracted from one page envelope. At most
// one of the fields is expected to be set: an opaque next-link URL is fetched
// with GET, a skip token is resent as a POST body field to the original URL.
type Continuation struct {
	NextLink  string
	SkipToken string
}

func (c Continuation) Empty() bool {
	return c.NextLink == "" && c.SkipToken == ""
}

// Request describes the initial call of a paged fetch.
type Request struct {
	Method    string // defaults to GET
	URL       string
	Body      any // JSON-encoded when non-nil
	Authorize func(req *http.Request) error
}

// Cursor is the resumable position of a paged fetch: how many pages completed
// and whether the walk stopped at the page cap with data still remaining.
type Cursor struct {
	Pages     int
	Truncated bool
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// IsStatus reports whether err wraps a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var statusErr *StatusError
	return errors.As(err, &statusErr) && statusErr.StatusCode == code
}

// IsTimeout reports whether err was caused by a per-call timeout.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

type Options struct {
	Client   *http.Client
	MaxPages int
	Timeout  time.Duration
}

// Fetcher drives a generic "fetch page, extract continuation, fetch next"
// loop against any paginated endpoint.
type Fetcher struct {
	client   *http.Client
	maxPages int
}

func NewFetcher(opts Options) *Fetcher {
	client := opts.Client
	if client == nil {
		timeout := opts.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	maxPages := opts.MaxPages
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Fetcher{client: client, maxPages: maxPages}
}

// Pages issues the initial request and walks the continuation chain. handle
// decodes one raw page body and returns the continuation for the next page;
// the walk stops when the continuation is empty or the page cap is reached.
// On error the returned cursor still reports how many pages completed, so
// callers can decide whether partial data is usable.
func (f *Fetcher) Pages(
	ctx context.Context,
	req Request,
	handle func(body []byte) (Continuation, error),
) (Cursor, error) {
	logger := zerolog.Ctx(ctx)

	cursor := Cursor{}
	cont := Continuation{}

	for {
		httpReq, err := f.buildRequest(ctx, req, cursor, cont)
		if err != nil {
			return cursor, err
		}

		body, err := f.do(httpReq, req.Authorize)
		if err != nil {
			return cursor, err
		}

		next, err := handle(body)
		if err != nil {
			return cursor, fmt.Errorf("failed to process page %d: %w", cursor.Pages+1, err)
		}
		cursor.Pages++

		if next.Empty() {
			return cursor, nil
		}
		if cursor.Pages >= f.maxPages {
			cursor.Truncated = true
			logger.Warn().
				Str("url", req.URL).
				Int("pages", cursor.Pages).
				Msg("page cap reached, truncating paginated fetch")
			return cursor, nil
		}
		cont = next
	}
}

func (f *Fetcher) buildRequest(
	ctx context.Context,
	req Request,
	cursor Cursor,
	cont Continuation,
) (*http.Request, error) {
	switch {
	case cursor.Pages == 0:
		method := req.Method
		if method == "" {
			method = http.MethodGet
		}
		return newJSONRequest(ctx, method, req.URL, req.Body)
	case cont.SkipToken != "":
		body := map[string]string{skipTokenField: cont.SkipToken}
		return newJSONRequest(ctx, http.MethodPost, req.URL, body)
	default:
		return newJSONRequest(ctx, http.MethodGet, cont.NextLink, nil)
	}
}

func newJSONRequest(ctx context.Context, method, url string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	return httpReq, nil
}

func (f *Fetcher) do(req *http.Request, authorize func(*http.Request) error) ([]byte, error) {
	if authorize != nil {
		if err := authorize(req); err != nil {
			return nil, err
		}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, URL: req.URL.String()}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}
