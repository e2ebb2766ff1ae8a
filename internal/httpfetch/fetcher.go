// Package httpfetch is the shared HTTP client used by every catalog adapter
// and the marketplace collector. It retries transient failures with
// linearly growing backoff and never returns an error for a missing resource —
// callers get nil and decide what "missing" means in their context.
package httpfetch

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

const userAgent = "pkmgraad-pipeline/1.0"

// Fetcher issues bounded-retry GET requests for JSON and HTML resources.
type Fetcher struct {
	client     *http.Client
	maxRetries int
	jsonBase   time.Duration
	htmlBase   time.Duration
}

// Config configures retry counts and backoff bases. Zero values fall back to
// spec defaults (R=4, 400ms JSON base, 500ms HTML base).
type Config struct {
	MaxRetries int
	JSONBase   time.Duration
	HTMLBase   time.Duration
	Timeout    time.Duration
}

func New(cfg Config) *Fetcher {
	maxRetries := cfg.MaxRetries
	if maxRetries == 0 {
		maxRetries = 4
	}
	jsonBase := cfg.JSONBase
	if jsonBase == 0 {
		jsonBase = 400 * time.Millisecond
	}
	htmlBase := cfg.HTMLBase
	if htmlBase == 0 {
		htmlBase = 500 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 20 * time.Second
	}

	return &Fetcher{
		client:     &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		jsonBase:   jsonBase,
		htmlBase:   htmlBase,
	}
}

// FetchJSON GETs url and decodes the JSON body into a generic map. Returns
// nil, nil on any non-retryable failure (4xx other than 429) or after
// exhausting retries on a transient failure — callers distinguish "missing"
// from "fatal" by context.
func (f *Fetcher) FetchJSON(url string, headers map[string]string) (map[string]interface{}, error) {
	body, status, err := f.doWithRetry(url, headers, f.jsonBase)
	if err != nil {
		return nil, nil
	}
	if status/100 != 2 {
		return nil, nil
	}

	var out map[string]interface{}
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode json from %s: %w", url, err)
	}
	return out, nil
}

// FetchJSONWithStatus behaves like FetchJSON but also reports the final
// HTTP status code observed (0 if the request never got a response, e.g.
// retries were exhausted on a network error). Callers that must distinguish
// "not found" from "unauthorized" from "exhausted retries" — such as the
// English primary adapter's hard-failure detection — use this instead of
// FetchJSON.
func (f *Fetcher) FetchJSONWithStatus(url string, headers map[string]string) (map[string]interface{}, int, error) {
	body, status, err := f.doWithRetry(url, headers, f.jsonBase)
	if err != nil {
		return nil, 0, nil
	}
	if status/100 != 2 {
		return nil, status, nil
	}

	var out map[string]interface{}
	if decodeErr := json.Unmarshal(body, &out); decodeErr != nil {
		return nil, status, fmt.Errorf("decode json from %s: %w", url, decodeErr)
	}
	return out, status, nil
}

// FetchJSONInto behaves like FetchJSON but decodes directly into `into`,
// for callers that already have a typed response shape.
func (f *Fetcher) FetchJSONInto(url string, headers map[string]string, into interface{}) (bool, error) {
	body, status, err := f.doWithRetry(url, headers, f.jsonBase)
	if err != nil {
		return false, nil
	}
	if status/100 != 2 {
		return false, nil
	}
	if err := json.Unmarshal(body, into); err != nil {
		return false, fmt.Errorf("decode json from %s: %w", url, err)
	}
	return true, nil
}

// FetchJSONIntoWithStatus behaves like FetchJSONInto but also reports the
// final HTTP status code, for callers needing typed decoding plus
// hard-failure detection (e.g. the English primary adapter).
func (f *Fetcher) FetchJSONIntoWithStatus(url string, headers map[string]string, into interface{}) (int, error) {
	body, status, err := f.doWithRetry(url, headers, f.jsonBase)
	if err != nil {
		return 0, nil
	}
	if status/100 != 2 {
		return status, nil
	}
	if decodeErr := json.Unmarshal(body, into); decodeErr != nil {
		return status, fmt.Errorf("decode json from %s: %w", url, decodeErr)
	}
	return status, nil
}

// FetchHTML GETs url and returns the decoded HTML body as a string, or ""
// on any non-retryable or exhausted-retry failure.
func (f *Fetcher) FetchHTML(url string, headers map[string]string) (string, error) {
	body, status, err := f.doWithRetry(url, headers, f.htmlBase)
	if err != nil {
		return "", nil
	}
	if status/100 != 2 {
		return "", nil
	}
	return string(body), nil
}

// doWithRetry implements the shared retry/backoff loop: retry on 429,
// 5xx, or network failure, up to maxRetries attempts; anything else returns
// immediately.
func (f *Fetcher) doWithRetry(url string, headers map[string]string, base time.Duration) ([]byte, int, error) {
	var lastErr error

	for attempt := 0; attempt < f.maxRetries; attempt++ {
		req, err := http.NewRequest("GET", url, nil)
		if err != nil {
			return nil, 0, err
		}
		req.Header.Set("User-Agent", userAgent)
		req.Header.Set("Accept-Encoding", "gzip, br")
		for k, v := range headers {
			req.Header.Set(k, v)
		}

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			log.Printf("httpfetch: attempt %d/%d failed for %s: %v", attempt+1, f.maxRetries, url, err)
			f.backoff(base, attempt)
			continue
		}

		if resp.StatusCode == 429 || resp.StatusCode >= 500 {
			resp.Body.Close()
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			log.Printf("httpfetch: retryable status %d for %s, retrying", resp.StatusCode, url)
			f.backoff(base, attempt)
			continue
		}

		reader, err := decodeBody(resp)
		if err != nil {
			resp.Body.Close()
			return nil, 0, fmt.Errorf("decode response body from %s: %w", url, err)
		}
		data, err := io.ReadAll(reader)
		resp.Body.Close()
		if err != nil {
			return nil, 0, fmt.Errorf("read response body from %s: %w", url, err)
		}

		return data, resp.StatusCode, nil
	}

	return nil, 0, fmt.Errorf("%s: exhausted retries: %w", url, lastErr)
}

func (f *Fetcher) backoff(base time.Duration, attempt int) {
	time.Sleep(base * time.Duration(attempt+1))
}

func decodeBody(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "br":
		return brotli.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}
