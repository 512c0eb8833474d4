package fetcher_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/kelvie/precache/internal/fetcher"
	"github.com/kelvie/precache/internal/metadata"
	"github.com/kelvie/precache/pkg/retry"
	"github.com/kelvie/precache/pkg/timeutil"
)

type fetchRecord struct {
	fetchUrl    string
	httpStatus  int
	contentType string
	retryCount  int
}

type mockMetadataSink struct {
	mu      sync.Mutex
	fetches []fetchRecord
	errors  []metadata.ErrorCause
}

func (m *mockMetadataSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, cause)
}

func (m *mockMetadataSink) RecordFetch(
	fetchUrl string,
	httpStatus int,
	duration time.Duration,
	contentType string,
	retryCount int,
) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetches = append(m.fetches, fetchRecord{
		fetchUrl:    fetchUrl,
		httpStatus:  httpStatus,
		contentType: contentType,
		retryCount:  retryCount,
	})
}

func (m *mockMetadataSink) RecordArtifact(
	kind metadata.ArtifactKind,
	path string,
	attrs []metadata.Attribute,
) {
}

func testRetryParam(maxAttempts int) retry.RetryParam {
	backoff := timeutil.NewBackoffParam(1*time.Millisecond, 2.0, 10*time.Millisecond)
	return retry.NewRetryParam(0, 42, maxAttempts, backoff)
}

func mustParseURL(t *testing.T, rawUrl string) url.URL {
	t.Helper()
	parsed, err := url.Parse(rawUrl)
	if err != nil {
		t.Fatalf("failed to parse url %q: %v", rawUrl, err)
	}
	return *parsed
}

func TestFetch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/wasm")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("\x00asm\x01\x00\x00\x00"))
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/app.wasm"), "precache-test/1.0")
	result, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Code() != http.StatusOK {
		t.Errorf("expected status 200, got %d", result.Code())
	}
	if result.ContentType() != "application/wasm" {
		t.Errorf("expected wasm content type, got %q", result.ContentType())
	}
	if string(result.Body()) != "\x00asm\x01\x00\x00\x00" {
		t.Errorf("unexpected body: %q", result.Body())
	}
	if result.SizeByte() != 8 {
		t.Errorf("expected 8 bytes transferred, got %d", result.SizeByte())
	}

	if len(sink.fetches) != 1 {
		t.Fatalf("expected 1 fetch record, got %d", len(sink.fetches))
	}
	if sink.fetches[0].httpStatus != http.StatusOK {
		t.Errorf("expected recorded status 200, got %d", sink.fetches[0].httpStatus)
	}
}

func TestFetch_SendsUserAgent(t *testing.T) {
	var gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/"), "precache-test/1.0")
	if _, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotUserAgent != "precache-test/1.0" {
		t.Errorf("expected custom user agent, got %q", gotUserAgent)
	}
}

func TestFetch_NotFoundIsNotRetried(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/missing.js"), "precache-test/1.0")
	_, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(3))
	if err == nil {
		t.Fatal("expected error for 404 response")
	}

	if requestCount != 1 {
		t.Errorf("expected exactly 1 request for a 404, got %d", requestCount)
	}

	fetchErr, ok := err.(*fetcher.FetchError)
	if !ok {
		t.Fatalf("expected *fetcher.FetchError, got %T", err)
	}
	if fetchErr.Cause != fetcher.ErrCauseRequestNotFound {
		t.Errorf("expected not-found cause, got %v", fetchErr.Cause)
	}
	if fetchErr.IsRetryable() {
		t.Error("404 must not be retryable")
	}
}

func TestFetch_ServerErrorRetriedUntilSuccess(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html></html>"))
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/index.html"), "precache-test/1.0")
	result, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(5))
	if err != nil {
		t.Fatalf("expected eventual success, got %v", err)
	}

	if requestCount != 3 {
		t.Errorf("expected 3 requests, got %d", requestCount)
	}
	if string(result.Body()) != "<html></html>" {
		t.Errorf("unexpected body: %q", result.Body())
	}
}

func TestFetch_ServerErrorExhaustsAttempts(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/app.js"), "precache-test/1.0")
	_, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(3))
	if err == nil {
		t.Fatal("expected error after exhausting attempts")
	}

	if requestCount != 3 {
		t.Errorf("expected 3 requests, got %d", requestCount)
	}

	if len(sink.fetches) != 1 {
		t.Fatalf("expected 1 fetch record, got %d", len(sink.fetches))
	}
	if sink.fetches[0].retryCount != 3 {
		t.Errorf("expected recorded retry count 3, got %d", sink.fetches[0].retryCount)
	}
	if len(sink.errors) == 0 {
		t.Error("expected an error record after exhausting attempts")
	}
}

func TestFetch_NetworkFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	serverURL := server.URL
	server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 1*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, serverURL+"/app.js"), "precache-test/1.0")
	_, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(2))
	if err == nil {
		t.Fatal("expected error for unreachable server")
	}
}

func TestFetch_RateLimitedIsRetryable(t *testing.T) {
	var requestCount int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestCount++
		if requestCount == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sink := &mockMetadataSink{}
	assetFetcher := fetcher.NewHTTPFetcher(sink, 5*time.Second)

	fetchParam := fetcher.NewFetchParam(mustParseURL(t, server.URL+"/"), "precache-test/1.0")
	if _, err := assetFetcher.Fetch(context.Background(), fetchParam, testRetryParam(3)); err != nil {
		t.Fatalf("expected recovery after 429, got %v", err)
	}

	if requestCount != 2 {
		t.Errorf("expected 2 requests, got %d", requestCount)
	}
}
