package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string, rateMS, backoffMS int) *Client {
	return NewClient(Config{
		BaseURL:        baseURL,
		RateLimitMS:    rateMS,
		BackoffMS:      backoffMS,
		MaxRetries:     3,
		TimeoutSeconds: 5,
	}, zap.NewNop())
}

func TestClientRetriesOn5xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(`{"numFound":1,"docs":[{"key":"OL1A","name":"Jane Doe","work_count":3}]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, 20)

	start := time.Now()
	resp, err := client.SearchAuthors(context.Background(), "Jane Doe", 10)
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Equal(t, int32(3), calls.Load(), "succeeds on the third attempt")
	require.Len(t, resp.Docs, 1)
	assert.Equal(t, "OL1A", resp.Docs[0].Key)
	// Linear backoff: 1x20ms after attempt 1, 2x20ms after attempt 2.
	assert.GreaterOrEqual(t, elapsed, 60*time.Millisecond)
}

func TestClientDoesNotRetry4xx(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "no such author", http.StatusNotFound)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, 1)

	_, err := client.SearchAuthors(context.Background(), "nobody", 10)
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.Code)
	assert.Equal(t, int32(1), calls.Load(), "4xx is non-transient")
}

func TestClientExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, 1)

	_, err := client.WorkDetail(context.Background(), "OL45883W")
	require.Error(t, err)

	var reqErr *RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, 3, reqErr.Attempts)
	assert.Contains(t, reqErr.Path, "/works/OL45883W.json")
	assert.Equal(t, int32(3), calls.Load())
}

func TestClientRateLimitsConsecutiveRequests(t *testing.T) {
	var times []time.Time
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		times = append(times, time.Now())
		w.Write([]byte(`{"numFound":0,"docs":[]}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 60, 1)

	_, err := client.SearchAuthors(context.Background(), "a", 10)
	require.NoError(t, err)
	_, err = client.SearchAuthors(context.Background(), "b", 10)
	require.NoError(t, err)

	require.Len(t, times, 2)
	assert.GreaterOrEqual(t, times[1].Sub(times[0]), 50*time.Millisecond,
		"second request waits out the interval")
}

func TestClientTrimsOpaqueKeys(t *testing.T) {
	var paths []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, 1)
	ctx := context.Background()

	_, err := client.WorkDetail(ctx, " /works/OL45883W/ ")
	require.NoError(t, err)
	_, err = client.AuthorWorks(ctx, "/authors/OL1A", 10, 0)
	require.NoError(t, err)

	require.Len(t, paths, 2)
	assert.Equal(t, "/works/OL45883W.json", paths[0])
	assert.Equal(t, "/authors/OL1A/works.json", paths[1])
}

func TestClientCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL, 0, 10_000)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	// First attempt fails with 503; the backoff sleep must honor cancellation
	// instead of blocking for the full 10s.
	start := time.Now()
	_, err := client.WorkDetail(ctx, "OL45883W")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 2*time.Second)
}
