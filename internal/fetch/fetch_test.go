package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/kotae/internal/config"
)

func testConfig() *config.FetchConfig {
	return &config.FetchConfig{Timeout: 5 * time.Second, UserAgent: "kotae-test", MaxBodyBytes: 1 << 20}
}

func TestFetch_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "kotae-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<p>hi</p>")
	}))
	defer srv.Close()

	resp, err := NewHTTPFetcher(testConfig()).Fetch(context.Background(), srv.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/html; charset=utf-8", resp.ContentType)
	assert.Equal(t, "<p>hi</p>", string(resp.Body))
	assert.Equal(t, srv.URL+"/page", resp.URL)
}

func TestFetch_NonSuccessIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, "<p>gone</p>")
	}))
	defer srv.Close()

	resp, err := NewHTTPFetcher(testConfig()).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "<p>gone</p>", string(resp.Body))
}

func TestFetch_BodyCap(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	cfg := testConfig()
	cfg.MaxBodyBytes = 10
	resp, err := NewHTTPFetcher(cfg, WithLogger(zap.New(core))).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 10)
	assert.Equal(t, 1, logs.FilterMessage("body truncated").Len())
}

func TestFetch_BodyAtCapIsNotTruncated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 10))
	}))
	defer srv.Close()

	core, logs := observer.New(zap.WarnLevel)
	cfg := testConfig()
	cfg.MaxBodyBytes = 10
	resp, err := NewHTTPFetcher(cfg, WithLogger(zap.New(core))).Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Len(t, resp.Body, 10)
	assert.Zero(t, logs.FilterMessage("body truncated").Len())
}

func TestFetch_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewHTTPFetcher(testConfig()).Fetch(context.Background(), url)
	assert.Error(t, err)
}

func TestFetch_CanceledContext(t *testing.T) {
	cfg := testConfig()
	cfg.RequestsPerSecond = 0.001
	f := NewHTTPFetcher(cfg)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	// The first request consumes the burst; the second must wait far longer than the deadline.
	_, err := f.Fetch(context.Background(), srv.URL)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, srv.URL)
	assert.Error(t, err)
}
