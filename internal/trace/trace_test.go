package trace

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budgetsync/internal/log"
)

func TestGenerateRunID(t *testing.T) {
	a, b := GenerateRunID(), GenerateRunID()
	assert.True(t, strings.HasPrefix(a, "run_"))
	assert.Len(t, a, len("run_")+16)
	assert.NotEqual(t, a, b)
}

func TestRunID_Context(t *testing.T) {
	assert.Empty(t, RunID(context.Background()))
	ctx := WithRunID(context.Background(), "run_1")
	assert.Equal(t, "run_1", RunID(ctx))
}

func TestTransport_LogsAndCounts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := log.New(log.Config{Level: slog.LevelDebug, Output: &buf, Component: log.ComponentActual})
	tr := NewTransport(nil, logger)
	client := &http.Client{Transport: tr}

	ctx := WithRunID(context.Background(), "run_abc")
	for _, path := range []string{"/ok", "/missing"} {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := client.Do(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}

	m := tr.GetMetrics()
	assert.Equal(t, int64(2), m.TotalRequests)
	assert.Equal(t, int64(1), m.FailedRequests)

	out := buf.String()
	assert.Contains(t, out, "run_id=run_abc")
	assert.Contains(t, out, "path=/missing")
	assert.Contains(t, out, "status_code=404")
	assert.Contains(t, out, "level=WARN")
}

func TestTransport_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	tr := NewTransport(nil, nil)
	_, err := (&http.Client{Transport: tr}).Get(url)
	require.Error(t, err)
	assert.Equal(t, int64(1), tr.GetMetrics().FailedRequests)
}
