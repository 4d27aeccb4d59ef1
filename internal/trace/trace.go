// Package trace tags a run with an id and logs outgoing HTTP calls.
package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"budgetsync/internal/log"
)

type contextKey string

// RunIDKey is the context key for the run id
const RunIDKey contextKey = log.FieldRunID

// GenerateRunID creates a unique id for one export run
func GenerateRunID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("run_%d", time.Now().UnixNano())
	}
	return "run_" + hex.EncodeToString(bytes)
}

// WithRunID returns a copy of ctx carrying id
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RunIDKey, id)
}

// RunID extracts the run id from context
func RunID(ctx context.Context) string {
	if id, ok := ctx.Value(RunIDKey).(string); ok {
		return id
	}
	return ""
}

// Metrics counts requests sent through a Transport
type Metrics struct {
	TotalRequests    int64
	FailedRequests   int64
	LastResponseTime int64 // microseconds
}

// Transport logs every request it forwards to Base.
type Transport struct {
	Base    http.RoundTripper
	logger  *log.Logger
	metrics Metrics
}

// NewTransport wraps base, or http.DefaultTransport when base is nil.
func NewTransport(base http.RoundTripper, logger *log.Logger) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Transport{Base: base, logger: logger}
}

func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := r.Context()
	atomic.AddInt64(&t.metrics.TotalRequests, 1)

	resp, err := t.Base.RoundTrip(r)
	duration := time.Since(start)
	atomic.StoreInt64(&t.metrics.LastResponseTime, duration.Microseconds())

	if err != nil {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
		t.logger.Logger.Log(ctx, slog.LevelWarn, "HTTP request failed",
			log.FieldComponent, t.logger.Component(),
			log.FieldRunID, RunID(ctx),
			"method", r.Method,
			"path", r.URL.Path,
			log.FieldDuration, duration.Milliseconds(),
			log.FieldError, err)
		return nil, err
	}

	level := slog.LevelDebug
	if resp.StatusCode >= 500 {
		level = slog.LevelError
	} else if resp.StatusCode >= 400 {
		level = slog.LevelWarn
	}
	if resp.StatusCode >= 400 {
		atomic.AddInt64(&t.metrics.FailedRequests, 1)
	}

	t.logger.Logger.Log(ctx, level, "HTTP request completed",
		log.FieldComponent, t.logger.Component(),
		log.FieldRunID, RunID(ctx),
		"method", r.Method,
		"path", r.URL.Path,
		"status_code", resp.StatusCode,
		log.FieldDuration, duration.Milliseconds())
	return resp, nil
}

// GetMetrics returns current metrics
func (t *Transport) GetMetrics() Metrics {
	return Metrics{
		TotalRequests:    atomic.LoadInt64(&t.metrics.TotalRequests),
		FailedRequests:   atomic.LoadInt64(&t.metrics.FailedRequests),
		LastResponseTime: atomic.LoadInt64(&t.metrics.LastResponseTime),
	}
}
