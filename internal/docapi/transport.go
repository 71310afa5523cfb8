package docapi

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"docexplorer/internal/metrics"
)

type contextKey string

const endpointKey contextKey = "endpoint"

func withEndpoint(ctx context.Context, endpoint string) context.Context {
	return context.WithValue(ctx, endpointKey, endpoint)
}

func endpointOf(r *http.Request) string {
	if e, ok := r.Context().Value(endpointKey).(string); ok {
		return e
	}
	return "other"
}

// loggingTransport tags each request with an id and records its outcome.
type loggingTransport struct {
	next    http.RoundTripper
	log     *zap.Logger
	metrics *metrics.Metrics
}

func (t *loggingTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	requestID := uuid.NewString()
	r = r.Clone(r.Context())
	r.Header.Set("X-Request-ID", requestID)

	endpoint := endpointOf(r)
	start := time.Now()
	resp, err := t.next.RoundTrip(r)
	duration := time.Since(start)

	if err != nil {
		t.metrics.RecordRequest(endpoint, 0, duration)
		t.log.Warn("request failed",
			zap.String("request_id", requestID),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	t.metrics.RecordRequest(endpoint, resp.StatusCode, duration)
	t.log.Info("request completed",
		zap.String("request_id", requestID),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("duration", duration),
	)
	return resp, nil
}
