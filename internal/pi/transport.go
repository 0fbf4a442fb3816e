package pi

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// loggingTransport implements http.RoundTripper and logs every Pi platform
// call. Authorization headers are never logged.
type loggingTransport struct {
	transport http.RoundTripper
}

func (t *loggingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	transport := t.transport
	if transport == nil {
		transport = http.DefaultTransport
	}

	start := time.Now()
	resp, err := transport.RoundTrip(req)
	duration := time.Since(start)

	if err != nil {
		zap.L().Warn("pi platform request failed",
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, err
	}

	zap.L().Debug("pi platform request",
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("status", resp.Status),
		zap.Duration("duration", duration))

	return resp, nil
}

// newHTTPClient returns an http.Client with request logging enabled.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: &loggingTransport{transport: http.DefaultTransport},
	}
}
