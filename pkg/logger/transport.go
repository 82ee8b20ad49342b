package logger

import (
	"log/slog"
	"net/http"
	"time"
)

// Transport logs every outgoing request made through the wrapped RoundTripper
type Transport struct {
	next   http.RoundTripper
	logger *slog.Logger
}

// NewTransport wraps next, or http.DefaultTransport when nil, with request logging.
// Successful calls are logged at debug level so a regular run stays quiet.
func NewTransport(logger *slog.Logger, next http.RoundTripper) *Transport {
	if next == nil {
		next = http.DefaultTransport
	}
	return &Transport{next: next, logger: logger}
}

// RoundTrip implements http.RoundTripper
func (t *Transport) RoundTrip(r *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := t.next.RoundTrip(r)

	attrs := []slog.Attr{
		slog.String("method", r.Method),
		slog.String("uri", r.URL.RequestURI()),
		slog.Duration("duration", time.Since(start)),
	}

	var level slog.Level
	switch {
	case err != nil:
		level = slog.LevelError
		attrs = append(attrs, slog.String("error", err.Error()))
	case resp.StatusCode >= http.StatusInternalServerError:
		level = slog.LevelError
	case resp.StatusCode >= http.StatusBadRequest:
		level = slog.LevelWarn
	default:
		level = slog.LevelDebug
	}

	if resp != nil {
		attrs = append(attrs,
			slog.Int("status", resp.StatusCode),
			slog.Int64("bytes_in", max(0, resp.ContentLength)),
		)
	}

	// Log with constant message - let structured fields tell the story
	t.logger.LogAttrs(r.Context(), level, "HTTP", attrs...)

	return resp, err
}
