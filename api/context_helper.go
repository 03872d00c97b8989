package api

import (
	"context"
	"os"
	"strconv"
	"time"
)

const defaultQueryTimeout = 15 * time.Second

// WithQueryTimeout returns a context bounded by the configured database query
// timeout. QUERY_TIMEOUT_SECONDS overrides the default of 15s.
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	timeout := defaultQueryTimeout
	if v := os.Getenv("QUERY_TIMEOUT_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			timeout = time.Duration(secs) * time.Second
		}
	}
	return context.WithTimeout(parent, timeout)
}
