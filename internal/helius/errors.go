package helius

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// APIError is a failed call to a Helius REST endpoint.
type APIError struct {
	Op         string
	StatusCode int    // 0 when the request never got a response
	Body       string // truncated response body
	Err        error
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("helius %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("helius %s: %v", e.Op, e.Err)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// Timeout reports whether the call failed on a deadline.
func (e *APIError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}
