package http

import (
	"fmt"
	"time"
)

// Response is a received HTTP response with its body fully read
type Response struct {
	StatusCode int
	Body       []byte
	Duration   time.Duration
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// String is the one-line form used by the call log
func (r *Response) String() string {
	return fmt.Sprintf("%d (%dms, %d bytes)", r.StatusCode, r.DurationMs(), len(r.Body))
}
