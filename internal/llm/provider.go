// Package llm abstracts the large-language-model provider behind a request/response
// call and a text-delta stream, so the provider can be swapped without touching callers.
package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
)

var (
	ErrNoCandidates = errors.New("provider returned no candidates")
	ErrEmptyText    = errors.New("provider returned empty text")
	ErrNoBody       = errors.New("provider returned no response body")
)

// StatusError is returned when the provider answers with a non-success HTTP status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d: %s", e.StatusCode, e.Body)
}

// Options are sampling parameters; zero values are left to the provider default.
type Options struct {
	Temperature     float64
	TopP            float64
	TopK            int
	MaxOutputTokens int
}

type Request struct {
	System  string
	Prompt  string
	Options Options
}

// DeltaStream yields incremental text fragments in order. Next returns io.EOF
// once the provider finished cleanly; any other error means the response is
// incomplete.
type DeltaStream interface {
	Next() (string, error)
	Close() error
}

type Provider interface {
	Name() string
	// Complete waits for the full response and returns its text.
	Complete(ctx context.Context, req Request) (string, error)
	// Stream opens a streaming response. Provider-level failures are reported
	// here, before any delta is produced.
	Stream(ctx context.Context, req Request) (DeltaStream, error)
}

// Collect drains a stream into a single string. The stream is closed.
func Collect(s DeltaStream) (string, error) {
	defer s.Close()
	var b strings.Builder
	for {
		d, err := s.Next()
		if err == io.EOF {
			return b.String(), nil
		}
		if err != nil {
			return b.String(), err
		}
		b.WriteString(d)
	}
}
