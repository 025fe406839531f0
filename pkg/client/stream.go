package client

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/paperfix/paperfix/backend/go-services/pkg/logger"
)

// ErrIncompleteStream means the connection ended before the server's [DONE]
// marker, so the text received so far is a truncated document.
var ErrIncompleteStream = errors.New("stream ended before completion")

// Stream decodes the server's `data:` events into text deltas. Events that
// are not valid JSON are logged and skipped.
type Stream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
	done    bool
	err     error
}

func NewStream(body io.ReadCloser) *Stream {
	sc := bufio.NewScanner(body)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	return &Stream{body: body, scanner: sc}
}

// Next returns the next delta, io.EOF after [DONE], or ErrIncompleteStream
// (wrapping the read error, if any) when the body ends early.
func (s *Stream) Next() (string, error) {
	if s.done {
		return "", io.EOF
	}
	if s.err != nil {
		return "", s.err
	}
	for s.scanner.Scan() {
		line := strings.TrimRight(s.scanner.Text(), "\r")
		data, ok := strings.CutPrefix(line, "data:")
		if !ok {
			continue
		}
		data = strings.TrimSpace(data)
		if data == "[DONE]" {
			s.done = true
			return "", io.EOF
		}
		var ev struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			logger.Warnf("client: skipping undecodable event: %v", err)
			continue
		}
		if ev.Text == "" {
			continue
		}
		return ev.Text, nil
	}
	if err := s.scanner.Err(); err != nil {
		s.err = fmt.Errorf("%w: %v", ErrIncompleteStream, err)
	} else {
		s.err = ErrIncompleteStream
	}
	return "", s.err
}

func (s *Stream) Close() error { return s.body.Close() }

// Collect reads the stream to the end and closes it. On failure the partial
// text is returned with the error.
func (s *Stream) Collect() (string, error) {
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
