package client

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func streamOf(s string) *Stream {
	return NewStream(io.NopCloser(strings.NewReader(s)))
}

func TestStream_Complete(t *testing.T) {
	s := streamOf("data: {\"text\":\"Hello\"}\n\n: keep-alive\n\ndata: {\"text\":\", world\"}\r\n\r\ndata: [DONE]\n\n")
	text, err := s.Collect()
	require.NoError(t, err)
	require.Equal(t, "Hello, world", text)

	_, err = s.Next()
	require.Equal(t, io.EOF, err)
}

func TestStream_Incomplete(t *testing.T) {
	s := streamOf("data: {\"text\":\"Hel\"}\n\n")
	text, err := s.Collect()
	require.True(t, errors.Is(err, ErrIncompleteStream))
	require.Equal(t, "Hel", text)

	_, err = s.Next()
	require.True(t, errors.Is(err, ErrIncompleteStream))
}

func TestStream_SkipsBadEvent(t *testing.T) {
	text, err := streamOf("data: {\"text\":\"a\"}\n\ndata: {oops\n\ndata: {\"text\":\"b\"}\n\ndata: [DONE]\n\n").Collect()
	require.NoError(t, err)
	require.Equal(t, "ab", text)

	// a bad event does not stand in for the missing [DONE]
	_, err = streamOf("data: {oops\n\n").Next()
	require.ErrorIs(t, err, ErrIncompleteStream)
}

type failingReader struct{}

func (failingReader) Read(p []byte) (int, error) { return 0, errors.New("connection reset") }

func TestStream_ReadError(t *testing.T) {
	s := NewStream(io.NopCloser(io.MultiReader(strings.NewReader("data: {\"text\":\"a\"}\n"), failingReader{})))
	d, err := s.Next()
	require.NoError(t, err)
	require.Equal(t, "a", d)

	_, err = s.Next()
	require.True(t, errors.Is(err, ErrIncompleteStream))
	require.Contains(t, err.Error(), "connection reset")
}
