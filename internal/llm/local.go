package llm

import (
	"context"
	"io"
	"strings"
)

// LocalProvider produces a deterministic placeholder document without any
// network access. It backs development setups that have no provider key.
type LocalProvider struct{}

func NewLocalProvider() *LocalProvider { return &LocalProvider{} }

func (p *LocalProvider) Name() string { return "local" }

func (p *LocalProvider) render(req Request) string {
	var b strings.Builder
	b.WriteString("DRAFT DOCUMENT\n\n")
	b.WriteString("This draft was produced without an AI provider. The request was:\n\n")
	b.WriteString(strings.TrimSpace(req.Prompt))
	b.WriteString("\n")
	return b.String()
}

func (p *LocalProvider) Complete(ctx context.Context, req Request) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return p.render(req), nil
}

func (p *LocalProvider) Stream(ctx context.Context, req Request) (DeltaStream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &sliceStream{ctx: ctx, parts: strings.SplitAfter(p.render(req), " ")}, nil
}

type sliceStream struct {
	ctx   context.Context
	parts []string
}

func (s *sliceStream) Next() (string, error) {
	if err := s.ctx.Err(); err != nil {
		return "", err
	}
	if len(s.parts) == 0 {
		return "", io.EOF
	}
	d := s.parts[0]
	s.parts = s.parts[1:]
	return d, nil
}

func (s *sliceStream) Close() error { return nil }
