// Package speech holds the voice transcriber used by the voice assistant.
package speech

import (
	"context"

	"realty-marketplace/internal/domain/ports/adapter"
)

var _ adapter.Transcriber = (*StubTranscriber)(nil)

// DefaultTranscript is returned for every recording until a speech-to-text
// provider is configured.
const DefaultTranscript = "I'm looking for a 3 bedroom apartment in New York under 500000"

type StubTranscriber struct {
	Text string
}

func NewStubTranscriber() *StubTranscriber { return &StubTranscriber{Text: DefaultTranscript} }

func (s *StubTranscriber) Transcribe(ctx context.Context, _ []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.Text, nil
}
