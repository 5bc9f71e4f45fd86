package adapter

import "context"

// Transcriber turns recorded audio into text for the voice assistant.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, language string) (string, error)
}
