package services

import (
	"context"
	"errors"

	"github.com/ASalazar036/ProyectoFepi/internal/config"
)

// Error taxonomy for the AI layer. Callers match with errors.Is; the
// HTTP layer maps each sentinel to a status code.
var (
	// ErrProviderUnavailable: missing credential or unreachable endpoint.
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	// ErrProvider: the backend accepted the connection but rejected the request.
	ErrProvider = errors.New("ai provider error")
	// ErrTranscriptionFailed wraps any transcription failure, cloud or subprocess.
	ErrTranscriptionFailed = errors.New("transcription failed")
	// ErrMalformedResponse: no well-formed JSON object in the model output.
	ErrMalformedResponse = errors.New("malformed ai response")
)

type GenerationRequest struct {
	Prompt            string
	SystemInstruction string
}

// Provider is an AI backend capable of text generation and audio
// transcription. AnalyzeAudio is part of the capability surface so the
// cloud implementation can answer with a single multimodal call while
// the local one composes transcription and generation.
type Provider interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
	Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error)
	AnalyzeAudio(ctx context.Context, audio []byte, mimeType, instructions string) (string, error)
}

// NewProvider selects the concrete backend once, at startup. The
// selection is immutable for the process lifetime.
func NewProvider(cfg config.Config) Provider {
	if cfg.AIProvider == config.ProviderLocal {
		return NewLocalProvider(cfg)
	}
	return NewGeminiProvider(cfg)
}

// joinInstruction folds the system instruction and the prompt into a
// single payload. Neither backend exposes a separate system-role
// channel in this design.
func joinInstruction(req GenerationRequest) string {
	if req.SystemInstruction == "" {
		return req.Prompt
	}
	return req.SystemInstruction + "\n\n" + req.Prompt
}
