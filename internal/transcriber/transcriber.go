package transcriber

import (
	"context"
	"errors"
)

var (
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrPayloadTooLarge      = errors.New("payload too large")
	ErrEmptyTranscription   = errors.New("provider returned no transcription text")
	ErrProvider             = errors.New("transcription provider error")
	ErrCancelled            = errors.New("transcription cancelled")
)

// allowedMediaTypes is the fixed set of media types the provider accepts.
var allowedMediaTypes = map[string]struct{}{
	"audio/mp3":   {},
	"audio/mpeg":  {},
	"audio/wav":   {},
	"audio/x-m4a": {},
	"audio/ogg":   {},
	"audio/webm":  {},
	"video/mp4":   {},
	"video/mpeg":  {},
	"video/webm":  {},
}

func MediaTypeAllowed(mimeType string) bool {
	_, ok := allowedMediaTypes[mimeType]
	return ok
}

func AllowedMediaTypes() []string {
	return []string{
		"audio/mp3", "audio/mpeg", "audio/wav", "audio/x-m4a",
		"audio/ogg", "audio/webm", "video/mp4", "video/mpeg", "video/webm",
	}
}

// ProgressFunc receives human-readable stage markers as a transcription
// moves through its phases. Advisory only; callers may pass nil.
type ProgressFunc func(stage string)

type Transcriber interface {
	// Transcribe sends one media payload to the provider and returns the
	// transcribed text verbatim. Exactly one provider request is made per
	// call; there is no internal retry. Cancelling ctx aborts the exchange.
	Transcribe(ctx context.Context, payload []byte, mimeType string, onProgress ProgressFunc) (string, error)
}
