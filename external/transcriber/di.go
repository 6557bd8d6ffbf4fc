package transcriber

import (
	"github.com/samber/do/v2"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (transcriber.Transcriber, error) {
		c := do.MustInvoke[*config.Config](i)
		return NewGeminiTranscriber(GeminiConfig{
			APIKey:          c.GeminiAPIKey,
			Model:           c.GeminiModel,
			MaxPayloadBytes: c.MaxFileSizeBytes(),
		}), nil
	})
}
