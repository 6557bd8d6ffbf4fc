package transcript

import (
	"github.com/samber/do/v2"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/storage"
	"github.com/scribeflow/scribeflow/internal/transcriber"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Orchestrator, error) {
		cfg := do.MustInvoke[*config.Config](i)
		store := do.MustInvoke[storage.Store](i)
		stt := do.MustInvoke[transcriber.Transcriber](i)
		return NewOrchestrator(store, stt, cfg.MaxFileSizeBytes()), nil
	})
}
