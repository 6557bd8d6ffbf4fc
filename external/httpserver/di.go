package httpserver

import (
	"github.com/samber/do/v2"
	"github.com/scribeflow/scribeflow/internal/config"
	"github.com/scribeflow/scribeflow/internal/identity"
	"github.com/scribeflow/scribeflow/internal/transcript"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Server, error) {
		cfg := do.MustInvoke[*config.Config](i)
		idm := do.MustInvoke[*identity.Manager](i)
		jobs := do.MustInvoke[*transcript.Orchestrator](i)
		return NewServer(cfg, idm, jobs), nil
	})
}
