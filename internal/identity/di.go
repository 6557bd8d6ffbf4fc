package identity

import (
	"github.com/samber/do/v2"
	"github.com/scribeflow/scribeflow/internal/storage"
)

func RegisterDI(injector do.Injector) {
	do.Provide(injector, func(i do.Injector) (*Manager, error) {
		store := do.MustInvoke[storage.Store](i)
		return NewManager(store), nil
	})
}
