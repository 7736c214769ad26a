package bootstrap

import (
	"context"

	"libcirc/internal/infra/memstore"
	"libcirc/internal/infra/sqlitestore"
	"libcirc/internal/pkg/config"
	"libcirc/internal/usecase/commands"

	"go.uber.org/fx"
)

var StoreModule = fx.Module("store",
	fx.Provide(
		NewStore,
	),
)

func NewStore(cfg config.Config, lc fx.Lifecycle) (commands.Store, error) {
	if cfg.Store.Backend == "memory" {
		return memstore.New(), nil
	}

	s, err := sqlitestore.New(cfg.Store.Path)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(_ context.Context) error {
			return s.Close()
		},
	})
	return s, nil
}
