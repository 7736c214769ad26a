package bootstrap

import (
	"context"
	"log/slog"

	"libcirc/internal/infra/policy"
	"libcirc/internal/pkg/clock"
	"libcirc/internal/pkg/config"
	"libcirc/internal/usecase/commands"
	"libcirc/internal/usecase/queries"

	"go.uber.org/fx"
)

var EngineModule = fx.Module("engine",
	fx.Provide(
		clock.NewRealClock,
		NewDuePolicy,
		NewLendingEngine,
		NewLendingCommands,
		NewReader,
		queries.NewLendingQueries,
	),
)

func NewDuePolicy(cfg config.Config) commands.DuePolicy {
	return policy.NewFixedTermPolicy(cfg.Lending)
}

func NewLendingEngine(store commands.Store, duePolicy commands.DuePolicy, clk clock.Clock, logger *slog.Logger) (*commands.LendingEngine, error) {
	return commands.NewLendingEngine(context.Background(), store, duePolicy, clk, logger)
}

func NewLendingCommands(e *commands.LendingEngine) commands.LendingCommands {
	return e
}

func NewReader(e *commands.LendingEngine) queries.Reader {
	return e
}
