package tokensimpl

import (
	"github.com/growthlens/growthlens/internal/tokens"
	"go.uber.org/fx"
)

var Module = fx.Module("token_manager",
	fx.Provide(
		New,
		fx.Annotate(
			func(m *ManagerImpl) tokens.Manager {
				return m
			},
			fx.As(new(tokens.Manager)),
		),
	),
)
