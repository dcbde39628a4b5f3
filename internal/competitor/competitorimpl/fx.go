package competitorimpl

import (
	"github.com/growthlens/growthlens/internal/competitor"
	"go.uber.org/fx"
)

var Module = fx.Module("competitor_service",
	fx.Provide(
		New,
		fx.Annotate(
			func(s *ServiceImpl) competitor.Service {
				return s
			},
			fx.As(new(competitor.Service)),
		),
	),
)
