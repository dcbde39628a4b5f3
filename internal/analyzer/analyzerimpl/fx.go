package analyzerimpl

import (
	"github.com/growthlens/growthlens/internal/analyzer"
	"go.uber.org/fx"
)

var Module = fx.Module("analyzer",
	fx.Provide(
		New,
		fx.Annotate(
			func(s *ServiceImpl) analyzer.Service {
				return s
			},
			fx.As(new(analyzer.Service)),
		),
	),
)
