package nlpimpl

import (
	"github.com/growthlens/growthlens/internal/nlp"
	"go.uber.org/fx"
)

var Module = fx.Module("nlp_client",
	fx.Provide(
		New,
		fx.Annotate(
			func(c *ClientImpl) nlp.Client {
				return c
			},
			fx.As(new(nlp.Client)),
		),
	),
)
