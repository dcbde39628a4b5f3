package anthropic

import (
	"github.com/growthlens/growthlens/internal/intelligence"
	"go.uber.org/fx"
)

var Module = fx.Module("anthropic_client",
	fx.Provide(
		New,
		fx.Annotate(
			func(c *Client) intelligence.Client {
				return c
			},
			fx.As(new(intelligence.Client)),
		),
	),
)
