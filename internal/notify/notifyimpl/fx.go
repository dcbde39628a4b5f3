package notifyimpl

import (
	"github.com/growthlens/growthlens/internal/notify"
	"go.uber.org/fx"
)

var Module = fx.Module("notifier",
	fx.Provide(
		New,
		fx.Annotate(
			func(n *WebhookNotifier) notify.Notifier {
				return n
			},
			fx.As(new(notify.Notifier)),
		),
	),
)
