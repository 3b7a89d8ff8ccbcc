package notify

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/celustore/payserver/internal/config"
	"github.com/celustore/payserver/internal/usecase"
)

// Module provides the order-confirmation notifier. Without a broker
// address the notifier degrades to a no-op so payments keep working.
var Module = fx.Provide(newNotifier)

type notifierParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    *config.Config
	Logger    *slog.Logger
}

func newNotifier(p notifierParams) (usecase.OrderNotifier, error) {
	if p.Config.AMQPAddress == "" {
		p.Logger.Info("amqp address not configured, order notifications disabled")
		return NopNotifier{}, nil
	}

	publisher, err := NewAMQPPublisher(p.Config.AMQPAddress, p.Logger)
	if err != nil {
		return nil, err
	}

	p.Lifecycle.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			publisher.Close()
			return nil
		},
	})

	return publisher, nil
}
