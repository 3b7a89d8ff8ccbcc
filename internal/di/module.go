package di

import (
	"go.uber.org/fx"

	"github.com/celustore/payserver/internal/adapter/gateway"
	"github.com/celustore/payserver/internal/adapter/notify"
	"github.com/celustore/payserver/internal/app"
	"github.com/celustore/payserver/internal/config"
	"github.com/celustore/payserver/internal/logger"
	"github.com/celustore/payserver/internal/server/http/handlers"
	"github.com/celustore/payserver/internal/server/http/router"
	"github.com/celustore/payserver/internal/storage/postgres"
	"github.com/celustore/payserver/internal/usecase"
)

func Module(opts ...fx.Option) fx.Option {
	modules := []fx.Option{
		config.Module,
		logger.Module,
		postgres.Module,
		gateway.Module,
		notify.Module,
		usecase.Module,
		fx.Provide(func(s *postgres.Storage) app.HealthChecker { return s }),
		fx.Provide(func(f *app.CommerceFacade) handlers.CommerceFacade { return f }),
		router.Module,
		app.Module,
	}
	modules = append(modules, opts...)
	return fx.Options(modules...)
}
