package gateway

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/celustore/payserver/internal/config"
)

// Module exposes the gateway client implementation to the fx graph.
var Module = fx.Provide(newClient)

type clientParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newClient(p clientParams) (Client, error) {
	creds := Credentials{
		GatewayIP:  p.Config.GatewayIP,
		ServerIP:   p.Config.MerchantServerIP,
		MerchantID: p.Config.MerchantID,
		SecretKey:  p.Config.MerchantKey,
	}
	return NewHTTPClient(p.Config.GatewayAddress, creds, p.Logger)
}
