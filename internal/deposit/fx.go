package deposit

import (
	"github.com/leaseway/leaseway/internal/deposit/domain"
	"github.com/leaseway/leaseway/internal/deposit/gateway"
	"github.com/leaseway/leaseway/internal/deposit/service"
	"go.uber.org/fx"
)

var Module = fx.Module("deposit.service",
	fx.Provide(func(client *gateway.CheckoutClient) domain.Gateway { return client }),
	fx.Provide(gateway.NewCheckoutClient),
	fx.Provide(service.NewService),
)
