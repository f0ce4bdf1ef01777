package rent

import (
	"github.com/leaseway/leaseway/internal/rent/repository"
	"github.com/leaseway/leaseway/internal/rent/service"
	"go.uber.org/fx"
)

var Module = fx.Module("rent.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
