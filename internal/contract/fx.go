package contract

import (
	"github.com/leaseway/leaseway/internal/contract/repository"
	"github.com/leaseway/leaseway/internal/contract/service"
	"go.uber.org/fx"
)

var Module = fx.Module("contract.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
