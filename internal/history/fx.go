package history

import (
	"github.com/leaseway/leaseway/internal/history/repository"
	"github.com/leaseway/leaseway/internal/history/service"
	"go.uber.org/fx"
)

var Module = fx.Module("history.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
