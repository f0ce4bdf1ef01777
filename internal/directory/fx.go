package directory

import (
	"github.com/leaseway/leaseway/internal/directory/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("directory",
	fx.Provide(repository.Provide),
)
