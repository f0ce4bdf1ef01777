package eventledger

import (
	"github.com/leaseway/leaseway/internal/eventledger/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("eventledger",
	fx.Provide(repository.Provide),
)
