package signature

import (
	"github.com/leaseway/leaseway/internal/config"
	"github.com/leaseway/leaseway/internal/signature/adapters"
	"github.com/leaseway/leaseway/internal/signature/adapters/docuseal"
	"github.com/leaseway/leaseway/internal/signature/adapters/mocksign"
	"github.com/leaseway/leaseway/internal/signature/domain"
	"github.com/leaseway/leaseway/internal/signature/repository"
	"github.com/leaseway/leaseway/internal/signature/service"
	"go.uber.org/fx"
)

var Module = fx.Module("signature.service",
	fx.Provide(NewRegistry),
	fx.Provide(NewProvider),
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)

func NewRegistry() *adapters.Registry {
	return adapters.NewRegistry(
		mocksign.NewFactory(),
		docuseal.NewFactory(),
	)
}

// NewProvider builds the single active provider selected by configuration.
func NewProvider(cfg config.Config, registry *adapters.Registry) (domain.Provider, error) {
	return registry.NewProvider(cfg.Signature.Provider, domain.Config{
		BaseURL:       cfg.Signature.BaseURL,
		APIKey:        cfg.Signature.APIKey,
		WebhookSecret: cfg.Signature.WebhookSecret,
	})
}
