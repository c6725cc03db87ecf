package catalog

import (
	"github.com/ramirezvene/token-desconto/internal/catalog/repository"
	"github.com/ramirezvene/token-desconto/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
