package margin

import (
	"github.com/ramirezvene/token-desconto/internal/margin/repository"
	"github.com/ramirezvene/token-desconto/internal/margin/service"
	"go.uber.org/fx"
)

var Module = fx.Module("margin.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewService),
)
