package token

import (
	"github.com/ramirezvene/token-desconto/internal/token/repository"
	"github.com/ramirezvene/token-desconto/internal/token/service"
	"go.uber.org/fx"
)

var Module = fx.Module("token.service",
	fx.Provide(
		repository.Provide,
		service.NewService,
	),
)
