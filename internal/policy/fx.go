package policy

import (
	"github.com/ramirezvene/token-desconto/internal/policy/service"
	"go.uber.org/fx"
)

var Module = fx.Module("policy.service",
	fx.Provide(service.NewService),
)
