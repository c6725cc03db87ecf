package quota

import (
	"github.com/ramirezvene/token-desconto/internal/quota/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("quota.ledger",
	fx.Provide(repository.Provide),
)
