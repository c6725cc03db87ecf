package migration

import (
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"github.com/ramirezvene/token-desconto/internal/config"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"github.com/ramirezvene/token-desconto/internal/seed"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are development conveniences; gorm's
			// AutoMigrate keeps them schema-compatible without a second
			// migration source.
			if err := conn.AutoMigrate(
				&catalogdomain.Product{},
				&catalogdomain.ProductRate{},
				&catalogdomain.Store{},
				&catalogdomain.StateConfig{},
				&margindomain.ProductMargin{},
				&margindomain.SubgroupMargin{},
				&tokendomain.Token{},
				&tokendomain.TokenItem{},
			); err != nil {
				return err
			}
		}

		return seed.EnsureStateConfigs(conn)
	}),
)
