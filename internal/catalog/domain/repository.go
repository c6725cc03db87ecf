package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindStore(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Store, error)
	FindStateConfig(ctx context.Context, db *gorm.DB, uf string) (*StateConfig, error)
	ListStores(ctx context.Context, db *gorm.DB) ([]Store, error)
	ListStateConfigs(ctx context.Context, db *gorm.DB) ([]StateConfig, error)
}
