package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	ListProductMargins(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]ProductMargin, error)
	ListSubgroupMargins(ctx context.Context, db *gorm.DB, subgroup string) ([]SubgroupMargin, error)
}
