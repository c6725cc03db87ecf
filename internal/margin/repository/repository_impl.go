package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() margindomain.Repository {
	return &repo{}
}

func (r *repo) ListProductMargins(ctx context.Context, db *gorm.DB, productID snowflake.ID) ([]margindomain.ProductMargin, error) {
	var rows []margindomain.ProductMargin
	// Newest first so simultaneous active windows resolve deterministically.
	err := db.WithContext(ctx).
		Where("product_id = ?", productID).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}

func (r *repo) ListSubgroupMargins(ctx context.Context, db *gorm.DB, subgroup string) ([]margindomain.SubgroupMargin, error) {
	var rows []margindomain.SubgroupMargin
	err := db.WithContext(ctx).
		Where("subgroup = ?", strings.TrimSpace(subgroup)).
		Order("created_at DESC, id DESC").
		Find(&rows).Error
	return rows, err
}
