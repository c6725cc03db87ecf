package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() catalogdomain.Repository {
	return &repo{}
}

func (r *repo) FindProduct(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Product, error) {
	var product catalogdomain.Product
	err := db.WithContext(ctx).
		Preload("Rates").
		Where("id = ?", id).
		First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (r *repo) FindStore(ctx context.Context, db *gorm.DB, id snowflake.ID) (*catalogdomain.Store, error) {
	var store catalogdomain.Store
	err := db.WithContext(ctx).Where("id = ?", id).First(&store).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &store, nil
}

func (r *repo) FindStateConfig(ctx context.Context, db *gorm.DB, uf string) (*catalogdomain.StateConfig, error) {
	var state catalogdomain.StateConfig
	err := db.WithContext(ctx).
		Where("uf = ?", strings.ToUpper(strings.TrimSpace(uf))).
		First(&state).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &state, nil
}

func (r *repo) ListStores(ctx context.Context, db *gorm.DB) ([]catalogdomain.Store, error) {
	var stores []catalogdomain.Store
	err := db.WithContext(ctx).Order("name").Find(&stores).Error
	return stores, err
}

func (r *repo) ListStateConfigs(ctx context.Context, db *gorm.DB) ([]catalogdomain.StateConfig, error) {
	var states []catalogdomain.StateConfig
	err := db.WithContext(ctx).Order("uf").Find(&states).Error
	return states, err
}
