package domain

import (
	"context"
	"errors"
)

type Service interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	GetStore(ctx context.Context, id string) (Store, error)
	GetStateConfig(ctx context.Context, uf string) (StateConfig, error)
	ListStores(ctx context.Context) ([]Store, error)
	ListStateConfigs(ctx context.Context) ([]StateConfig, error)
}

var (
	ErrInvalidProduct  = errors.New("invalid_product")
	ErrInvalidStore    = errors.New("invalid_store")
	ErrProductNotFound = errors.New("product_not_found")
	ErrStoreNotFound   = errors.New("store_not_found")
	ErrStateNotFound   = errors.New("state_not_found")
	ErrRateNotFound    = errors.New("rate_not_found")
	ErrInvalidUF       = errors.New("invalid_uf")
)
