package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/cache"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  catalogdomain.Repository
	cache *cache.Cache
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  catalogdomain.Repository
	Cache *cache.Cache
}

func NewService(p ServiceParam) catalogdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("catalog.service"),
		repo:  p.Repo,
		cache: p.Cache,
	}
}

func (s *Service) GetProduct(ctx context.Context, id string) (catalogdomain.Product, error) {
	parsed, err := parseID(id, catalogdomain.ErrInvalidProduct)
	if err != nil {
		return catalogdomain.Product{}, err
	}

	var cached catalogdomain.Product
	if s.cache.GetJSON(ctx, "product:"+id, &cached) {
		return cached, nil
	}

	product, err := s.repo.FindProduct(ctx, s.db, parsed)
	if err != nil {
		return catalogdomain.Product{}, err
	}
	if product == nil {
		return catalogdomain.Product{}, catalogdomain.ErrProductNotFound
	}

	s.cache.SetJSON(ctx, "product:"+id, product)
	return *product, nil
}

func (s *Service) GetStore(ctx context.Context, id string) (catalogdomain.Store, error) {
	parsed, err := parseID(id, catalogdomain.ErrInvalidStore)
	if err != nil {
		return catalogdomain.Store{}, err
	}

	// Stores are never cached: the quota column changes on every issuance.
	store, err := s.repo.FindStore(ctx, s.db, parsed)
	if err != nil {
		return catalogdomain.Store{}, err
	}
	if store == nil {
		return catalogdomain.Store{}, catalogdomain.ErrStoreNotFound
	}
	return *store, nil
}

func (s *Service) GetStateConfig(ctx context.Context, uf string) (catalogdomain.StateConfig, error) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	if len(uf) != 2 {
		return catalogdomain.StateConfig{}, catalogdomain.ErrInvalidUF
	}

	var cached catalogdomain.StateConfig
	if s.cache.GetJSON(ctx, "state:"+uf, &cached) {
		return cached, nil
	}

	state, err := s.repo.FindStateConfig(ctx, s.db, uf)
	if err != nil {
		return catalogdomain.StateConfig{}, err
	}
	if state == nil {
		return catalogdomain.StateConfig{}, catalogdomain.ErrStateNotFound
	}

	s.cache.SetJSON(ctx, "state:"+uf, state)
	return *state, nil
}

func (s *Service) ListStores(ctx context.Context) ([]catalogdomain.Store, error) {
	return s.repo.ListStores(ctx, s.db)
}

func (s *Service) ListStateConfigs(ctx context.Context) ([]catalogdomain.StateConfig, error) {
	return s.repo.ListStateConfigs(ctx, s.db)
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return 0, invalid
	}
	parsed, err := snowflake.ParseString(trimmed)
	if err != nil {
		return 0, invalid
	}
	return parsed, nil
}
