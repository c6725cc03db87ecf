package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo margindomain.Repository
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo margindomain.Repository
}

func NewService(p ServiceParam) margindomain.Resolver {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("margin.service"),
		repo: p.Repo,
	}
}

// Resolve loads the policy rows for the product and reduces them to the
// single effective ceiling.
func (s *Service) Resolve(ctx context.Context, q margindomain.ResolveQuery) (margindomain.Ceiling, error) {
	overrides, err := s.repo.ListProductMargins(ctx, s.db, q.ProductID)
	if err != nil {
		return margindomain.Ceiling{}, err
	}

	var subgroups []margindomain.SubgroupMargin
	if q.Subgroup != nil && strings.TrimSpace(*q.Subgroup) != "" {
		subgroups, err = s.repo.ListSubgroupMargins(ctx, s.db, *q.Subgroup)
		if err != nil {
			return margindomain.Ceiling{}, err
		}
	}

	return ResolveCeiling(q, overrides, subgroups), nil
}

func (s *Service) SubgroupMarginFor(ctx context.Context, subgroup string) (*margindomain.SubgroupMargin, error) {
	trimmed := strings.TrimSpace(subgroup)
	if trimmed == "" {
		return nil, margindomain.ErrInvalidSubgroup
	}
	rows, err := s.repo.ListSubgroupMargins(ctx, s.db, trimmed)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	// The minimum price primitive ignores validity windows; the newest
	// record wins.
	return &rows[0], nil
}

// ResolveCeiling applies the two-tier precedence over already-loaded
// rows. Overrides scoped to the requesting store outrank region-scoped
// ones; both outrank the subgroup default. Rows are expected newest
// first, which makes simultaneous active windows deterministic.
func ResolveCeiling(q margindomain.ResolveQuery, overrides []margindomain.ProductMargin, subgroups []margindomain.SubgroupMargin) margindomain.Ceiling {
	if pick := pickOverride(overrides, margindomain.MarginScopeStore, q, q.Now); pick != nil {
		return overrideCeiling(pick)
	}
	if pick := pickOverride(overrides, margindomain.MarginScopeRegion, q, q.Now); pick != nil {
		return overrideCeiling(pick)
	}

	for i := range subgroups {
		if subgroups[i].ActiveAt(q.Now) {
			return margindomain.Ceiling{
				Value:  margindomain.PercentValue(subgroups[i].Margin.Add(subgroups[i].AdditionalMargin)),
				Source: margindomain.CeilingSourceSubgroup,
				Note:   subgroups[i].Note,
			}
		}
	}

	return margindomain.Ceiling{Source: margindomain.CeilingSourceNone}
}

func pickOverride(overrides []margindomain.ProductMargin, scope margindomain.MarginScope, q margindomain.ResolveQuery, now time.Time) *margindomain.ProductMargin {
	for i := range overrides {
		o := &overrides[i]
		if o.Scope != scope || o.ProductID != q.ProductID || !o.ActiveAt(now) {
			continue
		}
		switch scope {
		case margindomain.MarginScopeStore:
			if o.StoreID != nil && *o.StoreID == q.StoreID && q.StoreID != snowflake.ID(0) {
				return o
			}
		case margindomain.MarginScopeRegion:
			if o.UF != nil && strings.EqualFold(*o.UF, q.UF) {
				return o
			}
		}
	}
	return nil
}

func overrideCeiling(o *margindomain.ProductMargin) margindomain.Ceiling {
	return margindomain.Ceiling{
		Value:  o.MarginValue(),
		Source: margindomain.CeilingSourceOverride,
		Note:   o.Note,
	}
}
