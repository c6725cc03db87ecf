package service

import (
	"context"
	"errors"

	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"github.com/ramirezvene/token-desconto/internal/clock"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"github.com/ramirezvene/token-desconto/internal/money"
	policydomain "github.com/ramirezvene/token-desconto/internal/policy/domain"
	"github.com/ramirezvene/token-desconto/internal/pricing"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	log     *zap.Logger
	clock   clock.Clock
	margins margindomain.Resolver
	catalog catalogdomain.Service
}

type ServiceParam struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Margins margindomain.Resolver
	Catalog catalogdomain.Service
}

func NewService(p ServiceParam) policydomain.Validator {
	return &Service{
		log:     p.Log.Named("policy.service"),
		clock:   p.Clock,
		margins: p.Margins,
		catalog: p.Catalog,
	}
}

var hundred = decimal.NewFromInt(100)

// Validate runs the rule chain in its fixed order; the first failing
// rule wins. Later rules assume earlier invariants hold, so the order is
// part of the contract.
func (s *Service) Validate(ctx context.Context, req policydomain.Request) (policydomain.Verdict, error) {
	verdict := policydomain.Verdict{
		Snapshot: policydomain.Snapshot{
			UF:          req.Store.UF,
			AlcadaLabel: req.Product.AlcadaLabel(),
		},
	}

	// 1. Candidate price must be positive.
	if !req.CandidatePrice.IsPositive() {
		return reject(verdict, policydomain.ReasonInvalidPrice, nil), nil
	}

	rateRow, ok := req.Product.RateFor(req.Store.UF)
	if !ok {
		// Missing reference data is a hard failure, not a rejection.
		return policydomain.Verdict{}, catalogdomain.ErrRateNotFound
	}
	rate := pricing.RateCard{
		CMG:       rateRow.CMG.Decimal,
		Aliq:      rateRow.Aliq,
		PisCofins: req.Product.PisCofins,
	}

	// 2. Candidate must not undercut the minimum legal price. The floor
	// uses the subgroup's base margin with no window filter.
	floorMargin := decimal.Zero
	if req.Product.Subgroup != nil {
		sub, err := s.margins.SubgroupMarginFor(ctx, *req.Product.Subgroup)
		if err != nil && !errors.Is(err, margindomain.ErrInvalidSubgroup) {
			return policydomain.Verdict{}, err
		}
		if sub != nil {
			floorMargin = sub.Margin.Div(hundred)
		}
	}
	minPrice, err := pricing.MinimumPrice(rate, floorMargin)
	if err != nil {
		return policydomain.Verdict{}, err
	}
	verdict.Snapshot.MinimumPrice = money.FromDecimal(minPrice)
	if req.CandidatePrice.Decimal.LessThan(minPrice.Round(2)) {
		return reject(verdict, policydomain.ReasonBelowFloor, nil), nil
	}

	// 3. The request has to be an actual discount.
	if req.CandidatePrice.Decimal.GreaterThanOrEqual(req.RegularPrice.Decimal) {
		return reject(verdict, policydomain.ReasonNotADiscount, nil), nil
	}

	// 4. Products under an authorization ceiling need out-of-band
	// approval this engine does not model.
	if req.Product.Alcada != 0 {
		return reject(verdict, policydomain.ReasonRequiresAuthorization, nil), nil
	}

	// 5. Realized margin must satisfy the effective policy ceiling.
	realized, err := pricing.RealizedMargin(req.CandidatePrice.Decimal, rate)
	if err != nil {
		return policydomain.Verdict{}, err
	}
	verdict.Snapshot.RealizedMarginPct = realized.Mul(hundred).Round(4)

	now := s.clock.Now()
	ceiling, err := s.margins.Resolve(ctx, margindomain.ResolveQuery{
		ProductID: req.Product.ID,
		Subgroup:  req.Product.Subgroup,
		UF:        req.Store.UF,
		StoreID:   req.Store.ID,
		Now:       now,
	})
	if err != nil {
		return policydomain.Verdict{}, err
	}
	verdict.Snapshot.Ceiling = ceiling

	if ceiling.Source != margindomain.CeilingSourceNone {
		below, err := belowCeiling(realized, req.CandidatePrice.Decimal, rate, ceiling.Value)
		if err != nil {
			return policydomain.Verdict{}, err
		}
		if below {
			return reject(verdict, policydomain.ReasonBelowMarginCeiling, ceiling.Note), nil
		}
	}

	// 6-7. Store compliance flags.
	if !req.Store.MetaLoja {
		return reject(verdict, policydomain.ReasonStoreTargetNonCompliant, nil), nil
	}
	if !req.Store.DreNegativo {
		return reject(verdict, policydomain.ReasonStoreEarningsNonCompliant, nil), nil
	}

	// 8. The store's region must exist and be open for tokens. A missing
	// row is the same business verdict as an inactive one.
	state, err := s.catalog.GetStateConfig(ctx, req.Store.UF)
	if err != nil {
		if errors.Is(err, catalogdomain.ErrStateNotFound) || errors.Is(err, catalogdomain.ErrInvalidUF) {
			return reject(verdict, policydomain.ReasonRegionInactive, nil), nil
		}
		return policydomain.Verdict{}, err
	}
	if !state.Active {
		return reject(verdict, policydomain.ReasonRegionInactive, nil), nil
	}

	// 9-10. Product hard blocks.
	if req.Product.Ruptura {
		return reject(verdict, policydomain.ReasonProductStockedOut, nil), nil
	}
	if req.Product.PricingBlocked {
		return reject(verdict, policydomain.ReasonProductPricingBlocked, nil), nil
	}

	verdict.Accepted = true
	return verdict, nil
}

// belowCeiling compares the realized margin against a percentage or
// absolute ceiling value.
func belowCeiling(realized decimal.Decimal, candidate decimal.Decimal, rate pricing.RateCard, value margindomain.MarginValue) (bool, error) {
	switch value.Kind {
	case margindomain.MarginKindAbsolute:
		abs, err := pricing.AbsoluteMargin(candidate, rate)
		if err != nil {
			return false, err
		}
		return abs.LessThan(value.Amount.Decimal), nil
	default:
		return realized.LessThan(value.Fraction()), nil
	}
}

func reject(v policydomain.Verdict, reason policydomain.ReasonCode, note *string) policydomain.Verdict {
	v.Accepted = false
	v.Reason = reason
	v.Note = note
	return v
}
