package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"github.com/ramirezvene/token-desconto/internal/clock"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"github.com/ramirezvene/token-desconto/internal/money"
	policydomain "github.com/ramirezvene/token-desconto/internal/policy/domain"
	"github.com/ramirezvene/token-desconto/internal/pricing"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeResolver struct {
	ceiling  margindomain.Ceiling
	subgroup *margindomain.SubgroupMargin
}

func (f *fakeResolver) Resolve(ctx context.Context, q margindomain.ResolveQuery) (margindomain.Ceiling, error) {
	_ = ctx
	_ = q
	return f.ceiling, nil
}

func (f *fakeResolver) SubgroupMarginFor(ctx context.Context, subgroup string) (*margindomain.SubgroupMargin, error) {
	_ = ctx
	_ = subgroup
	return f.subgroup, nil
}

type fakeCatalog struct {
	state    catalogdomain.StateConfig
	stateErr error
}

func (f *fakeCatalog) GetProduct(ctx context.Context, id string) (catalogdomain.Product, error) {
	return catalogdomain.Product{}, catalogdomain.ErrProductNotFound
}

func (f *fakeCatalog) GetStore(ctx context.Context, id string) (catalogdomain.Store, error) {
	return catalogdomain.Store{}, catalogdomain.ErrStoreNotFound
}

func (f *fakeCatalog) GetStateConfig(ctx context.Context, uf string) (catalogdomain.StateConfig, error) {
	if f.stateErr != nil {
		return catalogdomain.StateConfig{}, f.stateErr
	}
	return f.state, nil
}

func (f *fakeCatalog) ListStores(ctx context.Context) ([]catalogdomain.Store, error) {
	return nil, nil
}

func (f *fakeCatalog) ListStateConfigs(ctx context.Context) ([]catalogdomain.StateConfig, error) {
	return nil, nil
}

type fixture struct {
	svc      policydomain.Validator
	resolver *fakeResolver
	catalog  *fakeCatalog
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	resolver := &fakeResolver{
		ceiling: margindomain.Ceiling{
			Value:  margindomain.PercentValue(decimal.NewFromInt(28)),
			Source: margindomain.CeilingSourceSubgroup,
		},
		subgroup: &margindomain.SubgroupMargin{
			Subgroup: "analgesicos",
			Margin:   decimal.NewFromInt(28),
			Active:   true,
		},
	}
	catalog := &fakeCatalog{
		state: catalogdomain.StateConfig{UF: "RS", Name: "Rio Grande do Sul", Active: true},
	}
	svc := NewService(ServiceParam{
		Log:     zap.NewNop(),
		Clock:   clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)),
		Margins: resolver,
		Catalog: catalog,
	})
	return &fixture{svc: svc, resolver: resolver, catalog: catalog}
}

func subgroupName() *string {
	s := "analgesicos"
	return &s
}

func baseProduct() catalogdomain.Product {
	p := catalogdomain.Product{
		ID:        snowflake.ID(1001),
		Name:      "Dipirona 500mg",
		Subgroup:  subgroupName(),
		PisCofins: decimal.RequireFromString("0.0925"),
	}
	p.Rates = []catalogdomain.ProductRate{{
		ProductID: p.ID,
		UF:        "RS",
		CMG:       money.FromFloat(10),
		PMC:       money.FromFloat(30),
		Aliq:      decimal.RequireFromString("0.17"),
	}}
	return p
}

func baseStore() catalogdomain.Store {
	return catalogdomain.Store{
		ID:          snowflake.ID(2001),
		Name:        "Loja Centro",
		UF:          "RS",
		MetaLoja:    true,
		DreNegativo: true,
		QtdeToken:   10,
	}
}

func request(candidate, regular float64) policydomain.Request {
	return policydomain.Request{
		Product:        baseProduct(),
		Store:          baseStore(),
		CandidatePrice: money.FromFloat(candidate),
		RegularPrice:   money.FromFloat(regular),
		Quantity:       1,
	}
}

func TestValidate_Accepted(t *testing.T) {
	f := newFixture(t)

	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
	assert.Empty(t, verdict.Reason)

	// Snapshot carries every computed figure.
	assert.Equal(t, "RS", verdict.Snapshot.UF)
	assert.Equal(t, "18.83", verdict.Snapshot.MinimumPrice.StringFixed(2))
	assert.Equal(t, "0.3220", verdict.Snapshot.RealizedMarginPct.Div(decimal.NewFromInt(100)).StringFixed(4))
	assert.Equal(t, margindomain.CeilingSourceSubgroup, verdict.Snapshot.Ceiling.Source)
	assert.Equal(t, "sem alcada", verdict.Snapshot.AlcadaLabel)
}

func TestValidate_InvalidPrice(t *testing.T) {
	f := newFixture(t)

	verdict, err := f.svc.Validate(context.Background(), request(0, 25))
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, policydomain.ReasonInvalidPrice, verdict.Reason)
}

func TestValidate_BelowFloor(t *testing.T) {
	f := newFixture(t)

	verdict, err := f.svc.Validate(context.Background(), request(15, 25))
	require.NoError(t, err)
	assert.False(t, verdict.Accepted)
	assert.Equal(t, policydomain.ReasonBelowFloor, verdict.Reason)
	assert.Equal(t, "18.83", verdict.Snapshot.MinimumPrice.StringFixed(2))
}

func TestValidate_FloorWithoutSubgroupMargin(t *testing.T) {
	f := newFixture(t)
	f.resolver.subgroup = nil
	f.resolver.ceiling = margindomain.Ceiling{Source: margindomain.CeilingSourceNone}

	// No subgroup margin collapses the floor to the cost basis (13.56).
	verdict, err := f.svc.Validate(context.Background(), request(14, 25))
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
	assert.Equal(t, "13.56", verdict.Snapshot.MinimumPrice.StringFixed(2))
}

func TestValidate_NotADiscount(t *testing.T) {
	f := newFixture(t)

	verdict, err := f.svc.Validate(context.Background(), request(25, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonNotADiscount, verdict.Reason)

	verdict, err = f.svc.Validate(context.Background(), request(26, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonNotADiscount, verdict.Reason)
}

func TestValidate_RequiresAuthorization(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Product.Alcada = 2

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonRequiresAuthorization, verdict.Reason)
	assert.Equal(t, "alcada 2", verdict.Snapshot.AlcadaLabel)
}

func TestValidate_BelowMarginCeiling(t *testing.T) {
	f := newFixture(t)
	note := "campanha de inverno"
	f.resolver.ceiling = margindomain.Ceiling{
		Value:  margindomain.PercentValue(decimal.NewFromInt(40)),
		Source: margindomain.CeilingSourceOverride,
		Note:   &note,
	}

	// Realized margin at 20 is ~32.2%, below the 40% override.
	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonBelowMarginCeiling, verdict.Reason)
	require.NotNil(t, verdict.Note)
	assert.Equal(t, note, *verdict.Note)
}

func TestValidate_AbsoluteCeiling(t *testing.T) {
	f := newFixture(t)
	f.resolver.ceiling = margindomain.Ceiling{
		Value:  margindomain.AbsoluteValue(money.FromFloat(5)),
		Source: margindomain.CeilingSourceOverride,
	}

	// Absolute margin at 20 is 4.75, below the 5.00 requirement.
	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonBelowMarginCeiling, verdict.Reason)

	// 21 nets 5.4875 margin and clears it.
	verdict, err = f.svc.Validate(context.Background(), request(21, 25))
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
}

func TestValidate_NoCeilingSkipsRule(t *testing.T) {
	f := newFixture(t)
	f.resolver.ceiling = margindomain.Ceiling{Source: margindomain.CeilingSourceNone}

	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
}

func TestValidate_StoreTargetNonCompliant(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Store.MetaLoja = false

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonStoreTargetNonCompliant, verdict.Reason)
}

func TestValidate_StoreEarningsNonCompliant(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Store.DreNegativo = false

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonStoreEarningsNonCompliant, verdict.Reason)
}

func TestValidate_RegionInactive(t *testing.T) {
	f := newFixture(t)
	f.catalog.state.Active = false

	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonRegionInactive, verdict.Reason)
}

func TestValidate_RegionMissingIsInactive(t *testing.T) {
	f := newFixture(t)
	f.catalog.stateErr = catalogdomain.ErrStateNotFound

	verdict, err := f.svc.Validate(context.Background(), request(20, 25))
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonRegionInactive, verdict.Reason)
}

func TestValidate_ProductStockedOut(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Product.Ruptura = true

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonProductStockedOut, verdict.Reason)
}

func TestValidate_ProductPricingBlocked(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Product.PricingBlocked = true

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonProductPricingBlocked, verdict.Reason)
}

func TestValidate_MissingRateIsHardFailure(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Store.UF = "SP"

	_, err := f.svc.Validate(context.Background(), req)
	assert.ErrorIs(t, err, catalogdomain.ErrRateNotFound)
}

func TestValidate_DegenerateTaxRateIsHardFailure(t *testing.T) {
	f := newFixture(t)
	req := request(20, 25)
	req.Product.Rates[0].Aliq = decimal.RequireFromString("0.95")

	_, err := f.svc.Validate(context.Background(), req)
	assert.True(t, pricing.IsDomainErr(err))
}

// Rules short-circuit in order: a price that is simultaneously below the
// floor and not a discount reports BelowFloor.
func TestValidate_RuleOrder(t *testing.T) {
	f := newFixture(t)
	req := request(15, 10)

	verdict, err := f.svc.Validate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, policydomain.ReasonBelowFloor, verdict.Reason)
}
