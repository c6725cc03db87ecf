package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	catalogrepository "github.com/ramirezvene/token-desconto/internal/catalog/repository"
	catalogservice "github.com/ramirezvene/token-desconto/internal/catalog/service"
	"github.com/ramirezvene/token-desconto/internal/cache"
	"github.com/ramirezvene/token-desconto/internal/clock"
	"github.com/ramirezvene/token-desconto/internal/config"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	marginrepository "github.com/ramirezvene/token-desconto/internal/margin/repository"
	marginservice "github.com/ramirezvene/token-desconto/internal/margin/service"
	"github.com/ramirezvene/token-desconto/internal/money"
	policydomain "github.com/ramirezvene/token-desconto/internal/policy/domain"
	policyservice "github.com/ramirezvene/token-desconto/internal/policy/service"
	quotadomain "github.com/ramirezvene/token-desconto/internal/quota/domain"
	quotarepository "github.com/ramirezvene/token-desconto/internal/quota/repository"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	tokenrepository "github.com/ramirezvene/token-desconto/internal/token/repository"
	"github.com/ramirezvene/token-desconto/pkg/id"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     tokendomain.Service
	ledger  quotadomain.Ledger
	clock   *clock.FakeClock
	node    *snowflake.Node
	product catalogdomain.Product
	store   catalogdomain.Store
}

func newFixture(t *testing.T, cfg config.Config) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection keeps every goroutine on the same in-memory
	// database and serializes the conditional quota update.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&catalogdomain.Product{},
		&catalogdomain.ProductRate{},
		&catalogdomain.Store{},
		&catalogdomain.StateConfig{},
		&margindomain.ProductMargin{},
		&margindomain.SubgroupMargin{},
		&tokendomain.Token{},
		&tokendomain.TokenItem{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	log := zap.NewNop()
	fakeClock := clock.NewFakeClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC))

	catalogSvc := catalogservice.NewService(catalogservice.ServiceParam{
		DB:    db,
		Log:   log,
		Repo:  catalogrepository.Provide(),
		Cache: cache.New(cfg, log),
	})
	marginSvc := marginservice.NewService(marginservice.ServiceParam{
		DB:   db,
		Log:  log,
		Repo: marginrepository.Provide(),
	})
	policySvc := policyservice.NewService(policyservice.ServiceParam{
		Log:     log,
		Clock:   fakeClock,
		Margins: marginSvc,
		Catalog: catalogSvc,
	})
	ledger := quotarepository.Provide()
	codeGen, err := id.NewCodeGenerator()
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fakeClock,
		NewCode:   codeGen,
		Cfg:       cfg,
		Catalog:   catalogSvc,
		Validator: policySvc,
		Ledger:    ledger,
		Repo:      tokenrepository.Provide(),
	})

	f := &fixture{
		db:     db,
		svc:    svc,
		ledger: ledger,
		clock:  fakeClock,
		node:   node,
	}
	f.seed(t)
	return f
}

func (f *fixture) seed(t *testing.T) {
	t.Helper()

	subgroupName := "analgesicos"
	f.product = catalogdomain.Product{
		ID:        f.node.Generate(),
		Name:      "Dipirona 500mg",
		Subgroup:  &subgroupName,
		PisCofins: decimal.RequireFromString("0.0925"),
	}
	require.NoError(t, f.db.Create(&f.product).Error)
	require.NoError(t, f.db.Create(&catalogdomain.ProductRate{
		ID:        f.node.Generate(),
		ProductID: f.product.ID,
		UF:        "RS",
		CMG:       money.FromFloat(10),
		PMC:       money.FromFloat(30),
		Aliq:      decimal.RequireFromString("0.17"),
	}).Error)

	f.store = catalogdomain.Store{
		ID:          f.node.Generate(),
		Name:        "Loja Centro",
		UF:          "RS",
		MetaLoja:    true,
		DreNegativo: true,
		QtdeToken:   5,
	}
	require.NoError(t, f.db.Create(&f.store).Error)

	require.NoError(t, f.db.Create(&catalogdomain.StateConfig{
		ID:     f.node.Generate(),
		UF:     "RS",
		Name:   "Rio Grande do Sul",
		Active: true,
	}).Error)

	require.NoError(t, f.db.Create(&margindomain.SubgroupMargin{
		ID:       f.node.Generate(),
		Subgroup: subgroupName,
		Margin:   decimal.NewFromInt(28),
		Active:   true,
	}).Error)
}

func (f *fixture) setQuota(t *testing.T, n int) {
	t.Helper()
	require.NoError(t, f.db.Exec(
		`UPDATE stores SET qtde_token = ? WHERE id = ?`, n, f.store.ID,
	).Error)
}

func (f *fixture) remaining(t *testing.T) int {
	t.Helper()
	remaining, err := f.ledger.Remaining(context.Background(), f.db, f.store.ID)
	require.NoError(t, err)
	return remaining
}

func (f *fixture) submit(candidate, regular float64) (tokendomain.SubmitResponse, error) {
	return f.svc.Submit(context.Background(), tokendomain.SubmitRequest{
		StoreID:        f.store.ID.String(),
		ProductID:      f.product.ID.String(),
		CandidatePrice: money.FromFloat(candidate),
		RegularPrice:   money.FromFloat(regular),
	})
}

func TestSubmit_Accepted(t *testing.T) {
	f := newFixture(t, config.Config{})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)
	assert.True(t, resp.Verdict.Accepted)
	assert.NotEmpty(t, resp.TokenID)
	assert.Len(t, resp.Code, 8)

	// One quota unit spent at issuance.
	assert.Equal(t, 4, f.remaining(t))

	token, err := f.svc.GetByCode(context.Background(), resp.Code)
	require.NoError(t, err)
	assert.Equal(t, tokendomain.TokenStatusPending, token.Status)
	assert.Nil(t, token.ValidatedAt)
	require.Len(t, token.Items, 1)

	item := token.Items[0]
	assert.Equal(t, f.product.ID, item.ProductID)
	assert.Equal(t, "Dipirona 500mg", item.ProductName)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "20.00", item.RequestedPrice.StringFixed(2))
	assert.Equal(t, "18.83", item.MinimumPrice.StringFixed(2))
	assert.Equal(t, "32.2034", item.RealizedMarginPct.StringFixed(4))
	assert.Equal(t, "subgroup", item.CeilingSource)
	assert.Equal(t, "sem alcada", item.AlcadaLabel)
}

func TestSubmit_RejectedPerformsNoMutation(t *testing.T) {
	f := newFixture(t, config.Config{})

	// Below the 18.83 floor.
	resp, err := f.submit(15, 25)
	require.NoError(t, err)
	assert.False(t, resp.Verdict.Accepted)
	assert.Equal(t, policydomain.ReasonBelowFloor, resp.Verdict.Reason)
	assert.Empty(t, resp.TokenID)
	assert.Empty(t, resp.Code)

	assert.Equal(t, 5, f.remaining(t))

	var count int64
	require.NoError(t, f.db.Model(&tokendomain.Token{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestSubmit_QuotaExhausted(t *testing.T) {
	f := newFixture(t, config.Config{})
	f.setQuota(t, 0)

	_, err := f.submit(20, 25)
	assert.ErrorIs(t, err, quotadomain.ErrExhausted)

	assert.Equal(t, 0, f.remaining(t))
}

func TestSubmit_ConcurrentLastUnit(t *testing.T) {
	f := newFixture(t, config.Config{})
	f.setQuota(t, 1)

	var wg sync.WaitGroup
	results := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = f.submit(20, 25)
		}(i)
	}
	wg.Wait()

	var issued, exhausted int
	for _, err := range results {
		switch {
		case err == nil:
			issued++
		case assert.ErrorIs(t, err, quotadomain.ErrExhausted):
			exhausted++
		}
	}
	assert.Equal(t, 1, issued)
	assert.Equal(t, 1, exhausted)
	assert.Equal(t, 0, f.remaining(t))
}

func TestApprove(t *testing.T) {
	f := newFixture(t, config.Config{})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)

	token, err := f.svc.Approve(context.Background(), resp.TokenID)
	require.NoError(t, err)
	assert.Equal(t, tokendomain.TokenStatusApproved, token.Status)
	require.NotNil(t, token.ValidatedAt)
	assert.WithinDuration(t, f.clock.Now(), *token.ValidatedAt, time.Second)

	// Quota was spent at issuance; approval does not spend again.
	assert.Equal(t, 4, f.remaining(t))
}

func TestReject(t *testing.T) {
	f := newFixture(t, config.Config{})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)

	token, err := f.svc.Reject(context.Background(), resp.TokenID)
	require.NoError(t, err)
	assert.Equal(t, tokendomain.TokenStatusRejected, token.Status)
	require.NotNil(t, token.ValidatedAt)

	// Rejection does not refund the quota unit.
	assert.Equal(t, 4, f.remaining(t))
}

func TestDecide_TerminalStateIsFinal(t *testing.T) {
	f := newFixture(t, config.Config{})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), resp.TokenID)
	require.NoError(t, err)

	_, err = f.svc.Reject(context.Background(), resp.TokenID)
	assert.ErrorIs(t, err, tokendomain.ErrInvalidTransition)

	_, err = f.svc.Approve(context.Background(), resp.TokenID)
	assert.ErrorIs(t, err, tokendomain.ErrInvalidTransition)
}

func TestDecide_UnknownToken(t *testing.T) {
	f := newFixture(t, config.Config{})

	_, err := f.svc.Approve(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, tokendomain.ErrTokenNotFound)

	_, err = f.svc.Approve(context.Background(), "not-a-token-id")
	assert.ErrorIs(t, err, tokendomain.ErrInvalidToken)
}

func TestSubmit_DebitOnApproval(t *testing.T) {
	f := newFixture(t, config.Config{QuotaDebitOnApproval: true})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)
	assert.True(t, resp.Verdict.Accepted)

	// Nothing spent yet.
	assert.Equal(t, 5, f.remaining(t))

	_, err = f.svc.Approve(context.Background(), resp.TokenID)
	require.NoError(t, err)
	assert.Equal(t, 4, f.remaining(t))
}

func TestSubmit_DebitOnApproval_ExhaustedRollsBack(t *testing.T) {
	f := newFixture(t, config.Config{QuotaDebitOnApproval: true})

	resp, err := f.submit(20, 25)
	require.NoError(t, err)

	f.setQuota(t, 0)
	_, err = f.svc.Approve(context.Background(), resp.TokenID)
	assert.ErrorIs(t, err, quotadomain.ErrExhausted)

	// The failed approval rolled back; the token stays pending.
	token, err := f.svc.GetByCode(context.Background(), resp.Code)
	require.NoError(t, err)
	assert.Equal(t, tokendomain.TokenStatusPending, token.Status)
}

func TestValidate_NoMutation(t *testing.T) {
	f := newFixture(t, config.Config{})

	verdict, err := f.svc.Validate(context.Background(), tokendomain.SubmitRequest{
		StoreID:        f.store.ID.String(),
		ProductID:      f.product.ID.String(),
		CandidatePrice: money.FromFloat(20),
		RegularPrice:   money.FromFloat(25),
	})
	require.NoError(t, err)
	assert.True(t, verdict.Accepted)
	assert.Equal(t, 5, f.remaining(t))

	var count int64
	require.NoError(t, f.db.Model(&tokendomain.Token{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestList(t *testing.T) {
	f := newFixture(t, config.Config{})

	first, err := f.submit(20, 25)
	require.NoError(t, err)
	second, err := f.submit(21, 25)
	require.NoError(t, err)

	_, err = f.svc.Approve(context.Background(), second.TokenID)
	require.NoError(t, err)

	resp, err := f.svc.List(context.Background(), tokendomain.ListRequest{
		StoreID: f.store.ID.String(),
	})
	require.NoError(t, err)
	assert.EqualValues(t, 2, resp.Total)
	assert.Len(t, resp.Tokens, 2)

	pending := string(tokendomain.TokenStatusPending)
	resp, err = f.svc.List(context.Background(), tokendomain.ListRequest{
		Status: pending,
	})
	require.NoError(t, err)
	assert.EqualValues(t, 1, resp.Total)
	require.Len(t, resp.Tokens, 1)
	assert.Equal(t, first.Code, resp.Tokens[0].Code)

	_, err = f.svc.List(context.Background(), tokendomain.ListRequest{Status: "bogus"})
	assert.ErrorIs(t, err, tokendomain.ErrInvalidStatus)
}

func TestSubmit_InvalidQuantity(t *testing.T) {
	f := newFixture(t, config.Config{})

	_, err := f.svc.Submit(context.Background(), tokendomain.SubmitRequest{
		StoreID:        f.store.ID.String(),
		ProductID:      f.product.ID.String(),
		CandidatePrice: money.FromFloat(20),
		RegularPrice:   money.FromFloat(25),
		Quantity:       -1,
	})
	assert.ErrorIs(t, err, tokendomain.ErrInvalidQuantity)
}

func TestGetByCode_Unknown(t *testing.T) {
	f := newFixture(t, config.Config{})

	_, err := f.svc.GetByCode(context.Background(), "ZZZZZZZZ")
	assert.ErrorIs(t, err, tokendomain.ErrTokenNotFound)
}
