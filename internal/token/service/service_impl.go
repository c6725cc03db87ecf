package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	"github.com/ramirezvene/token-desconto/internal/clock"
	"github.com/ramirezvene/token-desconto/internal/config"
	policydomain "github.com/ramirezvene/token-desconto/internal/policy/domain"
	quotadomain "github.com/ramirezvene/token-desconto/internal/quota/domain"
	"github.com/ramirezvene/token-desconto/internal/telemetry"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	"github.com/ramirezvene/token-desconto/pkg/db"
	"github.com/ramirezvene/token-desconto/pkg/id"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	genID   *snowflake.Node
	clock   clock.Clock
	newCode id.CodeGenerator

	catalog   catalogdomain.Service
	validator policydomain.Validator
	ledger    quotadomain.Ledger
	repo      tokendomain.Repository
	metrics   *telemetry.Metrics

	debitOnApproval bool
}

type ServiceParam struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Clock   clock.Clock
	NewCode id.CodeGenerator
	Cfg     config.Config

	Catalog   catalogdomain.Service
	Validator policydomain.Validator
	Ledger    quotadomain.Ledger
	Repo      tokendomain.Repository
	Metrics   *telemetry.Metrics `optional:"true"`
}

func NewService(p ServiceParam) tokendomain.Service {
	return &Service{
		db:              p.DB,
		log:             p.Log.Named("token.service"),
		genID:           p.GenID,
		clock:           p.Clock,
		newCode:         p.NewCode,
		catalog:         p.Catalog,
		validator:       p.Validator,
		ledger:          p.Ledger,
		repo:            p.Repo,
		metrics:         p.Metrics,
		debitOnApproval: p.Cfg.QuotaDebitOnApproval,
	}
}

// Validate runs the policy chain with no mutation.
func (s *Service) Validate(ctx context.Context, req tokendomain.SubmitRequest) (policydomain.Verdict, error) {
	policyReq, err := s.buildPolicyRequest(ctx, req)
	if err != nil {
		return policydomain.Verdict{}, err
	}

	verdict, err := s.validator.Validate(ctx, policyReq)
	if err != nil {
		return policydomain.Verdict{}, err
	}

	s.metrics.ObserveVerdict(verdict.Accepted, string(verdict.Reason))
	return verdict, nil
}

// Submit validates and, on acceptance, issues the token: one quota unit
// reserved and token+item written, all inside a single transaction.
func (s *Service) Submit(ctx context.Context, req tokendomain.SubmitRequest) (tokendomain.SubmitResponse, error) {
	policyReq, err := s.buildPolicyRequest(ctx, req)
	if err != nil {
		return tokendomain.SubmitResponse{}, err
	}

	verdict, err := s.validator.Validate(ctx, policyReq)
	if err != nil {
		return tokendomain.SubmitResponse{}, err
	}
	s.metrics.ObserveVerdict(verdict.Accepted, string(verdict.Reason))

	if !verdict.Accepted {
		return tokendomain.SubmitResponse{Verdict: verdict}, nil
	}

	token, err := s.issue(ctx, policyReq, verdict)
	if err != nil {
		return tokendomain.SubmitResponse{}, err
	}

	s.metrics.TokenIssued()
	s.log.Info("token issued",
		zap.String("code", token.Code),
		zap.String("store_id", token.StoreID.String()),
	)

	return tokendomain.SubmitResponse{
		TokenID: token.ID.String(),
		Code:    token.Code,
		Verdict: verdict,
	}, nil
}

// issue writes the token and its item atomically. Code collisions are
// rare (31^8 space) but real; the whole transaction retries with a fresh
// code when the unique index fires.
func (s *Service) issue(ctx context.Context, policyReq policydomain.Request, verdict policydomain.Verdict) (*tokendomain.Token, error) {
	const maxCodeAttempts = 3

	var lastErr error
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		token := s.buildToken(policyReq, verdict)

		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if !s.debitOnApproval {
				if err := s.ledger.Reserve(ctx, tx, policyReq.Store.ID); err != nil {
					return err
				}
			}
			if err := s.repo.Insert(ctx, tx, token); err != nil {
				return err
			}
			return s.repo.InsertItem(ctx, tx, &token.Items[0])
		})
		if err == nil {
			return token, nil
		}
		if errors.Is(err, quotadomain.ErrExhausted) {
			s.metrics.QuotaExhausted()
			return nil, err
		}
		if !db.IsDuplicateKeyErr(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// Approve finalizes a pending token. Under the debit-on-approval policy
// the quota unit is spent here instead of at submission.
func (s *Service) Approve(ctx context.Context, tokenID string) (tokendomain.Token, error) {
	return s.decide(ctx, tokenID, tokendomain.TokenStatusApproved)
}

// Reject finalizes a pending token. Quota is not returned: the budget
// was spent at issuance and stays spent.
func (s *Service) Reject(ctx context.Context, tokenID string) (tokendomain.Token, error) {
	return s.decide(ctx, tokenID, tokendomain.TokenStatusRejected)
}

func (s *Service) decide(ctx context.Context, tokenID string, target tokendomain.TokenStatus) (tokendomain.Token, error) {
	parsed, err := parseID(tokenID, tokendomain.ErrInvalidToken)
	if err != nil {
		return tokendomain.Token{}, err
	}

	var decided *tokendomain.Token
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		token, err := s.repo.FindByID(ctx, tx, parsed)
		if err != nil {
			return err
		}
		if token == nil {
			return tokendomain.ErrTokenNotFound
		}

		rows, err := s.repo.MarkDecision(ctx, tx, parsed, tokendomain.Decision{
			Status:      target,
			ValidatedAt: s.clock.Now(),
		})
		if err != nil {
			return err
		}
		if rows == 0 {
			return tokendomain.ErrInvalidTransition
		}

		if s.debitOnApproval && target == tokendomain.TokenStatusApproved {
			if err := s.ledger.Reserve(ctx, tx, token.StoreID); err != nil {
				return err
			}
		}

		decided, err = s.repo.FindByID(ctx, tx, parsed)
		return err
	})
	if err != nil {
		if errors.Is(err, quotadomain.ErrExhausted) {
			s.metrics.QuotaExhausted()
		}
		return tokendomain.Token{}, err
	}

	s.metrics.TokenDecided(strings.ToLower(string(target)))
	return *decided, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (tokendomain.Token, error) {
	trimmed := strings.TrimSpace(code)
	if trimmed == "" {
		return tokendomain.Token{}, tokendomain.ErrInvalidToken
	}
	token, err := s.repo.FindByCode(ctx, s.db, trimmed)
	if err != nil {
		return tokendomain.Token{}, err
	}
	if token == nil {
		return tokendomain.Token{}, tokendomain.ErrTokenNotFound
	}
	return *token, nil
}

func (s *Service) List(ctx context.Context, req tokendomain.ListRequest) (tokendomain.ListResponse, error) {
	filter := tokendomain.ListFilter{Limit: req.Limit, Offset: req.Offset}

	if strings.TrimSpace(req.StoreID) != "" {
		storeID, err := parseID(req.StoreID, catalogdomain.ErrInvalidStore)
		if err != nil {
			return tokendomain.ListResponse{}, err
		}
		filter.StoreID = &storeID
	}

	if trimmed := strings.TrimSpace(req.Status); trimmed != "" {
		status := tokendomain.TokenStatus(strings.ToUpper(trimmed))
		switch status {
		case tokendomain.TokenStatusPending, tokendomain.TokenStatusApproved, tokendomain.TokenStatusRejected:
			filter.Status = &status
		default:
			return tokendomain.ListResponse{}, tokendomain.ErrInvalidStatus
		}
	}

	tokens, total, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return tokendomain.ListResponse{}, err
	}
	return tokendomain.ListResponse{Tokens: tokens, Total: total}, nil
}

func (s *Service) buildPolicyRequest(ctx context.Context, req tokendomain.SubmitRequest) (policydomain.Request, error) {
	if req.Quantity < 0 {
		return policydomain.Request{}, tokendomain.ErrInvalidQuantity
	}
	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	store, err := s.catalog.GetStore(ctx, req.StoreID)
	if err != nil {
		return policydomain.Request{}, err
	}
	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return policydomain.Request{}, err
	}

	return policydomain.Request{
		Product:        product,
		Store:          store,
		CandidatePrice: req.CandidatePrice,
		RegularPrice:   req.RegularPrice,
		Quantity:       quantity,
	}, nil
}

func (s *Service) buildToken(policyReq policydomain.Request, verdict policydomain.Verdict) *tokendomain.Token {
	now := s.clock.Now()
	token := &tokendomain.Token{
		ID:        s.genID.Generate(),
		StoreID:   policyReq.Store.ID,
		Code:      s.newCode(),
		Status:    tokendomain.TokenStatusPending,
		CreatedAt: now,
	}
	token.Items = []tokendomain.TokenItem{{
		ID:                s.genID.Generate(),
		TokenID:           token.ID,
		ProductID:         policyReq.Product.ID,
		ProductName:       policyReq.Product.Name,
		Quantity:          policyReq.Quantity,
		RequestedPrice:    policyReq.CandidatePrice,
		RegularPrice:      policyReq.RegularPrice,
		MinimumPrice:      verdict.Snapshot.MinimumPrice,
		RealizedMarginPct: verdict.Snapshot.RealizedMarginPct,
		CeilingSource:     string(verdict.Snapshot.Ceiling.Source),
		CeilingNote:       verdict.Snapshot.Ceiling.Note,
		AlcadaLabel:       verdict.Snapshot.AlcadaLabel,
		CreatedAt:         now,
	}}
	return token
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
