package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/money"
	policydomain "github.com/ramirezvene/token-desconto/internal/policy/domain"
)

// SubmitRequest is one incoming price exception request.
type SubmitRequest struct {
	StoreID        string      `json:"store_id"`
	ProductID      string      `json:"product_id"`
	CandidatePrice money.Money `json:"candidate_price"`
	RegularPrice   money.Money `json:"regular_price"`
	Quantity       int         `json:"quantity,omitempty"`
}

// SubmitResponse carries the verdict and, when accepted and issued, the
// generated token code.
type SubmitResponse struct {
	TokenID string               `json:"token_id,omitempty"`
	Code    string               `json:"code,omitempty"`
	Verdict policydomain.Verdict `json:"verdict"`
}

// ListRequest filters the token listing.
type ListRequest struct {
	StoreID string
	Status  string
	Limit   int
	Offset  int
}

// ListResponse is one page of tokens.
type ListResponse struct {
	Tokens []Token `json:"tokens"`
	Total  int64   `json:"total"`
}

type Service interface {
	// Validate runs the policy chain without any mutation, for
	// preview/what-if calls.
	Validate(ctx context.Context, req SubmitRequest) (policydomain.Verdict, error)

	// Submit validates and, on acceptance, reserves one quota unit and
	// writes the token with its item snapshot in a single transaction.
	// A rejected verdict performs no mutation.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResponse, error)

	// Approve and Reject finalize a pending token. Both fail with
	// ErrInvalidTransition once the token is terminal.
	Approve(ctx context.Context, tokenID string) (Token, error)
	Reject(ctx context.Context, tokenID string) (Token, error)

	GetByCode(ctx context.Context, code string) (Token, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
}

var (
	ErrInvalidToken      = errors.New("invalid_token")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrTokenNotFound     = errors.New("token_not_found")
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrInvalidStatus     = errors.New("invalid_status")
)

// ListFilter is the repository-level filter for token listings.
type ListFilter struct {
	StoreID *snowflake.ID
	Status  *TokenStatus
	Limit   int
	Offset  int
}

// Decision pairs a terminal status with its timestamp for the
// conditional update that finalizes a token.
type Decision struct {
	Status      TokenStatus
	ValidatedAt time.Time
}
