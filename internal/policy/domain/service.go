// Package domain defines the policy validator contract: the ordered rule
// chain that turns a discount request into an accept/reject verdict.
package domain

import (
	"context"

	catalogdomain "github.com/ramirezvene/token-desconto/internal/catalog/domain"
	margindomain "github.com/ramirezvene/token-desconto/internal/margin/domain"
	"github.com/ramirezvene/token-desconto/internal/money"
	"github.com/shopspring/decimal"
)

// ReasonCode identifies which rule rejected a request. Reason codes are
// stable API values; rejections are normal outcomes, never errors.
type ReasonCode string

const (
	ReasonInvalidPrice              ReasonCode = "InvalidPrice"
	ReasonBelowFloor                ReasonCode = "BelowFloor"
	ReasonNotADiscount              ReasonCode = "NotADiscount"
	ReasonRequiresAuthorization     ReasonCode = "RequiresAuthorization"
	ReasonBelowMarginCeiling        ReasonCode = "BelowMarginCeiling"
	ReasonStoreTargetNonCompliant   ReasonCode = "StoreTargetNonCompliant"
	ReasonStoreEarningsNonCompliant ReasonCode = "StoreEarningsNonCompliant"
	ReasonRegionInactive            ReasonCode = "RegionInactive"
	ReasonProductStockedOut         ReasonCode = "ProductStockedOut"
	ReasonProductPricingBlocked     ReasonCode = "ProductPricingBlocked"
)

// Request is one candidate price exception to validate.
type Request struct {
	Product        catalogdomain.Product
	Store          catalogdomain.Store
	CandidatePrice money.Money
	RegularPrice   money.Money
	Quantity       int
}

// Snapshot captures every figure the chain computed, persisted verbatim
// on the token line item so the record never silently diverges from the
// policy rows that produced it.
type Snapshot struct {
	UF                string               `json:"uf"`
	MinimumPrice      money.Money          `json:"minimum_price"`
	RealizedMarginPct decimal.Decimal      `json:"realized_margin_pct"`
	Ceiling           margindomain.Ceiling `json:"ceiling"`
	AlcadaLabel       string               `json:"alcada_label"`
}

// Verdict is the validator outcome. Reason and Note are only set on
// rejection; Note carries the overriding policy record's annotation.
type Verdict struct {
	Accepted bool       `json:"accepted"`
	Reason   ReasonCode `json:"reason,omitempty"`
	Note     *string    `json:"note,omitempty"`
	Snapshot Snapshot   `json:"snapshot"`
}

// Validator runs the ordered, short-circuiting rule chain. Calculator
// domain errors propagate as errors; everything else is a Verdict.
type Validator interface {
	Validate(ctx context.Context, req Request) (Verdict, error)
}
