// Package domain contains the discount token records and their lifecycle
// contract. A token moves Pending -> Approved or Pending -> Rejected and
// never leaves a terminal state.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/money"
	"github.com/shopspring/decimal"
)

// TokenStatus represents the lifecycle state. The legacy st_aprovado
// column (null/1/0) maps to these values at the data-access boundary.
type TokenStatus string

const (
	TokenStatusPending  TokenStatus = "PENDING"
	TokenStatusApproved TokenStatus = "APPROVED"
	TokenStatusRejected TokenStatus = "REJECTED"
)

// Terminal reports whether no further transition is allowed.
func (s TokenStatus) Terminal() bool {
	return s == TokenStatusApproved || s == TokenStatusRejected
}

// Token is one price exception granted to a store. Tokens are never
// deleted.
type Token struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	StoreID snowflake.ID `gorm:"not null;index" json:"store_id"`
	Code    string       `gorm:"type:varchar(16);not null;uniqueIndex" json:"code"`
	Status  TokenStatus  `gorm:"type:text;not null;index" json:"status"`

	CreatedAt   time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	ValidatedAt *time.Time `gorm:"" json:"validated_at,omitempty"`

	Items []TokenItem `gorm:"foreignKey:TokenID" json:"items,omitempty"`
}

// TableName sets the database table name.
func (Token) TableName() string { return "tokens" }

// TokenItem is the detail row written atomically with its parent token.
// It snapshots every computed figure at issuance time; the snapshot never
// follows later catalog or margin edits.
type TokenItem struct {
	ID      snowflake.ID `gorm:"primaryKey" json:"id"`
	TokenID snowflake.ID `gorm:"not null;index" json:"token_id"`

	ProductID   snowflake.ID `gorm:"not null;index" json:"product_id"`
	ProductName string       `gorm:"type:text;not null" json:"product_name"`
	Quantity    int          `gorm:"not null;default:1" json:"quantity"`

	RequestedPrice money.Money `gorm:"type:decimal(20,2);not null" json:"requested_price"`
	RegularPrice   money.Money `gorm:"type:decimal(20,2);not null" json:"regular_price"`
	MinimumPrice   money.Money `gorm:"type:decimal(20,2);not null" json:"minimum_price"`

	RealizedMarginPct decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"realized_margin_pct"`
	CeilingSource     string          `gorm:"type:text;not null" json:"ceiling_source"`
	CeilingNote       *string         `gorm:"type:text" json:"ceiling_note,omitempty"`
	AlcadaLabel       string          `gorm:"type:text;not null" json:"alcada_label"`
	RejectionNote     *string         `gorm:"type:text" json:"rejection_note,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (TokenItem) TableName() string { return "token_items" }
