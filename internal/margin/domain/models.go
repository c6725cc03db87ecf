// Package domain contains the margin policy records: product-specific
// overrides and subgroup defaults. The effective ceiling resolved from
// them is the load-bearing business rule of the approval engine.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/money"
	"github.com/shopspring/decimal"
)

// MarginScope is the application type of a product override.
type MarginScope string

const (
	MarginScopeRegion MarginScope = "region"
	MarginScopeStore  MarginScope = "store"
)

// MarginKind discriminates a percentage ceiling from an absolute one.
type MarginKind string

const (
	MarginKindPercentage MarginKind = "percentage"
	MarginKindAbsolute   MarginKind = "absolute"
)

// MarginValue is the tagged percentage-or-absolute ceiling value. Percent
// holds the percent figure (28 means 28%); Amount holds a currency margin
// per unit.
type MarginValue struct {
	Kind    MarginKind      `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
	Amount  money.Money     `json:"amount"`
}

// PercentValue builds a percentage margin value.
func PercentValue(percent decimal.Decimal) MarginValue {
	return MarginValue{Kind: MarginKindPercentage, Percent: percent}
}

// AbsoluteValue builds an absolute currency margin value.
func AbsoluteValue(amount money.Money) MarginValue {
	return MarginValue{Kind: MarginKindAbsolute, Amount: amount}
}

var hundred = decimal.NewFromInt(100)

// Fraction converts a percentage value to its fraction (28 -> 0.28).
// Only meaningful for percentage kinds.
func (v MarginValue) Fraction() decimal.Decimal {
	return v.Percent.Div(hundred)
}

// ProductMargin is a product-specific ceiling override, scoped to a
// region or a single store and bounded by a validity window. Created by
// configuration screens; the engine consumes it read-only.
type ProductMargin struct {
	ID        snowflake.ID  `gorm:"primaryKey" json:"id"`
	ProductID snowflake.ID  `gorm:"not null;index" json:"product_id"`
	Scope     MarginScope   `gorm:"type:text;not null" json:"scope"`
	UF        *string       `gorm:"type:varchar(2);index" json:"uf,omitempty"`
	StoreID   *snowflake.ID `gorm:"index" json:"store_id,omitempty"`

	Kind  MarginKind      `gorm:"column:tipo_margem;type:text;not null" json:"kind"`
	Value decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"value"`
	Note  *string         `gorm:"type:text" json:"note,omitempty"`

	StartsAt  time.Time `gorm:"column:data_inicio;not null;index" json:"starts_at"`
	EndsAt    time.Time `gorm:"column:data_fim;not null;index" json:"ends_at"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProductMargin) TableName() string { return "product_margins" }

// MarginValue returns the tagged value for this override.
func (m *ProductMargin) MarginValue() MarginValue {
	if m.Kind == MarginKindAbsolute {
		return AbsoluteValue(money.FromDecimal(m.Value))
	}
	return PercentValue(m.Value)
}

// ActiveAt reports whether now falls inside the validity window.
func (m *ProductMargin) ActiveAt(now time.Time) bool {
	return !now.Before(m.StartsAt) && !now.After(m.EndsAt)
}

// SubgroupMargin is the default ceiling for a product subgroup, used when
// no product-specific override applies.
type SubgroupMargin struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	Subgroup string       `gorm:"type:text;not null;index" json:"subgroup"`

	// Margin is the default ceiling percent; AdditionalMargin is the
	// extra percent granted on top during negotiated campaigns.
	Margin           decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"margin"`
	AdditionalMargin decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0" json:"additional_margin"`
	Note             *string         `gorm:"type:text" json:"note,omitempty"`

	StartsAt  *time.Time `gorm:"column:data_inicio" json:"starts_at,omitempty"`
	EndsAt    *time.Time `gorm:"column:data_fim" json:"ends_at,omitempty"`
	Active    bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time  `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SubgroupMargin) TableName() string { return "subgroup_margins" }

// ActiveAt reports whether the record is enabled and now falls inside its
// optional validity window.
func (m *SubgroupMargin) ActiveAt(now time.Time) bool {
	if !m.Active {
		return false
	}
	if m.StartsAt != nil && now.Before(*m.StartsAt) {
		return false
	}
	if m.EndsAt != nil && now.After(*m.EndsAt) {
		return false
	}
	return true
}
