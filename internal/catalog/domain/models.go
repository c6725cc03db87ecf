// Package domain contains the read-only reference data consumed by the
// approval engine: products, stores, and state (UF) configuration. The
// legacy 0/1 integer flags are modeled as booleans; only the data-access
// layer ever sees the raw columns.
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/ramirezvene/token-desconto/internal/money"
	"github.com/shopspring/decimal"
)

// Product is catalog reference data. The engine never mutates products;
// catalog maintenance happens in an external system.
type Product struct {
	ID       snowflake.ID `gorm:"primaryKey" json:"id"`
	Name     string       `gorm:"type:text;not null" json:"name"`
	Subgroup *string      `gorm:"type:text;index" json:"subgroup,omitempty"`

	// PisCofins is the federal tax fraction applied in every region.
	PisCofins decimal.Decimal `gorm:"column:piscofins;type:decimal(8,6);not null" json:"piscofins"`

	// Alcada is the authorization ceiling level; zero means no out-of-band
	// approval is required for a discount on this product.
	Alcada int `gorm:"not null;default:0" json:"alcada"`

	// Ruptura marks a stocked-out product; PricingBlocked marks a product
	// frozen by the pricing team. Both are hard blocks.
	Ruptura        bool `gorm:"not null;default:false" json:"ruptura"`
	PricingBlocked bool `gorm:"column:pricing_blocked;not null;default:false" json:"pricing_blocked"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	Rates []ProductRate `gorm:"foreignKey:ProductID" json:"rates,omitempty"`
}

// TableName sets the database table name.
func (Product) TableName() string { return "products" }

// ProductRate carries the per-region cost and tax figures for a product.
type ProductRate struct {
	ID        snowflake.ID    `gorm:"primaryKey" json:"id"`
	ProductID snowflake.ID    `gorm:"not null;index;uniqueIndex:ux_product_rates_product_uf,priority:1" json:"product_id"`
	UF        string          `gorm:"type:varchar(2);not null;uniqueIndex:ux_product_rates_product_uf,priority:2" json:"uf"`
	CMG       money.Money     `gorm:"column:cmg;type:decimal(20,2);not null" json:"cmg"`
	PMC       money.Money     `gorm:"column:pmc;type:decimal(20,2);not null" json:"pmc"`
	Aliq      decimal.Decimal `gorm:"column:aliq;type:decimal(8,6);not null" json:"aliq"`
	CreatedAt time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ProductRate) TableName() string { return "product_rates" }

// RateFor selects the rate row applicable to a region. This is the whole
// of the rate resolver: a pure lookup over preloaded rows.
func (p *Product) RateFor(uf string) (ProductRate, bool) {
	uf = strings.ToUpper(strings.TrimSpace(uf))
	for _, r := range p.Rates {
		if r.UF == uf {
			return r, true
		}
	}
	return ProductRate{}, false
}

// AlcadaLabel renders the authorization ceiling for token item snapshots.
func (p *Product) AlcadaLabel() string {
	if p.Alcada == 0 {
		return "sem alcada"
	}
	return fmt.Sprintf("alcada %d", p.Alcada)
}

// Store is a point of sale holding a finite discount token quota.
// QtdeToken is the only store attribute the engine mutates.
type Store struct {
	ID   snowflake.ID `gorm:"primaryKey" json:"id"`
	Name string       `gorm:"type:text;not null" json:"name"`
	UF   string       `gorm:"type:varchar(2);not null;index" json:"uf"`

	// MetaLoja is true when the store meets its discount target;
	// DreNegativo is true when its earnings statement is in order.
	// Non-compliant stores cannot receive tokens.
	MetaLoja    bool `gorm:"column:meta_loja;not null;default:false" json:"meta_loja"`
	DreNegativo bool `gorm:"column:dre_negativo;not null;default:false" json:"dre_negativo"`

	// QtdeToken is the remaining exception budget; never negative.
	QtdeToken int `gorm:"column:qtde_token;not null;default:0" json:"qtde_token"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Store) TableName() string { return "stores" }

// StateConfig gates whether a region may receive tokens at all.
type StateConfig struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UF        string       `gorm:"type:varchar(2);not null;uniqueIndex" json:"uf"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (StateConfig) TableName() string { return "state_configs" }
