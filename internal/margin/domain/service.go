package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// CeilingSource names where an effective ceiling came from.
type CeilingSource string

const (
	CeilingSourceOverride CeilingSource = "product-override"
	CeilingSourceSubgroup CeilingSource = "subgroup"
	CeilingSourceNone     CeilingSource = "none"
)

// Ceiling is the effective margin policy resolved for one
// product+region+moment. Source CeilingSourceNone means no policy exists
// and the validator skips the ceiling rule.
type Ceiling struct {
	Value  MarginValue   `json:"value"`
	Source CeilingSource `json:"source"`
	Note   *string       `json:"note,omitempty"`
}

// ResolveQuery identifies the product, requesting store and moment for
// which the effective ceiling is wanted.
type ResolveQuery struct {
	ProductID snowflake.ID
	Subgroup  *string
	UF        string
	StoreID   snowflake.ID
	Now       time.Time
}

// Resolver produces the effective margin ceiling, honoring override
// precedence over subgroup defaults.
type Resolver interface {
	Resolve(ctx context.Context, q ResolveQuery) (Ceiling, error)

	// SubgroupMarginFor returns the subgroup record for the minimum price
	// primitive, which deliberately ignores validity windows. Nil when the
	// subgroup carries no margin record.
	SubgroupMarginFor(ctx context.Context, subgroup string) (*SubgroupMargin, error)
}

var ErrInvalidSubgroup = errors.New("invalid_subgroup")
