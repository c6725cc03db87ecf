// Package domain defines the store token quota ledger. Reserve is the
// only place the engine ever spends a store's exception budget.
package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Ledger reserves and returns store token quota units. Both operations
// take the caller's transaction handle so a reservation and the token
// insert it backs commit or roll back together.
type Ledger interface {
	// Reserve atomically spends one quota unit. Returns ErrExhausted when
	// the store has none left; the quota never goes negative even under
	// concurrent callers.
	Reserve(ctx context.Context, db *gorm.DB, storeID snowflake.ID) error

	// Release returns one quota unit, used when a reservation's token
	// could not be written.
	Release(ctx context.Context, db *gorm.DB, storeID snowflake.ID) error

	// Remaining reads the current budget.
	Remaining(ctx context.Context, db *gorm.DB, storeID snowflake.ID) (int, error)
}

// ErrExhausted is a resource outcome, distinct from validator rejections
// and from calculator domain errors. Operators treat it as retryable
// after the store's budget is replenished.
var ErrExhausted = errors.New("quota_exhausted")

var ErrStoreNotFound = errors.New("store_not_found")
