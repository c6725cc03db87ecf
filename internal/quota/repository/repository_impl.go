package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	quotadomain "github.com/ramirezvene/token-desconto/internal/quota/domain"
	"gorm.io/gorm"
)

type ledger struct{}

func Provide() quotadomain.Ledger {
	return &ledger{}
}

// Reserve performs the check-and-decrement as one conditional update so
// two concurrent issuances cannot overdraw a quota of one. Zero rows
// affected means the budget is spent (or the store does not exist, which
// the caller has already ruled out).
func (l *ledger) Reserve(ctx context.Context, db *gorm.DB, storeID snowflake.ID) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE stores SET qtde_token = qtde_token - 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND qtde_token > 0`,
		storeID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return quotadomain.ErrExhausted
	}
	return nil
}

func (l *ledger) Release(ctx context.Context, db *gorm.DB, storeID snowflake.ID) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE stores SET qtde_token = qtde_token + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		storeID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return quotadomain.ErrStoreNotFound
	}
	return nil
}

func (l *ledger) Remaining(ctx context.Context, db *gorm.DB, storeID snowflake.ID) (int, error) {
	var remaining int
	res := db.WithContext(ctx).
		Raw(`SELECT qtde_token FROM stores WHERE id = ?`, storeID).
		Scan(&remaining)
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected == 0 {
		return 0, quotadomain.ErrStoreNotFound
	}
	return remaining, nil
}
