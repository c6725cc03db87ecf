package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	tokendomain "github.com/ramirezvene/token-desconto/internal/token/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tokendomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, token *tokendomain.Token) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO tokens (id, store_id, code, status, created_at, validated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.StoreID,
		token.Code,
		token.Status,
		token.CreatedAt,
		token.ValidatedAt,
	).Error
}

func (r *repo) InsertItem(ctx context.Context, db *gorm.DB, item *tokendomain.TokenItem) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO token_items (
			id, token_id, product_id, product_name, quantity,
			requested_price, regular_price, minimum_price,
			realized_margin_pct, ceiling_source, ceiling_note,
			alcada_label, rejection_note, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.TokenID,
		item.ProductID,
		item.ProductName,
		item.Quantity,
		item.RequestedPrice,
		item.RegularPrice,
		item.MinimumPrice,
		item.RealizedMarginPct,
		item.CeilingSource,
		item.CeilingNote,
		item.AlcadaLabel,
		item.RejectionNote,
		item.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tokendomain.Token, error) {
	var token tokendomain.Token
	err := db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*tokendomain.Token, error) {
	var token tokendomain.Token
	err := db.WithContext(ctx).
		Preload("Items").
		Where("code = ?", strings.ToUpper(strings.TrimSpace(code))).
		First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &token, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter tokendomain.ListFilter) ([]tokendomain.Token, int64, error) {
	stmt := db.WithContext(ctx).Model(&tokendomain.Token{})
	if filter.StoreID != nil {
		stmt = stmt.Where("store_id = ?", *filter.StoreID)
	}
	if filter.Status != nil {
		stmt = stmt.Where("status = ?", *filter.Status)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var tokens []tokendomain.Token
	err := stmt.
		Preload("Items").
		Order("created_at DESC").
		Limit(limit).
		Offset(filter.Offset).
		Find(&tokens).Error
	return tokens, total, err
}

func (r *repo) MarkDecision(ctx context.Context, db *gorm.DB, id snowflake.ID, decision tokendomain.Decision) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`UPDATE tokens SET status = ?, validated_at = ? WHERE id = ? AND status = ?`,
		decision.Status,
		decision.ValidatedAt,
		id,
		tokendomain.TokenStatusPending,
	)
	return res.RowsAffected, res.Error
}
