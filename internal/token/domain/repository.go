package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, token *Token) error
	InsertItem(ctx context.Context, db *gorm.DB, item *TokenItem) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Token, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*Token, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Token, int64, error)

	// MarkDecision finalizes a pending token with a conditional update
	// and reports how many rows changed; zero means the token was already
	// terminal (or absent).
	MarkDecision(ctx context.Context, db *gorm.DB, id snowflake.ID, decision Decision) (int64, error)
}
