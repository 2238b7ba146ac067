package repo

import (
	"context"

	"gorm.io/gorm"
)

// Base is the shared foundation for the rule-table repositories (campaigns,
// tax settings, shipping rules). Those tables are read-only from the engine's
// perspective, so Base carries just the context-bound connection.
type Base struct {
	db *gorm.DB
}

// NewBase wraps a gorm connection for embedding in a domain repository.
func NewBase(db *gorm.DB) Base {
	return Base{db: db}
}

// DB binds the connection to the request context so query cancellation
// follows the caller.
func (b Base) DB(ctx context.Context) *gorm.DB {
	if ctx == nil {
		return b.db
	}
	return b.db.WithContext(ctx)
}
