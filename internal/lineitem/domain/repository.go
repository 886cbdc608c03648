package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists line items. All methods run against the passed-in
// handle so callers can scope them to a transaction.
type Repository interface {
	ListByDocument(ctx context.Context, db *gorm.DB, kind DocumentKind, documentID snowflake.ID) ([]LineItem, error)

	// ReplaceAll swaps a document's items for the given set, assigning dense
	// 0-based positions in slice order.
	ReplaceAll(ctx context.Context, db *gorm.DB, kind DocumentKind, documentID snowflake.ID, items []LineItem, genID *snowflake.Node, now time.Time) ([]LineItem, error)

	// CopyAll snapshots the source document's items onto the target document
	// with fresh identities, preserving order. The source is never mutated.
	// Run inside the caller's transaction so the copy is all-or-nothing.
	CopyAll(ctx context.Context, db *gorm.DB, srcKind DocumentKind, srcID snowflake.ID, dstKind DocumentKind, dstID snowflake.ID, genID *snowflake.Node, now time.Time) (int, error)

	DeleteByDocument(ctx context.Context, db *gorm.DB, kind DocumentKind, documentID snowflake.ID) error
}
