package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists jobs. InsertForQuote and the Mark* methods are
// conditional writes; the bool result reports whether the row changed.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, job *Job) error

	// InsertForQuote creates the job only if no job references the quote
	// yet. This is the storage-level guard that makes quote approval and
	// deposit-payment webhooks mutually exclusive job creators.
	InsertForQuote(ctx context.Context, db *gorm.DB, job *Job) (bool, error)

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Job, error)
	FindByQuoteID(ctx context.Context, db *gorm.DB, quoteID snowflake.ID) (*Job, error)

	MarkInProgress(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkCompleted(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	// MarkInvoiced freezes the estimate total at invoicing time.
	MarkInvoiced(ctx context.Context, db *gorm.DB, id snowflake.ID, total int64, now time.Time) (bool, error)

	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) error
}
