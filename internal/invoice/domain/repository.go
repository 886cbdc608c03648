package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists invoices. Status flips are conditional updates so a
// redelivered payment event or a racing manual action applies at most once.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, invoice *Invoice) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Invoice, error)
	FindByProviderInvoiceID(ctx context.Context, db *gorm.DB, providerInvoiceID string) (*Invoice, error)
	FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*Invoice, error)
	UpdateDetails(ctx context.Context, db *gorm.DB, invoice *Invoice, now time.Time) error

	MarkAwaitingPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, shareToken string, now time.Time) (bool, error)
	MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkPastDue(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)

	SetProviderInvoiceID(ctx context.Context, db *gorm.DB, id snowflake.ID, providerInvoiceID string, now time.Time) (bool, error)
}
