package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Repository persists quotes. Status flips are conditional updates so that
// concurrent webhook deliveries and user actions cannot double-apply a
// transition; the bool result reports whether the row actually changed.
type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, quote *Quote) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Quote, error)
	FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*Quote, error)
	UpdateDetails(ctx context.Context, db *gorm.DB, quote *Quote, now time.Time) error

	MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, shareToken string, now time.Time) (bool, error)
	MarkAccepted(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkDeclined(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
	MarkDepositPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error)
}
