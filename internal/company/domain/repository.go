package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// SubscriptionUpdate carries the subscription fields synced from billing
// webhook events.
type SubscriptionUpdate struct {
	Tier                  Tier
	Status                SubscriptionStatus
	BillingSubscriptionID *string
	CurrentPeriodEnd      *time.Time
	CancelAtPeriodEnd     bool
	TrialEnd              *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, company *Company) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Company, error)
	FindByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*Company, error)
	UpdateSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, update SubscriptionUpdate, now time.Time) error
	ResetMonthlyUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
	IncrementMonthlyUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error
}
