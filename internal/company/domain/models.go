// Package domain contains persistence models for companies and their
// platform subscription state.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Tier is a company's feature tier. Ordering matters: comparisons gate
// features, and unknown billing data must always resolve downward.
type Tier string

const (
	TierFree    Tier = "free"
	TierPro     Tier = "pro"
	TierPremium Tier = "premium"
)

// SubscriptionStatus mirrors the billing provider's subscription lifecycle.
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionTrialing SubscriptionStatus = "trialing"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
)

var ErrNotFound = errors.New("company_not_found")

// Company is the owning account for quotes, jobs and invoices.
type Company struct {
	ID   snowflake.ID `json:"id" gorm:"primaryKey"`
	Name string       `json:"name" gorm:"type:text;not null"`

	Tier               Tier               `json:"tier" gorm:"type:text;not null;default:'free'"`
	SubscriptionStatus SubscriptionStatus `json:"subscription_status" gorm:"type:text;not null;default:'canceled'"`

	BillingCustomerID     *string    `json:"billing_customer_id" gorm:"type:text;index"`
	BillingSubscriptionID *string    `json:"billing_subscription_id" gorm:"type:text"`
	CurrentPeriodEnd      *time.Time `json:"current_period_end"`
	CancelAtPeriodEnd     bool       `json:"cancel_at_period_end" gorm:"not null;default:false"`
	TrialEnd              *time.Time `json:"trial_end"`

	MonthlyUsageCount int64      `json:"monthly_usage_count" gorm:"not null;default:0"`
	UsageResetAt      *time.Time `json:"usage_reset_at"`

	Metadata  datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }
