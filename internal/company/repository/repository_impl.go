package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	companydomain "github.com/tradecrew/tradecrew/internal/company/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() companydomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, company *companydomain.Company) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO companies (
			id, name, tier, subscription_status, billing_customer_id, billing_subscription_id,
			current_period_end, cancel_at_period_end, trial_end, monthly_usage_count,
			usage_reset_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		company.ID,
		company.Name,
		company.Tier,
		company.SubscriptionStatus,
		company.BillingCustomerID,
		company.BillingSubscriptionID,
		company.CurrentPeriodEnd,
		company.CancelAtPeriodEnd,
		company.TrialEnd,
		company.MonthlyUsageCount,
		company.UsageResetAt,
		company.Metadata,
		company.CreatedAt,
		company.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*companydomain.Company, error) {
	var company companydomain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM companies WHERE id = ?`,
		id,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, companydomain.ErrNotFound
	}
	return &company, nil
}

func (r *repo) FindByBillingCustomerID(ctx context.Context, db *gorm.DB, customerID string) (*companydomain.Company, error) {
	customerID = strings.TrimSpace(customerID)
	if customerID == "" {
		return nil, companydomain.ErrNotFound
	}

	var company companydomain.Company
	err := db.WithContext(ctx).Raw(
		`SELECT * FROM companies WHERE billing_customer_id = ?`,
		customerID,
	).Scan(&company).Error
	if err != nil {
		return nil, err
	}
	if company.ID == 0 {
		return nil, companydomain.ErrNotFound
	}
	return &company, nil
}

func (r *repo) UpdateSubscription(ctx context.Context, db *gorm.DB, id snowflake.ID, update companydomain.SubscriptionUpdate, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET tier = ?, subscription_status = ?, billing_subscription_id = ?,
		     current_period_end = ?, cancel_at_period_end = ?, trial_end = ?, updated_at = ?
		 WHERE id = ?`,
		update.Tier,
		update.Status,
		update.BillingSubscriptionID,
		update.CurrentPeriodEnd,
		update.CancelAtPeriodEnd,
		update.TrialEnd,
		now,
		id,
	).Error
}

func (r *repo) ResetMonthlyUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET monthly_usage_count = 0, usage_reset_at = ?, updated_at = ?
		 WHERE id = ?`,
		now,
		now,
		id,
	).Error
}

func (r *repo) IncrementMonthlyUsage(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE companies
		 SET monthly_usage_count = monthly_usage_count + 1, updated_at = ?
		 WHERE id = ?`,
		now,
		id,
	).Error
}
