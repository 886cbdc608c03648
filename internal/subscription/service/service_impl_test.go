package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrew/tradecrew/internal/clock"
	companydomain "github.com/tradecrew/tradecrew/internal/company/domain"
	companyrepo "github.com/tradecrew/tradecrew/internal/company/repository"
	"github.com/tradecrew/tradecrew/internal/config"
	subscriptiondomain "github.com/tradecrew/tradecrew/internal/subscription/domain"
	subscriptionservice "github.com/tradecrew/tradecrew/internal/subscription/service"
	"github.com/tradecrew/tradecrew/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type subscriptionFixture struct {
	db        *gorm.DB
	clk       *clock.FakeClock
	svc       subscriptiondomain.Service
	companies companydomain.Repository
}

func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()

	db := testutil.SetupDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	companies := companyrepo.Provide()

	svc := subscriptionservice.NewService(subscriptionservice.Params{
		DB:        db,
		Log:       zap.NewNop(),
		Clock:     clk,
		Companies: companies,
		Pricing: config.NewStaticPricingHolder(config.PricingConfig{
			Version: "test",
			Prices: map[string]string{
				"price_pro":     "pro",
				"price_premium": "premium",
			},
		}),
	})
	return &subscriptionFixture{db: db, clk: clk, svc: svc, companies: companies}
}

func (f *subscriptionFixture) seedCompany(t *testing.T, id int64, customerID string) {
	t.Helper()

	now := f.clk.Now()
	require.NoError(t, f.companies.Insert(context.Background(), f.db, &companydomain.Company{
		ID:                 snowflake.ID(id),
		Name:               "Crew Co",
		Tier:               companydomain.TierFree,
		SubscriptionStatus: companydomain.SubscriptionCanceled,
		BillingCustomerID:  &customerID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}))
}

func (f *subscriptionFixture) company(t *testing.T, id int64) *companydomain.Company {
	t.Helper()

	company, err := f.companies.FindByID(context.Background(), f.db, snowflake.ID(id))
	require.NoError(t, err)
	return company
}

func TestApplyChangeMapsKnownPrices(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.seedCompany(t, 7001, "cus_1")
	ctx := context.Background()

	periodEnd := f.clk.Now().Add(30 * 24 * time.Hour)
	require.NoError(t, f.svc.ApplyChange(ctx, subscriptiondomain.SubscriptionChange{
		CustomerID:       "cus_1",
		SubscriptionID:   "sub_1",
		PriceID:          "price_premium",
		ProviderStatus:   "active",
		CurrentPeriodEnd: &periodEnd,
	}))

	company := f.company(t, 7001)
	assert.Equal(t, companydomain.TierPremium, company.Tier)
	assert.Equal(t, companydomain.SubscriptionActive, company.SubscriptionStatus)
}

func TestApplyChangeUnknownPriceFailsClosed(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.seedCompany(t, 7002, "cus_2")

	require.NoError(t, f.svc.ApplyChange(context.Background(), subscriptiondomain.SubscriptionChange{
		CustomerID:     "cus_2",
		SubscriptionID: "sub_2",
		PriceID:        "price_not_in_table",
		ProviderStatus: "active",
	}))

	assert.Equal(t, companydomain.TierFree, f.company(t, 7002).Tier)
}

func TestApplyChangeUnknownStatusReadsAsPastDue(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.seedCompany(t, 7003, "cus_3")

	require.NoError(t, f.svc.ApplyChange(context.Background(), subscriptiondomain.SubscriptionChange{
		CustomerID:     "cus_3",
		SubscriptionID: "sub_3",
		PriceID:        "price_pro",
		ProviderStatus: "incomplete_expired",
	}))

	company := f.company(t, 7003)
	assert.Equal(t, companydomain.TierPro, company.Tier)
	assert.Equal(t, companydomain.SubscriptionPastDue, company.SubscriptionStatus)
}

func TestApplyChangeUnknownCustomer(t *testing.T) {
	f := newSubscriptionFixture(t)

	err := f.svc.ApplyChange(context.Background(), subscriptiondomain.SubscriptionChange{
		CustomerID: "cus_missing",
	})
	assert.ErrorIs(t, err, companydomain.ErrNotFound)
}

func TestApplyDeletedDowngrades(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.seedCompany(t, 7004, "cus_4")
	ctx := context.Background()

	require.NoError(t, f.svc.ApplyChange(ctx, subscriptiondomain.SubscriptionChange{
		CustomerID:     "cus_4",
		SubscriptionID: "sub_4",
		PriceID:        "price_pro",
		ProviderStatus: "active",
	}))
	require.NoError(t, f.svc.ApplyDeleted(ctx, "cus_4"))

	company := f.company(t, 7004)
	assert.Equal(t, companydomain.TierFree, company.Tier)
	assert.Equal(t, companydomain.SubscriptionCanceled, company.SubscriptionStatus)
}

func TestRecurringInvoicePaidGatesOnBillingReason(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.seedCompany(t, 7005, "cus_5")
	ctx := context.Background()

	require.NoError(t, f.companies.IncrementMonthlyUsage(ctx, f.db, snowflake.ID(7005), f.clk.Now()))
	require.NoError(t, f.companies.IncrementMonthlyUsage(ctx, f.db, snowflake.ID(7005), f.clk.Now()))

	// The initial charge for a new subscription is not a cycle rollover.
	require.NoError(t, f.svc.ApplyRecurringInvoicePaid(ctx, "cus_5", "subscription_create"))
	assert.Equal(t, int64(2), f.company(t, 7005).MonthlyUsageCount)

	require.NoError(t, f.svc.ApplyRecurringInvoicePaid(ctx, "cus_5", subscriptiondomain.BillingReasonCycle))
	company := f.company(t, 7005)
	assert.Zero(t, company.MonthlyUsageCount)
	require.NotNil(t, company.UsageResetAt)
}
