package service

import (
	"context"

	"github.com/tradecrew/tradecrew/internal/clock"
	companydomain "github.com/tradecrew/tradecrew/internal/company/domain"
	"github.com/tradecrew/tradecrew/internal/config"
	"github.com/tradecrew/tradecrew/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	Clock     clock.Clock
	Companies companydomain.Repository
	Pricing   *config.PricingConfigHolder
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	clock     clock.Clock
	companies companydomain.Repository
	pricing   *config.PricingConfigHolder
}

func NewService(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		clock:     p.Clock,
		companies: p.Companies,
		pricing:   p.Pricing,
	}
}

func (s *Service) ApplyChange(ctx context.Context, change domain.SubscriptionChange) error {
	company, err := s.companies.FindByBillingCustomerID(ctx, s.db, change.CustomerID)
	if err != nil {
		return err
	}

	table := s.pricing.Get()
	tier := tierFor(table, change.PriceID)
	if tier == companydomain.TierFree && change.PriceID != "" {
		s.log.Warn("unknown price id, defaulting to free tier",
			zap.String("price_id", change.PriceID),
			zap.String("pricing_version", table.Version),
			zap.String("customer_id", change.CustomerID),
		)
	}

	subscriptionID := change.SubscriptionID
	update := companydomain.SubscriptionUpdate{
		Tier:                  tier,
		Status:                statusFor(change.ProviderStatus),
		BillingSubscriptionID: &subscriptionID,
		CurrentPeriodEnd:      change.CurrentPeriodEnd,
		CancelAtPeriodEnd:     change.CancelAtPeriodEnd,
		TrialEnd:              change.TrialEnd,
	}
	if err := s.companies.UpdateSubscription(ctx, s.db, company.ID, update, s.clock.Now()); err != nil {
		return err
	}

	s.log.Info("subscription synced",
		zap.Int64("company_id", int64(company.ID)),
		zap.String("tier", string(tier)),
		zap.String("status", string(update.Status)),
		zap.String("pricing_version", table.Version),
	)
	return nil
}

func (s *Service) ApplyDeleted(ctx context.Context, customerID string) error {
	company, err := s.companies.FindByBillingCustomerID(ctx, s.db, customerID)
	if err != nil {
		return err
	}

	update := companydomain.SubscriptionUpdate{
		Tier:   companydomain.TierFree,
		Status: companydomain.SubscriptionCanceled,
	}
	if err := s.companies.UpdateSubscription(ctx, s.db, company.ID, update, s.clock.Now()); err != nil {
		return err
	}

	s.log.Info("subscription deleted, company downgraded",
		zap.Int64("company_id", int64(company.ID)),
	)
	return nil
}

func (s *Service) ApplyRecurringInvoicePaid(ctx context.Context, customerID, billingReason string) error {
	if billingReason != domain.BillingReasonCycle {
		s.log.Debug("ignoring invoice paid with non-cycle billing reason",
			zap.String("customer_id", customerID),
			zap.String("billing_reason", billingReason),
		)
		return nil
	}

	company, err := s.companies.FindByBillingCustomerID(ctx, s.db, customerID)
	if err != nil {
		return err
	}
	if err := s.companies.ResetMonthlyUsage(ctx, s.db, company.ID, s.clock.Now()); err != nil {
		return err
	}

	s.log.Info("monthly usage reset",
		zap.Int64("company_id", int64(company.ID)),
	)
	return nil
}

// tierFor resolves a price ID against the injected table. Anything not in
// the table maps to free so bad billing data can never elevate an account.
func tierFor(table config.PricingConfig, priceID string) companydomain.Tier {
	switch companydomain.Tier(table.Prices[priceID]) {
	case companydomain.TierPro:
		return companydomain.TierPro
	case companydomain.TierPremium:
		return companydomain.TierPremium
	default:
		return companydomain.TierFree
	}
}

func statusFor(providerStatus string) companydomain.SubscriptionStatus {
	switch companydomain.SubscriptionStatus(providerStatus) {
	case companydomain.SubscriptionActive:
		return companydomain.SubscriptionActive
	case companydomain.SubscriptionTrialing:
		return companydomain.SubscriptionTrialing
	case companydomain.SubscriptionCanceled:
		return companydomain.SubscriptionCanceled
	default:
		// incomplete, unpaid and any future provider states read as past
		// due: the account keeps its tier but is flagged for dunning.
		return companydomain.SubscriptionPastDue
	}
}
