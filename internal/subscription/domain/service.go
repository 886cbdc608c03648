// Package domain defines the tier-sync contract between billing webhook
// events and company subscription state.
package domain

import (
	"context"
	"time"
)

// BillingReasonCycle marks a genuine recurring charge. Only this reason may
// reset the monthly usage counter; the initial checkout charge must not.
const BillingReasonCycle = "subscription_cycle"

// SubscriptionChange is the normalized shape of a provider subscription
// created/updated event.
type SubscriptionChange struct {
	CustomerID        string
	SubscriptionID    string
	PriceID           string
	ProviderStatus    string
	CurrentPeriodEnd  *time.Time
	CancelAtPeriodEnd bool
	TrialEnd          *time.Time
}

type Service interface {
	// ApplyChange syncs tier, status and period fields from a subscription
	// created/updated event. Unknown price IDs resolve to the lowest tier.
	ApplyChange(ctx context.Context, change SubscriptionChange) error

	// ApplyDeleted forces the company to the lowest tier with status
	// canceled, regardless of prior tier.
	ApplyDeleted(ctx context.Context, customerID string) error

	// ApplyRecurringInvoicePaid resets the monthly usage counter, but only
	// for billing reason BillingReasonCycle.
	ApplyRecurringInvoicePaid(ctx context.Context, customerID, billingReason string) error
}
