package service

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	subscriptiondomain "github.com/tradecrew/tradecrew/internal/subscription/domain"
	"github.com/tradecrew/tradecrew/internal/webhook/domain"
)

type eventKind int

const (
	kindIgnored eventKind = iota
	kindCheckoutCompleted
	kindInvoicePaymentSucceeded
	kindInvoicePaymentFailed
	kindSubscriptionChanged
	kindSubscriptionDeleted
	kindBillingInvoicePaid
)

// event is the normalized form of a provider delivery; exactly one of the
// kind-specific field groups is populated.
type event struct {
	id        string
	eventType string
	kind      eventKind

	quoteID       snowflake.ID
	depositAmount int64

	providerInvoiceID string

	subscription  subscriptiondomain.SubscriptionChange
	customerID    string
	billingReason string
}

type providerEvent struct {
	ID      string            `json:"id"`
	Type    string            `json:"type"`
	Created int64             `json:"created"`
	Data    providerEventData `json:"data"`
}

type providerEventData struct {
	Object json.RawMessage `json:"object"`
}

type providerCheckoutSession struct {
	ID          string            `json:"id"`
	AmountTotal int64             `json:"amount_total"`
	Currency    string            `json:"currency"`
	Metadata    map[string]string `json:"metadata"`
}

type providerInvoice struct {
	ID            string `json:"id"`
	Customer      string `json:"customer"`
	BillingReason string `json:"billing_reason"`
}

type providerSubscription struct {
	ID                string `json:"id"`
	Customer          string `json:"customer"`
	Status            string `json:"status"`
	CancelAtPeriodEnd bool   `json:"cancel_at_period_end"`
	CurrentPeriodEnd  int64  `json:"current_period_end"`
	TrialEnd          int64  `json:"trial_end"`
	Items             struct {
		Data []struct {
			Price struct {
				ID string `json:"id"`
			} `json:"price"`
		} `json:"data"`
	} `json:"items"`
}

// parseEvent normalizes a delivery for one source. Event types outside the
// source's contract come back as kindIgnored, not as an error: unknown types
// must be acknowledged so the provider stops redelivering them.
func parseEvent(source domain.Source, payload []byte) (*event, error) {
	var raw providerEvent
	if err := json.Unmarshal(payload, &raw); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}

	ev := &event{id: raw.ID, eventType: strings.TrimSpace(raw.Type)}
	switch source {
	case domain.SourcePayments:
		return parsePaymentsEvent(ev, raw)
	case domain.SourceConnect:
		return parseConnectEvent(ev, raw)
	case domain.SourceBilling:
		return parseBillingEvent(ev, raw)
	default:
		return nil, domain.ErrUnknownSource
	}
}

func parsePaymentsEvent(ev *event, raw providerEvent) (*event, error) {
	if ev.eventType != "checkout.session.completed" {
		return ev, nil
	}

	var session providerCheckoutSession
	if err := json.Unmarshal(raw.Data.Object, &session); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	quoteID, err := metadataID(session.Metadata, "quote_id")
	if err != nil {
		return nil, err
	}

	ev.kind = kindCheckoutCompleted
	ev.quoteID = quoteID
	ev.depositAmount = session.AmountTotal
	return ev, nil
}

func parseConnectEvent(ev *event, raw providerEvent) (*event, error) {
	switch ev.eventType {
	case "invoice.payment_succeeded":
		ev.kind = kindInvoicePaymentSucceeded
	case "invoice.payment_failed":
		ev.kind = kindInvoicePaymentFailed
	default:
		return ev, nil
	}

	var invoice providerInvoice
	if err := json.Unmarshal(raw.Data.Object, &invoice); err != nil {
		return nil, domain.ErrInvalidPayload
	}
	if strings.TrimSpace(invoice.ID) == "" {
		return nil, domain.ErrInvalidEvent
	}
	ev.providerInvoiceID = invoice.ID
	return ev, nil
}

func parseBillingEvent(ev *event, raw providerEvent) (*event, error) {
	switch ev.eventType {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub providerSubscription
		if err := json.Unmarshal(raw.Data.Object, &sub); err != nil {
			return nil, domain.ErrInvalidPayload
		}
		if strings.TrimSpace(sub.Customer) == "" {
			return nil, domain.ErrInvalidEvent
		}
		change := subscriptiondomain.SubscriptionChange{
			CustomerID:        sub.Customer,
			SubscriptionID:    sub.ID,
			ProviderStatus:    sub.Status,
			CancelAtPeriodEnd: sub.CancelAtPeriodEnd,
			CurrentPeriodEnd:  unixPtr(sub.CurrentPeriodEnd),
			TrialEnd:          unixPtr(sub.TrialEnd),
		}
		if len(sub.Items.Data) > 0 {
			change.PriceID = sub.Items.Data[0].Price.ID
		}
		ev.kind = kindSubscriptionChanged
		ev.subscription = change
		return ev, nil

	case "customer.subscription.deleted":
		var sub providerSubscription
		if err := json.Unmarshal(raw.Data.Object, &sub); err != nil {
			return nil, domain.ErrInvalidPayload
		}
		if strings.TrimSpace(sub.Customer) == "" {
			return nil, domain.ErrInvalidEvent
		}
		ev.kind = kindSubscriptionDeleted
		ev.customerID = sub.Customer
		return ev, nil

	case "invoice.paid":
		var invoice providerInvoice
		if err := json.Unmarshal(raw.Data.Object, &invoice); err != nil {
			return nil, domain.ErrInvalidPayload
		}
		if strings.TrimSpace(invoice.Customer) == "" {
			return nil, domain.ErrInvalidEvent
		}
		ev.kind = kindBillingInvoicePaid
		ev.customerID = invoice.Customer
		ev.billingReason = invoice.BillingReason
		return ev, nil

	default:
		return ev, nil
	}
}

func metadataID(metadata map[string]string, key string) (snowflake.ID, error) {
	raw := strings.TrimSpace(metadata[key])
	if raw == "" {
		return 0, domain.ErrMissingMetadata
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, domain.ErrMissingMetadata
	}
	return snowflake.ID(id), nil
}

func unixPtr(ts int64) *time.Time {
	if ts == 0 {
		return nil
	}
	t := time.Unix(ts, 0).UTC()
	return &t
}
