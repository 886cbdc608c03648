package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/tradecrew/tradecrew/internal/clock"
	companydomain "github.com/tradecrew/tradecrew/internal/company/domain"
	"github.com/tradecrew/tradecrew/internal/config"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	subscriptiondomain "github.com/tradecrew/tradecrew/internal/subscription/domain"
	"github.com/tradecrew/tradecrew/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "webhook_events_total",
	Help: "Webhook deliveries by source, event type and outcome.",
}, []string{"source", "event_type", "outcome"})

type Params struct {
	fx.In

	Config        config.Config
	Log           *zap.Logger
	Clock         clock.Clock
	Quotes        quotedomain.Service
	Invoices      invoicedomain.Service
	Subscriptions subscriptiondomain.Service
}

type Service struct {
	log           *zap.Logger
	clock         clock.Clock
	verifiers     map[domain.Source]verifier
	quotes        quotedomain.Service
	invoices      invoicedomain.Service
	subscriptions subscriptiondomain.Service
}

func NewService(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("webhook.service"),
		clock: p.Clock,
		verifiers: map[domain.Source]verifier{
			domain.SourcePayments: {secret: p.Config.PaymentsWebhookSecret},
			domain.SourceConnect:  {secret: p.Config.ConnectWebhookSecret},
			domain.SourceBilling:  {secret: p.Config.BillingWebhookSecret},
		},
		quotes:        p.Quotes,
		invoices:      p.Invoices,
		subscriptions: p.Subscriptions,
	}
}

// Ingest verifies, parses and applies one delivery. The error contract is
// narrow on purpose: ErrInvalidSignature rejects the delivery before any
// state is read, a storage error asks the provider to retry, and everything
// else acknowledges the delivery so redelivery stops.
func (s *Service) Ingest(ctx context.Context, source domain.Source, payload []byte, headers http.Header) (*domain.Result, error) {
	v, ok := s.verifiers[source]
	if !ok {
		return nil, domain.ErrUnknownSource
	}
	if err := v.verify(payload, headers.Get(signatureHeader), s.clock.Now()); err != nil {
		eventsTotal.WithLabelValues(string(source), "unverified", "rejected").Inc()
		return nil, err
	}

	ev, err := parseEvent(source, payload)
	if err != nil {
		// A verified but malformed payload is acknowledged: the provider
		// will never deliver a different body for the same event.
		s.log.Warn("acknowledging malformed webhook payload",
			zap.String("source", string(source)),
			zap.Error(err),
		)
		result := &domain.Result{Outcome: domain.OutcomeWarning, Detail: err.Error()}
		eventsTotal.WithLabelValues(string(source), "malformed", string(result.Outcome)).Inc()
		return result, nil
	}

	result, err := s.apply(ctx, ev)
	if err != nil {
		eventsTotal.WithLabelValues(string(source), ev.eventType, "error").Inc()
		return nil, err
	}
	result.EventID = ev.id
	result.EventType = ev.eventType
	eventsTotal.WithLabelValues(string(source), ev.eventType, string(result.Outcome)).Inc()

	if result.Outcome != domain.OutcomeProcessed {
		s.log.Info("webhook acknowledged without processing",
			zap.String("source", string(source)),
			zap.String("event_id", ev.id),
			zap.String("event_type", ev.eventType),
			zap.String("outcome", string(result.Outcome)),
			zap.String("detail", result.Detail),
		)
	}
	return result, nil
}

func (s *Service) apply(ctx context.Context, ev *event) (*domain.Result, error) {
	switch ev.kind {
	case kindIgnored:
		return &domain.Result{Outcome: domain.OutcomeIgnored, Detail: "unhandled event type"}, nil

	case kindCheckoutCompleted:
		err := s.quotes.ApplyDepositPaid(ctx, ev.quoteID, ev.depositAmount)
		switch {
		case err == nil:
			return &domain.Result{Outcome: domain.OutcomeProcessed}, nil
		case errors.Is(err, lifecycle.ErrAlreadyApplied):
			return &domain.Result{Outcome: domain.OutcomeDuplicate, Detail: "deposit already recorded"}, nil
		case errors.Is(err, quotedomain.ErrNotFound):
			// Acknowledged with a warning: retrying cannot make the quote
			// appear, and unacked deliveries would pile up forever.
			return &domain.Result{Outcome: domain.OutcomeWarning, Detail: "quote not found for deposit"}, nil
		default:
			return nil, err
		}

	case kindInvoicePaymentSucceeded:
		err := s.invoices.ApplyPaymentSucceeded(ctx, ev.providerInvoiceID)
		switch {
		case err == nil:
			return &domain.Result{Outcome: domain.OutcomeProcessed}, nil
		case errors.Is(err, lifecycle.ErrAlreadyApplied):
			return &domain.Result{Outcome: domain.OutcomeDuplicate, Detail: "invoice already paid"}, nil
		case errors.Is(err, invoicedomain.ErrNotFound):
			return &domain.Result{Outcome: domain.OutcomeWarning, Detail: "no invoice for provider invoice id"}, nil
		case errors.Is(err, invoicedomain.ErrInvalidTransition):
			return &domain.Result{Outcome: domain.OutcomeWarning, Detail: "invoice not in a payable state"}, nil
		default:
			return nil, err
		}

	case kindInvoicePaymentFailed:
		err := s.invoices.ApplyPaymentFailed(ctx, ev.providerInvoiceID)
		switch {
		case err == nil:
			return &domain.Result{Outcome: domain.OutcomeProcessed}, nil
		case errors.Is(err, invoicedomain.ErrNotFound):
			return &domain.Result{Outcome: domain.OutcomeWarning, Detail: "no invoice for provider invoice id"}, nil
		default:
			return nil, err
		}

	case kindSubscriptionChanged:
		return subscriptionResult(s.subscriptions.ApplyChange(ctx, ev.subscription))

	case kindSubscriptionDeleted:
		return subscriptionResult(s.subscriptions.ApplyDeleted(ctx, ev.customerID))

	case kindBillingInvoicePaid:
		return subscriptionResult(s.subscriptions.ApplyRecurringInvoicePaid(ctx, ev.customerID, ev.billingReason))

	default:
		return nil, domain.ErrInvalidEvent
	}
}

func subscriptionResult(err error) (*domain.Result, error) {
	switch {
	case err == nil:
		return &domain.Result{Outcome: domain.OutcomeProcessed}, nil
	case errors.Is(err, companydomain.ErrNotFound):
		return &domain.Result{Outcome: domain.OutcomeWarning, Detail: "no company for billing customer"}, nil
	default:
		return nil, err
	}
}
