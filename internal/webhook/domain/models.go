// Package domain defines the webhook ingestion contract: verified provider
// events dispatched to document and subscription state.
package domain

import (
	"context"
	"errors"
	"net/http"
)

// Source identifies which provider endpoint delivered the event. Each source
// has its own signing secret.
type Source string

const (
	// SourcePayments carries client checkout events for quote deposits.
	SourcePayments Source = "payments"
	// SourceConnect carries payment events for provider-hosted invoices.
	SourceConnect Source = "connect"
	// SourceBilling carries platform subscription billing events.
	SourceBilling Source = "billing"
)

var (
	ErrUnknownSource    = errors.New("unknown_webhook_source")
	ErrInvalidSignature = errors.New("invalid_webhook_signature")
	ErrInvalidPayload   = errors.New("invalid_webhook_payload")
	ErrInvalidEvent     = errors.New("invalid_webhook_event")
	ErrMissingMetadata  = errors.New("missing_webhook_metadata")
)

// Outcome classifies how an accepted delivery was handled. Everything but a
// signature failure or a storage error is acknowledged to stop redelivery.
type Outcome string

const (
	OutcomeProcessed Outcome = "processed"
	OutcomeDuplicate Outcome = "duplicate"
	OutcomeIgnored   Outcome = "ignored"
	OutcomeWarning   Outcome = "accepted_with_warning"
)

// Result reports what an accepted delivery did.
type Result struct {
	EventID   string  `json:"event_id"`
	EventType string  `json:"event_type"`
	Outcome   Outcome `json:"outcome"`
	Detail    string  `json:"detail,omitempty"`
}

type Service interface {
	// Ingest verifies the delivery signature, parses the event and applies
	// it. ErrInvalidSignature means no state was touched and the caller must
	// reject the delivery; any other error is transient and safe to retry.
	Ingest(ctx context.Context, source Source, payload []byte, headers http.Header) (*Result, error)
}
