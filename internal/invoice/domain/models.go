// Package domain contains persistence models for invoices.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/money"
	"gorm.io/datatypes"
)

// Status represents invoice lifecycle states. PastDue is both derivable at
// read time from DueAt and storable when the provider signals it.
type Status string

const (
	StatusDraft           Status = "draft"
	StatusAwaitingPayment Status = "awaiting_payment"
	StatusPaid            Status = "paid"
	StatusPastDue         Status = "past_due"
	StatusCancelled       Status = "cancelled"
)

var (
	ErrNotFound            = errors.New("invoice_not_found")
	ErrInvoicePaid         = errors.New("invoice_paid_immutable")
	ErrInvalidTransition   = errors.New("invalid_invoice_transition")
	ErrNotEditable         = errors.New("invoice_not_editable")
	ErrDepositExceedsTotal = errors.New("deposit_paid_exceeds_total")
)

// Invoice is a payable bill, optionally derived from a job and/or quote.
type Invoice struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	CompanyID snowflake.ID  `json:"company_id" gorm:"not null;index"`
	ClientID  *snowflake.ID `json:"client_id" gorm:"index"`
	JobID     *snowflake.ID `json:"job_id" gorm:"index"`
	QuoteID   *snowflake.ID `json:"quote_id" gorm:"index"`

	Title    string `json:"title" gorm:"type:text"`
	Currency string `json:"currency" gorm:"type:text;not null;default:'USD'"`
	Status   Status `json:"status" gorm:"type:text;not null;default:'draft'"`

	DiscountKind  money.DiscountKind `json:"discount_kind" gorm:"type:text;not null;default:'percentage'"`
	DiscountValue float64            `json:"discount_value" gorm:"not null;default:0"`
	TaxRate       float64            `json:"tax_rate" gorm:"not null;default:0"`

	// DepositPaidAmount is subtracted from the amount due; it reflects a
	// deposit already collected against the originating quote.
	DepositPaidAmount int64 `json:"deposit_paid_amount" gorm:"not null;default:0"`

	// ProviderInvoiceID matches provider payment events to this invoice.
	ProviderInvoiceID *string `json:"provider_invoice_id" gorm:"type:text;uniqueIndex"`

	ShareToken *string    `json:"share_token" gorm:"type:text;uniqueIndex"`
	DueAt      *time.Time `json:"due_at"`
	SentAt     *time.Time `json:"sent_at"`
	PaidAt     *time.Time `json:"paid_at"`

	Metadata  datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Invoice) TableName() string { return "invoices" }

// Discount adapts the stored modifier for the calculator.
func (i Invoice) Discount() money.Discount {
	return money.Discount{Kind: i.DiscountKind, Value: i.DiscountValue}
}

// EffectiveStatus derives the read-time status. An awaiting invoice past its
// due date reads as past_due without a stored transition.
func (i Invoice) EffectiveStatus(now time.Time) Status {
	if i.Status == StatusAwaitingPayment && i.DueAt != nil && now.After(*i.DueAt) {
		return StatusPastDue
	}
	return i.Status
}

// Editable reports whether document fields may still change. Paid invoices
// are immutable; edit attempts must fail loudly, not silently.
func (i Invoice) Editable() bool {
	switch i.Status {
	case StatusDraft, StatusAwaitingPayment, StatusPastDue:
		return true
	default:
		return false
	}
}
