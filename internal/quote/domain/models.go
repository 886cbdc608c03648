// Package domain contains persistence models for quotes.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/money"
	"gorm.io/datatypes"
)

// Status represents quote lifecycle states. Expired is derived at read time
// from ExpiresAt and never stored.
type Status string

const (
	StatusDraft    Status = "draft"
	StatusSent     Status = "sent"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

var (
	ErrNotFound            = errors.New("quote_not_found")
	ErrDepositExceedsTotal = errors.New("deposit_exceeds_total")
	ErrNotEditable         = errors.New("quote_not_editable")
	ErrInvalidTransition   = errors.New("invalid_quote_transition")
	ErrInvalidDiscount     = errors.New("invalid_discount")
	ErrInvalidTaxRate      = errors.New("invalid_tax_rate")
	ErrInvalidDeposit      = errors.New("invalid_deposit")
)

// Quote is a priced proposal sent to a client.
type Quote struct {
	ID       snowflake.ID  `json:"id" gorm:"primaryKey"`
	CompanyID snowflake.ID `json:"company_id" gorm:"not null;index"`
	ClientID *snowflake.ID `json:"client_id" gorm:"index"`

	Title    string `json:"title" gorm:"type:text"`
	Currency string `json:"currency" gorm:"type:text;not null;default:'USD'"`

	Status      Status `json:"status" gorm:"type:text;not null;default:'draft'"`
	DepositPaid bool   `json:"deposit_paid" gorm:"not null;default:false"`

	DiscountKind  money.DiscountKind `json:"discount_kind" gorm:"type:text;not null;default:'percentage'"`
	DiscountValue float64            `json:"discount_value" gorm:"not null;default:0"`
	TaxRate       float64            `json:"tax_rate" gorm:"not null;default:0"`
	DepositAmount int64              `json:"deposit_amount" gorm:"not null;default:0"`

	ShareToken *string    `json:"share_token" gorm:"type:text;uniqueIndex"`
	ExpiresAt  *time.Time `json:"expires_at"`
	SentAt     *time.Time `json:"sent_at"`
	AcceptedAt *time.Time `json:"accepted_at"`
	DeclinedAt *time.Time `json:"declined_at"`

	Metadata  datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Quote) TableName() string { return "quotes" }

// Discount adapts the stored modifier for the calculator.
func (q Quote) Discount() money.Discount {
	return money.Discount{Kind: q.DiscountKind, Value: q.DiscountValue}
}

// EffectiveStatus derives the read-time status. A sent or accepted quote past
// its expiry reads as expired without a stored transition.
func (q Quote) EffectiveStatus(now time.Time) Status {
	if (q.Status == StatusSent || q.Status == StatusAccepted) && q.ExpiresAt != nil && now.After(*q.ExpiresAt) {
		return StatusExpired
	}
	return q.Status
}

// Editable reports whether document fields may still change.
func (q Quote) Editable(now time.Time) bool {
	switch q.EffectiveStatus(now) {
	case StatusDraft, StatusSent:
		return true
	default:
		return false
	}
}
