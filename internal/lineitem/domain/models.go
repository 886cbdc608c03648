// Package domain contains the line-item model shared by quotes, jobs and
// invoices. Each document kind owns its items in its own table; items never
// outlive or move between parents.
package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/money"
)

// DocumentKind identifies the owning document type of a line item.
type DocumentKind string

const (
	KindQuote   DocumentKind = "quote"
	KindJob     DocumentKind = "job"
	KindInvoice DocumentKind = "invoice"
)

// Table resolves the per-kind table name. Kind is a closed enum so the name
// is safe to interpolate into SQL.
func (k DocumentKind) Table() (string, bool) {
	switch k {
	case KindQuote:
		return "quote_line_items", true
	case KindJob:
		return "job_line_items", true
	case KindInvoice:
		return "invoice_line_items", true
	default:
		return "", false
	}
}

var (
	ErrInvalidKind       = errors.New("invalid_document_kind")
	ErrInvalidQuantity   = errors.New("invalid_quantity")
	ErrInvalidUnitAmount = errors.New("invalid_unit_amount")
)

// LineItem is one priced row on a document. Positions within a document form
// a dense 0-based sequence.
type LineItem struct {
	ID          snowflake.ID `json:"id"`
	DocumentID  snowflake.ID `json:"document_id"`
	Title       *string      `json:"title,omitempty"`
	Description string       `json:"description"`
	Quantity    float64      `json:"quantity"`
	UnitAmount  int64        `json:"unit_amount"`
	Position    int          `json:"position"`
	CreatedAt   time.Time    `json:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// LineTotal is the display amount for this row.
func (li LineItem) LineTotal() int64 {
	return money.LineTotal(li.Quantity, li.UnitAmount)
}

// Validate enforces the monetary field invariants.
func (li LineItem) Validate() error {
	if li.Quantity < 0 {
		return ErrInvalidQuantity
	}
	if li.UnitAmount < 0 {
		return ErrInvalidUnitAmount
	}
	return nil
}

// Normalize trims text fields and drops empty optional titles.
func (li *LineItem) Normalize() {
	li.Description = strings.TrimSpace(li.Description)
	if li.Title != nil {
		trimmed := strings.TrimSpace(*li.Title)
		if trimmed == "" {
			li.Title = nil
		} else {
			li.Title = &trimmed
		}
	}
}

// AsLines adapts items for the calculator.
func AsLines(items []LineItem) []money.Line {
	lines := make([]money.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, money.Line{Quantity: item.Quantity, UnitAmount: item.UnitAmount})
	}
	return lines
}
