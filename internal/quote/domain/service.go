package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/money"
	"gorm.io/datatypes"
)

// CreateQuoteRequest carries everything needed to persist a new quote with
// its line items.
type CreateQuoteRequest struct {
	CompanyID     snowflake.ID
	ClientID      *snowflake.ID
	Title         string
	Currency      string
	DiscountKind  money.DiscountKind
	DiscountValue float64
	TaxRate       float64
	DepositAmount int64
	ExpiresAt     *time.Time
	Metadata      datatypes.JSONMap
	Items         []lineitemdomain.LineItem
}

// UpdateQuoteRequest mirrors CreateQuoteRequest for an existing quote.
type UpdateQuoteRequest struct {
	ID snowflake.ID
	CreateQuoteRequest
}

// View is a quote with its items and calculator-derived totals. The same
// totals feed the authenticated and public pages so the payer always sees
// the amount that will be charged.
type View struct {
	Quote           Quote                     `json:"quote"`
	Items           []lineitemdomain.LineItem `json:"items"`
	Totals          money.Totals              `json:"totals"`
	EffectiveStatus Status                    `json:"effective_status"`
}

type Service interface {
	Create(ctx context.Context, req CreateQuoteRequest) (*View, error)
	Update(ctx context.Context, req UpdateQuoteRequest) (*View, error)
	Get(ctx context.Context, id snowflake.ID) (*View, error)
	GetByShareToken(ctx context.Context, token string) (*View, error)

	Send(ctx context.Context, id snowflake.ID) (*View, error)
	Accept(ctx context.Context, id snowflake.ID) (*View, error)
	Decline(ctx context.Context, id snowflake.ID) (*View, error)

	// ApplyDepositPaid applies a verified deposit-success payment event.
	// Redelivery surfaces as lifecycle.ErrAlreadyApplied.
	ApplyDepositPaid(ctx context.Context, id snowflake.ID, amount int64) error
}
