package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/money"
	"gorm.io/datatypes"
)

// CreateInvoiceRequest creates a standalone draft invoice.
type CreateInvoiceRequest struct {
	CompanyID         snowflake.ID
	ClientID          *snowflake.ID
	Title             string
	Currency          string
	DiscountKind      money.DiscountKind
	DiscountValue     float64
	TaxRate           float64
	DepositPaidAmount int64
	DueAt             *time.Time
	Metadata          datatypes.JSONMap
	Items             []lineitemdomain.LineItem
}

// UpdateInvoiceRequest mirrors CreateInvoiceRequest for an existing invoice.
type UpdateInvoiceRequest struct {
	ID snowflake.ID
	CreateInvoiceRequest
}

// GenerateFromJobRequest builds an invoice from a completed job, snapshotting
// its line items and freezing the job's estimate.
type GenerateFromJobRequest struct {
	JobID   snowflake.ID
	TaxRate float64
	DueAt   *time.Time
}

// View is an invoice with its items and calculator-derived totals.
type View struct {
	Invoice         Invoice                   `json:"invoice"`
	Items           []lineitemdomain.LineItem `json:"items"`
	Totals          money.Totals              `json:"totals"`
	EffectiveStatus Status                    `json:"effective_status"`
}

type Service interface {
	Create(ctx context.Context, req CreateInvoiceRequest) (*View, error)
	GenerateFromJob(ctx context.Context, req GenerateFromJobRequest) (*View, error)
	Update(ctx context.Context, req UpdateInvoiceRequest) (*View, error)
	Get(ctx context.Context, id snowflake.ID) (*View, error)
	GetByShareToken(ctx context.Context, token string) (*View, error)

	Send(ctx context.Context, id snowflake.ID) (*View, error)
	MarkPaid(ctx context.Context, id snowflake.ID) (*View, error)
	Cancel(ctx context.Context, id snowflake.ID) (*View, error)

	// AttachProviderInvoice links the provider-hosted checkout invoice so
	// later payment events can be matched back to this invoice.
	AttachProviderInvoice(ctx context.Context, id snowflake.ID, providerInvoiceID string) (*View, error)

	// ApplyPaymentSucceeded and ApplyPaymentFailed apply verified provider
	// payment events, matched by provider invoice identifier. Redelivery
	// surfaces as lifecycle.ErrAlreadyApplied.
	ApplyPaymentSucceeded(ctx context.Context, providerInvoiceID string) error
	ApplyPaymentFailed(ctx context.Context, providerInvoiceID string) error
}
