package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"gorm.io/datatypes"
)

// CreateJobRequest creates a standalone job, not derived from a quote.
type CreateJobRequest struct {
	CompanyID    snowflake.ID
	ClientID     *snowflake.ID
	Title        string
	Currency     string
	ScheduledFor *time.Time
	Metadata     datatypes.JSONMap
	Items        []lineitemdomain.LineItem
}

// View is a job with its items and the running estimate subtotal. Once the
// job is invoiced the frozen total is authoritative.
type View struct {
	Job           Job                       `json:"job"`
	Items         []lineitemdomain.LineItem `json:"items"`
	EstimateTotal int64                     `json:"estimate_total"`
}

type Service interface {
	Create(ctx context.Context, req CreateJobRequest) (*View, error)
	Get(ctx context.Context, id snowflake.ID) (*View, error)

	Start(ctx context.Context, id snowflake.ID) (*View, error)
	Complete(ctx context.Context, id snowflake.ID) (*View, error)
	Cancel(ctx context.Context, id snowflake.ID) (*View, error)

	// ReplaceItems swaps the job's line items. Rejected with ErrFrozen once
	// an invoice has been generated from the job.
	ReplaceItems(ctx context.Context, id snowflake.ID, items []lineitemdomain.LineItem) (*View, error)

	Delete(ctx context.Context, id snowflake.ID) error
}
