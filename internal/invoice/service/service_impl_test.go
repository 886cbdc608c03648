package service_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrew/tradecrew/internal/clock"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	invoicerepo "github.com/tradecrew/tradecrew/internal/invoice/repository"
	invoiceservice "github.com/tradecrew/tradecrew/internal/invoice/service"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	jobrepo "github.com/tradecrew/tradecrew/internal/job/repository"
	jobservice "github.com/tradecrew/tradecrew/internal/job/service"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	lineitemrepo "github.com/tradecrew/tradecrew/internal/lineitem/repository"
	"github.com/tradecrew/tradecrew/internal/money"
	"github.com/tradecrew/tradecrew/internal/providers/email"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	quoterepo "github.com/tradecrew/tradecrew/internal/quote/repository"
	quoteservice "github.com/tradecrew/tradecrew/internal/quote/service"
	"github.com/tradecrew/tradecrew/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type invoiceFixture struct {
	db       *gorm.DB
	clk      *clock.FakeClock
	node     *snowflake.Node
	svc      invoicedomain.Service
	jobSvc   jobdomain.Service
	quoteSvc quotedomain.Service
	invoices invoicedomain.Repository
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	t.Helper()

	db := testutil.SetupDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	quotes := quoterepo.Provide()
	jobs := jobrepo.Provide()
	invoices := invoicerepo.Provide()
	items := lineitemrepo.Provide()

	exec := lifecycle.NewExecutor(lifecycle.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Quotes:   quotes,
		Jobs:     jobs,
		Invoices: invoices,
		Items:    items,
		Mailer:   &email.NoOpProvider{},
	})

	svc := invoiceservice.NewService(invoiceservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     invoices,
		Jobs:     jobs,
		Quotes:   quotes,
		Items:    items,
		Executor: exec,
	})
	jobSvc := jobservice.NewService(jobservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clk,
		Repo:  jobs,
		Items: items,
	})
	quoteSvc := quoteservice.NewService(quoteservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     quotes,
		Items:    items,
		Executor: exec,
	})

	return &invoiceFixture{
		db:       db,
		clk:      clk,
		node:     node,
		svc:      svc,
		jobSvc:   jobSvc,
		quoteSvc: quoteSvc,
		invoices: invoices,
	}
}

// completedJobFromQuote walks the deposit-paid quote through to a completed
// job, the normal path for invoice generation.
func (f *invoiceFixture) completedJobFromQuote(t *testing.T) (*quotedomain.View, *jobdomain.Job) {
	t.Helper()
	ctx := context.Background()

	quote, err := f.quoteSvc.Create(ctx, quotedomain.CreateQuoteRequest{
		CompanyID:     snowflake.ID(3001),
		Title:         "Bathroom tile",
		Currency:      "USD",
		DiscountKind:  money.DiscountPercent,
		DiscountValue: 10,
		TaxRate:       8,
		DepositAmount: 20000,
		Items: []lineitemdomain.LineItem{
			{Description: "Tile", Quantity: 2, UnitAmount: 25000},
			{Description: "Labor", Quantity: 1, UnitAmount: 50000},
		},
	})
	require.NoError(t, err)
	require.NoError(t, f.quoteSvc.ApplyDepositPaid(ctx, quote.Quote.ID, 20000))

	var job jobdomain.Job
	require.NoError(t, f.db.Raw("SELECT * FROM jobs WHERE quote_id = ?", quote.Quote.ID).Scan(&job).Error)
	require.NotZero(t, job.ID)

	_, err = f.jobSvc.Complete(ctx, job.ID)
	require.NoError(t, err)
	return quote, &job
}

func TestGenerateFromJobCarriesQuotePricing(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	quote, job := f.completedJobFromQuote(t)

	view, err := f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID})
	require.NoError(t, err)

	assert.Equal(t, invoicedomain.StatusDraft, view.Invoice.Status)
	require.NotNil(t, view.Invoice.JobID)
	assert.Equal(t, job.ID, *view.Invoice.JobID)
	require.NotNil(t, view.Invoice.QuoteID)
	assert.Equal(t, quote.Quote.ID, *view.Invoice.QuoteID)

	// Discount, tax and the collected deposit carry over from the quote.
	assert.Equal(t, money.DiscountPercent, view.Invoice.DiscountKind)
	assert.Equal(t, float64(10), view.Invoice.DiscountValue)
	assert.Equal(t, float64(8), view.Invoice.TaxRate)
	assert.Equal(t, int64(20000), view.Invoice.DepositPaidAmount)
	assert.Equal(t, int64(97200), view.Totals.Total)
	assert.Equal(t, int64(77200), view.Totals.TotalDue)
	assert.Len(t, view.Items, 2)

	// The job's estimate is frozen at generation time.
	var frozen sql.NullInt64
	require.NoError(t, f.db.Raw("SELECT invoiced_total FROM jobs WHERE id = ?", job.ID).Scan(&frozen).Error)
	require.True(t, frozen.Valid)
	assert.Equal(t, int64(100000), frozen.Int64)
}

func TestGenerateFromJobRequiresCompletion(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	job, err := f.jobSvc.Create(ctx, jobdomain.CreateJobRequest{
		CompanyID: snowflake.ID(3002),
		Title:     "Deck build",
		Items:     []lineitemdomain.LineItem{{Description: "Lumber", Quantity: 1, UnitAmount: 80000}},
	})
	require.NoError(t, err)

	_, err = f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.Job.ID})
	assert.ErrorIs(t, err, jobdomain.ErrNotCompleted)
}

func TestGenerateFromJobAppliesOnce(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, job := f.completedJobFromQuote(t)

	_, err := f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID})
	require.NoError(t, err)

	_, err = f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID})
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyApplied)

	var count int64
	require.NoError(t, f.db.Raw("SELECT COUNT(*) FROM invoices").Scan(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestPaidInvoiceIsImmutable(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, job := f.completedJobFromQuote(t)
	view, err := f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID})
	require.NoError(t, err)

	_, err = f.svc.Send(ctx, view.Invoice.ID)
	require.NoError(t, err)
	paid, err := f.svc.MarkPaid(ctx, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, paid.Invoice.Status)
	require.NotNil(t, paid.Invoice.PaidAt)

	_, err = f.svc.Update(ctx, invoicedomain.UpdateInvoiceRequest{
		ID: view.Invoice.ID,
		CreateInvoiceRequest: invoicedomain.CreateInvoiceRequest{
			CompanyID:    snowflake.ID(3001),
			Title:        "Edited after payment",
			DiscountKind: money.DiscountPercent,
			Items:        []lineitemdomain.LineItem{{Description: "x", Quantity: 1, UnitAmount: 1}},
		},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)

	_, err = f.svc.Cancel(ctx, view.Invoice.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrInvoicePaid)

	// Marking paid again is a no-op.
	again, err := f.svc.MarkPaid(ctx, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusPaid, again.Invoice.Status)
}

func TestMarkPaidRequiresPayableState(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, job := f.completedJobFromQuote(t)
	view, err := f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID})
	require.NoError(t, err)

	// Still a draft: not payable.
	_, err = f.svc.MarkPaid(ctx, view.Invoice.ID)
	assert.ErrorIs(t, err, invoicedomain.ErrInvalidTransition)
}

func TestCreateInvoiceRejectsDepositDeficit(t *testing.T) {
	f := newInvoiceFixture(t)

	_, err := f.svc.Create(context.Background(), invoicedomain.CreateInvoiceRequest{
		CompanyID:         snowflake.ID(3003),
		Title:             "Standalone",
		DiscountKind:      money.DiscountPercent,
		DepositPaidAmount: 10000,
		Items:             []lineitemdomain.LineItem{{Description: "Visit", Quantity: 1, UnitAmount: 5000}},
	})
	assert.ErrorIs(t, err, invoicedomain.ErrDepositExceedsTotal)
}

func TestInvoicePastDueDerivedFromDueDate(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()

	_, job := f.completedJobFromQuote(t)
	due := f.clk.Now().Add(24 * time.Hour)
	view, err := f.svc.GenerateFromJob(ctx, invoicedomain.GenerateFromJobRequest{JobID: job.ID, DueAt: &due})
	require.NoError(t, err)

	sent, err := f.svc.Send(ctx, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusAwaitingPayment, sent.EffectiveStatus)
	require.NotNil(t, sent.Invoice.ShareToken)

	f.clk.Advance(48 * time.Hour)

	late, err := f.svc.Get(ctx, view.Invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, invoicedomain.StatusAwaitingPayment, late.Invoice.Status)
	assert.Equal(t, invoicedomain.StatusPastDue, late.EffectiveStatus)
}
