package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tradecrew/tradecrew/internal/clock"
	invoicerepo "github.com/tradecrew/tradecrew/internal/invoice/repository"
	jobrepo "github.com/tradecrew/tradecrew/internal/job/repository"
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
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type quoteFixture struct {
	db    *gorm.DB
	clk   *clock.FakeClock
	svc   quotedomain.Service
	quote quotedomain.Repository
}

func newQuoteFixture(t *testing.T) *quoteFixture {
	t.Helper()

	db := testutil.SetupDB(t)
	node := testutil.NewNode(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	quotes := quoterepo.Provide()
	exec := lifecycle.NewExecutor(lifecycle.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Quotes:   quotes,
		Jobs:     jobrepo.Provide(),
		Invoices: invoicerepo.Provide(),
		Items:    lineitemrepo.Provide(),
		Mailer:   &email.NoOpProvider{},
	})

	svc := quoteservice.NewService(quoteservice.Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    clk,
		Repo:     quotes,
		Items:    lineitemrepo.Provide(),
		Executor: exec,
	})

	return &quoteFixture{db: db, clk: clk, svc: svc, quote: quotes}
}

func (f *quoteFixture) createQuote(t *testing.T, req quotedomain.CreateQuoteRequest) *quotedomain.View {
	t.Helper()

	view, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	return view
}

func baseRequest(companyID int64) quotedomain.CreateQuoteRequest {
	return quotedomain.CreateQuoteRequest{
		CompanyID:     snowflake.ID(companyID),
		Title:         "Kitchen remodel",
		Currency:      "USD",
		DiscountKind:  money.DiscountPercent,
		DiscountValue: 10,
		TaxRate:       8,
		DepositAmount: 20000,
		Items: []lineitemdomain.LineItem{
			{Description: "Demolition", Quantity: 2, UnitAmount: 25000},
			{Description: "Cabinet install", Quantity: 1, UnitAmount: 50000},
		},
	}
}

func TestCreateQuoteComputesTotals(t *testing.T) {
	f := newQuoteFixture(t)

	view := f.createQuote(t, baseRequest(1001))

	assert.Equal(t, int64(100000), view.Totals.Subtotal)
	assert.Equal(t, int64(10000), view.Totals.DiscountAmount)
	assert.Equal(t, int64(7200), view.Totals.Tax)
	assert.Equal(t, int64(97200), view.Totals.Total)
	assert.Equal(t, int64(97200), view.Totals.TotalDue)
	assert.Equal(t, quotedomain.StatusDraft, view.EffectiveStatus)
	assert.Len(t, view.Items, 2)
	assert.Equal(t, 0, view.Items[0].Position)
	assert.Equal(t, 1, view.Items[1].Position)
}

func TestCreateQuoteRejectsDepositExceedingTotal(t *testing.T) {
	f := newQuoteFixture(t)

	req := baseRequest(1002)
	req.DepositAmount = 200000

	_, err := f.svc.Create(context.Background(), req)
	assert.ErrorIs(t, err, quotedomain.ErrDepositExceedsTotal)
}

func TestSendQuoteMintsShareToken(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	view := f.createQuote(t, baseRequest(1003))

	sent, err := f.svc.Send(ctx, view.Quote.ID)
	require.NoError(t, err)
	require.NotNil(t, sent.Quote.ShareToken)
	assert.Equal(t, quotedomain.StatusSent, sent.Quote.Status)
	token := *sent.Quote.ShareToken

	// Re-sending is a no-op and keeps the original token.
	again, err := f.svc.Send(ctx, view.Quote.ID)
	require.NoError(t, err)
	require.NotNil(t, again.Quote.ShareToken)
	assert.Equal(t, token, *again.Quote.ShareToken)

	public, err := f.svc.GetByShareToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, view.Quote.ID, public.Quote.ID)
	assert.Equal(t, int64(97200), public.Totals.Total)
}

func TestAcceptQuoteSpawnsJobWithItemSnapshot(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	view := f.createQuote(t, baseRequest(1004))

	accepted, err := f.svc.Accept(ctx, view.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusAccepted, accepted.Quote.Status)

	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 1)
	assertCount(t, f.db, "SELECT COUNT(*) FROM job_line_items", 2)

	// Snapshot, not reference: copied items carry fresh identities.
	var jobItemIDs []int64
	require.NoError(t, f.db.Raw("SELECT id FROM job_line_items ORDER BY position").Scan(&jobItemIDs).Error)
	for i, id := range jobItemIDs {
		assert.NotEqual(t, int64(view.Items[i].ID), id)
	}

	// Accepting again is a no-op, not a second job.
	_, err = f.svc.Accept(ctx, view.Quote.ID)
	require.NoError(t, err)
	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 1)
}

func TestDeclinedQuoteIsTerminal(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	view := f.createQuote(t, baseRequest(1005))

	_, err := f.svc.Decline(ctx, view.Quote.ID)
	require.NoError(t, err)

	_, err = f.svc.Accept(ctx, view.Quote.ID)
	assert.ErrorIs(t, err, quotedomain.ErrInvalidTransition)
	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 0)
}

func TestExpiredQuoteCannotBeAccepted(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	req := baseRequest(1006)
	expires := f.clk.Now().Add(time.Hour)
	req.ExpiresAt = &expires
	view := f.createQuote(t, req)

	_, err := f.svc.Send(ctx, view.Quote.ID)
	require.NoError(t, err)

	f.clk.Advance(2 * time.Hour)

	got, err := f.svc.Get(ctx, view.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, quotedomain.StatusExpired, got.EffectiveStatus)

	_, err = f.svc.Accept(ctx, view.Quote.ID)
	assert.ErrorIs(t, err, quotedomain.ErrInvalidTransition)
}

func TestUpdateRejectedAfterAccept(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	view := f.createQuote(t, baseRequest(1007))
	_, err := f.svc.Accept(ctx, view.Quote.ID)
	require.NoError(t, err)

	_, err = f.svc.Update(ctx, quotedomain.UpdateQuoteRequest{
		ID:                 view.Quote.ID,
		CreateQuoteRequest: baseRequest(1007),
	})
	assert.ErrorIs(t, err, quotedomain.ErrNotEditable)
}

func TestDepositPaidSpawnsJobExactlyOnce(t *testing.T) {
	f := newQuoteFixture(t)
	ctx := context.Background()

	req := baseRequest(1008)
	req.Metadata = datatypes.JSONMap{"client_email": "client@example.com"}
	view := f.createQuote(t, req)

	require.NoError(t, f.svc.ApplyDepositPaid(ctx, view.Quote.ID, 20000))

	got, err := f.svc.Get(ctx, view.Quote.ID)
	require.NoError(t, err)
	assert.True(t, got.Quote.DepositPaid)
	assert.Equal(t, int64(77200), got.Totals.TotalDue)
	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 1)
	assertCount(t, f.db, "SELECT COUNT(*) FROM job_line_items", 2)

	// Redelivery is detected by the deposit flag and changes nothing.
	err = f.svc.ApplyDepositPaid(ctx, view.Quote.ID, 20000)
	assert.ErrorIs(t, err, lifecycle.ErrAlreadyApplied)
	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 1)

	// A later approval finds the job already in place and does not add one.
	_, err = f.svc.Accept(ctx, view.Quote.ID)
	require.NoError(t, err)
	assertCount(t, f.db, "SELECT COUNT(*) FROM jobs", 1)
	assertCount(t, f.db, "SELECT COUNT(*) FROM job_line_items", 2)
}

func assertCount(t *testing.T, db *gorm.DB, query string, expected int64) {
	t.Helper()

	var count int64
	require.NoError(t, db.Raw(query).Scan(&count).Error)
	assert.Equal(t, expected, count)
}
