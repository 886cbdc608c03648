package lifecycle_test

import (
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	"github.com/tradecrew/tradecrew/internal/lifecycle"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"gorm.io/datatypes"
)

func TestQuoteTransitionTable(t *testing.T) {
	cases := []struct {
		from, to quotedomain.Status
		allowed  bool
	}{
		{quotedomain.StatusDraft, quotedomain.StatusSent, true},
		{quotedomain.StatusDraft, quotedomain.StatusAccepted, true},
		{quotedomain.StatusDraft, quotedomain.StatusDeclined, true},
		{quotedomain.StatusSent, quotedomain.StatusAccepted, true},
		{quotedomain.StatusSent, quotedomain.StatusDeclined, true},
		{quotedomain.StatusSent, quotedomain.StatusDraft, false},
		{quotedomain.StatusAccepted, quotedomain.StatusDeclined, false},
		{quotedomain.StatusDeclined, quotedomain.StatusAccepted, false},
		{quotedomain.StatusExpired, quotedomain.StatusAccepted, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, lifecycle.QuoteAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestJobTransitionTable(t *testing.T) {
	cases := []struct {
		from, to jobdomain.Status
		allowed  bool
	}{
		{jobdomain.StatusScheduled, jobdomain.StatusInProgress, true},
		{jobdomain.StatusScheduled, jobdomain.StatusCancelled, true},
		{jobdomain.StatusScheduled, jobdomain.StatusCompleted, false},
		{jobdomain.StatusInProgress, jobdomain.StatusCompleted, true},
		{jobdomain.StatusInProgress, jobdomain.StatusCancelled, true},
		{jobdomain.StatusCompleted, jobdomain.StatusInProgress, false},
		{jobdomain.StatusCancelled, jobdomain.StatusInProgress, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, lifecycle.JobAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestInvoiceTransitionTable(t *testing.T) {
	cases := []struct {
		from, to invoicedomain.Status
		allowed  bool
	}{
		{invoicedomain.StatusDraft, invoicedomain.StatusAwaitingPayment, true},
		{invoicedomain.StatusDraft, invoicedomain.StatusCancelled, true},
		{invoicedomain.StatusDraft, invoicedomain.StatusPaid, false},
		{invoicedomain.StatusAwaitingPayment, invoicedomain.StatusPaid, true},
		{invoicedomain.StatusAwaitingPayment, invoicedomain.StatusPastDue, true},
		{invoicedomain.StatusAwaitingPayment, invoicedomain.StatusCancelled, true},
		{invoicedomain.StatusPastDue, invoicedomain.StatusPaid, true},
		{invoicedomain.StatusPaid, invoicedomain.StatusCancelled, false},
		{invoicedomain.StatusCancelled, invoicedomain.StatusAwaitingPayment, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.allowed, lifecycle.InvoiceAllowed(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func testQuote() quotedomain.Quote {
	return quotedomain.Quote{
		ID:        snowflake.ID(42),
		CompanyID: snowflake.ID(7),
		Title:     "Kitchen remodel",
		Currency:  "USD",
		Status:    quotedomain.StatusSent,
	}
}

func TestPlanQuoteAcceptCommands(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	jobID := snowflake.ID(99)

	cmds := lifecycle.PlanQuoteAccept(testQuote(), jobID, now)
	require.Len(t, cmds, 3)

	flip, ok := cmds[0].(lifecycle.MarkQuoteAccepted)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(42), flip.QuoteID)

	create, ok := cmds[1].(lifecycle.CreateJobFromQuote)
	require.True(t, ok)
	assert.Equal(t, jobID, create.Job.ID)
	assert.Equal(t, jobdomain.StatusScheduled, create.Job.Status)
	require.NotNil(t, create.Job.QuoteID)
	assert.Equal(t, snowflake.ID(42), *create.Job.QuoteID)

	cp, ok := cmds[2].(lifecycle.CopyLineItems)
	require.True(t, ok)
	assert.Equal(t, lineitemdomain.KindQuote, cp.SrcKind)
	assert.Equal(t, lineitemdomain.KindJob, cp.DstKind)
	assert.Equal(t, jobID, cp.DstID)
}

func TestPlanQuoteDepositPaidSendsReceiptWhenEmailKnown(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	quote := testQuote()
	quote.Metadata = datatypes.JSONMap{"client_email": "client@example.com"}

	cmds := lifecycle.PlanQuoteDepositPaid(quote, snowflake.ID(99), 20000, now)
	require.Len(t, cmds, 4)
	_, ok := cmds[0].(lifecycle.MarkQuoteDepositPaid)
	require.True(t, ok)

	receipt, ok := cmds[3].(lifecycle.SendReceiptEmail)
	require.True(t, ok)
	assert.Equal(t, "client@example.com", receipt.To)

	// Without an email on file the receipt is simply not planned.
	quote.Metadata = nil
	cmds = lifecycle.PlanQuoteDepositPaid(quote, snowflake.ID(99), 20000, now)
	assert.Len(t, cmds, 3)
}

func TestPlanInvoiceFromJobFreezesBeforeCreating(t *testing.T) {
	job := jobdomain.Job{ID: snowflake.ID(11), CompanyID: snowflake.ID(7), Status: jobdomain.StatusCompleted}
	invoice := invoicedomain.Invoice{ID: snowflake.ID(12), CompanyID: snowflake.ID(7)}

	cmds := lifecycle.PlanInvoiceFromJob(job, invoice, 57000)
	require.Len(t, cmds, 3)

	freeze, ok := cmds[0].(lifecycle.MarkJobInvoiced)
	require.True(t, ok)
	assert.Equal(t, int64(57000), freeze.Total)

	create, ok := cmds[1].(lifecycle.CreateInvoice)
	require.True(t, ok)
	assert.Equal(t, snowflake.ID(12), create.Invoice.ID)

	cp, ok := cmds[2].(lifecycle.CopyLineItems)
	require.True(t, ok)
	assert.Equal(t, lineitemdomain.KindJob, cp.SrcKind)
	assert.Equal(t, lineitemdomain.KindInvoice, cp.DstKind)
}
