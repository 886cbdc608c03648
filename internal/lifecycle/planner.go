package lifecycle

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"gorm.io/datatypes"
)

// NewJobFromQuote builds the scheduled job spawned by quote approval or
// deposit payment. withMedia carries the quote's attached media references
// forward (deposit path only).
func NewJobFromQuote(q quotedomain.Quote, jobID snowflake.ID, now time.Time, withMedia bool) jobdomain.Job {
	quoteID := q.ID
	job := jobdomain.Job{
		ID:        jobID,
		CompanyID: q.CompanyID,
		ClientID:  q.ClientID,
		QuoteID:   &quoteID,
		Title:     q.Title,
		Currency:  q.Currency,
		Status:    jobdomain.StatusScheduled,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if withMedia {
		if media, ok := q.Metadata["media"]; ok {
			job.Metadata = datatypes.JSONMap{"media": media}
		}
	}
	return job
}

// PlanQuoteAccept returns the side effects of approving a quote: flip the
// status, spawn the job, snapshot the items. The status flip is the
// idempotency guard — an already-accepted quote aborts the batch as a no-op.
func PlanQuoteAccept(q quotedomain.Quote, jobID snowflake.ID, now time.Time) []Command {
	job := NewJobFromQuote(q, jobID, now, false)
	return []Command{
		MarkQuoteAccepted{QuoteID: q.ID},
		CreateJobFromQuote{Job: job},
		CopyLineItems{
			SrcKind: lineitemdomain.KindQuote,
			SrcID:   q.ID,
			DstKind: lineitemdomain.KindJob,
			DstID:   jobID,
		},
	}
}

// PlanQuoteDecline returns the single guarded status flip.
func PlanQuoteDecline(q quotedomain.Quote) []Command {
	return []Command{MarkQuoteDeclined{QuoteID: q.ID}}
}

// PlanQuoteDepositPaid returns the side effects of a verified deposit
// payment: record the deposit, spawn the job if approval has not already
// done so (media carried forward on this path), and send the receipt. The
// deposit flag is the idempotency guard against event redelivery.
func PlanQuoteDepositPaid(q quotedomain.Quote, jobID snowflake.ID, amount int64, now time.Time) []Command {
	job := NewJobFromQuote(q, jobID, now, true)
	cmds := []Command{
		MarkQuoteDepositPaid{QuoteID: q.ID},
		CreateJobFromQuote{Job: job},
		CopyLineItems{
			SrcKind: lineitemdomain.KindQuote,
			SrcID:   q.ID,
			DstKind: lineitemdomain.KindJob,
			DstID:   jobID,
		},
	}
	if to := clientEmail(q.Metadata); to != "" {
		cmds = append(cmds, SendReceiptEmail{
			To:      to,
			Subject: "Deposit received",
			HTMLBody: fmt.Sprintf(
				"<p>We received your deposit of %s %.2f for %q. Work will be scheduled shortly.</p>",
				q.Currency, float64(amount)/100, q.Title,
			),
		})
	}
	return cmds
}

// PlanInvoiceFromJob returns the side effects of generating an invoice from
// a completed job: freeze the job's estimate, insert the invoice, snapshot
// the items. The freeze is the guard against double generation.
func PlanInvoiceFromJob(job jobdomain.Job, invoice invoicedomain.Invoice, estimateTotal int64) []Command {
	return []Command{
		MarkJobInvoiced{JobID: job.ID, Total: estimateTotal},
		CreateInvoice{Invoice: invoice},
		CopyLineItems{
			SrcKind: lineitemdomain.KindJob,
			SrcID:   job.ID,
			DstKind: lineitemdomain.KindInvoice,
			DstID:   invoice.ID,
		},
	}
}

// PlanInvoicePaid returns the single guarded flip to paid.
func PlanInvoicePaid(invoiceID snowflake.ID) []Command {
	return []Command{MarkInvoicePaid{InvoiceID: invoiceID}}
}

func clientEmail(metadata datatypes.JSONMap) string {
	if metadata == nil {
		return ""
	}
	if v, ok := metadata["client_email"].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
