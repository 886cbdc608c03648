package lifecycle

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
)

// ErrAlreadyApplied reports that a guarded transition found the document
// already in (or past) the target state. Callers treat it as a no-op
// success: redelivered webhooks and repeated user actions must not produce
// additional side effects.
var ErrAlreadyApplied = errors.New("transition_already_applied")

// Command is one side effect of a document transition. Commands execute in
// order within a single transaction; guard commands abort the batch with
// ErrAlreadyApplied when the state was already reached.
type Command interface {
	isCommand()
}

// MarkQuoteAccepted flips a draft/sent quote to accepted (guard command).
type MarkQuoteAccepted struct {
	QuoteID snowflake.ID
}

// MarkQuoteDeclined flips a draft/sent quote to declined (guard command).
type MarkQuoteDeclined struct {
	QuoteID snowflake.ID
}

// MarkQuoteDepositPaid sets deposit_paid exactly once (guard command).
type MarkQuoteDepositPaid struct {
	QuoteID snowflake.ID
}

// CreateJobFromQuote inserts the job unless one already references the
// quote. Unlike guard commands a skipped insert is not an error: the quote
// approval and deposit paths are mutually exclusive job creators and either
// may find the other's job in place.
type CreateJobFromQuote struct {
	Job jobdomain.Job
}

// CopyLineItems snapshots line items between documents. When DstID belongs
// to a CreateJobFromQuote that was skipped earlier in the batch, the copy is
// skipped too.
type CopyLineItems struct {
	SrcKind lineitemdomain.DocumentKind
	SrcID   snowflake.ID
	DstKind lineitemdomain.DocumentKind
	DstID   snowflake.ID
}

// MarkJobInvoiced freezes a completed job's estimate total (guard command).
type MarkJobInvoiced struct {
	JobID snowflake.ID
	Total int64
}

// CreateInvoice inserts a new invoice row.
type CreateInvoice struct {
	Invoice invoicedomain.Invoice
}

// MarkInvoicePaid flips an awaiting/past-due invoice to paid (guard command).
type MarkInvoicePaid struct {
	InvoiceID snowflake.ID
}

// MarkInvoicePastDue records a provider-signaled past-due transition. Not a
// guard: an invoice already paid or past due makes this a silent no-op.
type MarkInvoicePastDue struct {
	InvoiceID snowflake.ID
}

// SendReceiptEmail dispatches a best-effort receipt after the transaction
// commits. Failure to send never fails the batch.
type SendReceiptEmail struct {
	To       string
	Subject  string
	HTMLBody string
}

func (MarkQuoteAccepted) isCommand()    {}
func (MarkQuoteDeclined) isCommand()    {}
func (MarkQuoteDepositPaid) isCommand() {}
func (CreateJobFromQuote) isCommand()   {}
func (CopyLineItems) isCommand()        {}
func (MarkJobInvoiced) isCommand()      {}
func (CreateInvoice) isCommand()        {}
func (MarkInvoicePaid) isCommand()      {}
func (MarkInvoicePastDue) isCommand()   {}
func (SendReceiptEmail) isCommand()     {}
