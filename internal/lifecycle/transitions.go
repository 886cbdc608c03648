// Package lifecycle is the document state machine. It owns the legal
// transition tables for quotes, jobs and invoices, models transition side
// effects as explicit commands, and applies them atomically through the
// Executor. Services plan transitions here instead of mutating inline so each
// side effect stays independently testable.
package lifecycle

import (
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
)

var quoteTransitions = map[quotedomain.Status][]quotedomain.Status{
	quotedomain.StatusDraft: {quotedomain.StatusSent, quotedomain.StatusAccepted, quotedomain.StatusDeclined},
	quotedomain.StatusSent:  {quotedomain.StatusAccepted, quotedomain.StatusDeclined},
	// declined and expired are terminal; expired is derived, never stored.
}

var jobTransitions = map[jobdomain.Status][]jobdomain.Status{
	jobdomain.StatusScheduled:  {jobdomain.StatusInProgress, jobdomain.StatusCancelled},
	jobdomain.StatusInProgress: {jobdomain.StatusCompleted, jobdomain.StatusCancelled},
}

var invoiceTransitions = map[invoicedomain.Status][]invoicedomain.Status{
	invoicedomain.StatusDraft:           {invoicedomain.StatusAwaitingPayment, invoicedomain.StatusCancelled},
	invoicedomain.StatusAwaitingPayment: {invoicedomain.StatusPaid, invoicedomain.StatusPastDue, invoicedomain.StatusCancelled},
	invoicedomain.StatusPastDue:         {invoicedomain.StatusPaid, invoicedomain.StatusCancelled},
}

func QuoteAllowed(from, to quotedomain.Status) bool {
	return contains(quoteTransitions[from], to)
}

func JobAllowed(from, to jobdomain.Status) bool {
	return contains(jobTransitions[from], to)
}

func InvoiceAllowed(from, to invoicedomain.Status) bool {
	return contains(invoiceTransitions[from], to)
}

func contains[S ~string](set []S, v S) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
