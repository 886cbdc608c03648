package lifecycle

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/tradecrew/tradecrew/internal/clock"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"github.com/tradecrew/tradecrew/internal/providers/email"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Quotes   quotedomain.Repository
	Jobs     jobdomain.Repository
	Invoices invoicedomain.Repository
	Items    lineitemdomain.Repository
	Mailer   email.Provider
}

// Executor applies transition commands in a single transaction. Guard
// commands that find their state already reached abort with
// ErrAlreadyApplied; the rollback guarantees no partial side effects from a
// duplicate delivery. Emails are dispatched only after a successful commit.
type Executor struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	quotes   quotedomain.Repository
	jobs     jobdomain.Repository
	invoices invoicedomain.Repository
	items    lineitemdomain.Repository
	mailer   email.Provider
}

func NewExecutor(p Params) *Executor {
	return &Executor{
		db:       p.DB,
		log:      p.Log.Named("lifecycle.executor"),
		genID:    p.GenID,
		clock:    p.Clock,
		quotes:   p.Quotes,
		jobs:     p.Jobs,
		invoices: p.Invoices,
		items:    p.Items,
		mailer:   p.Mailer,
	}
}

func (e *Executor) Apply(ctx context.Context, cmds []Command) error {
	now := e.clock.Now()
	var emails []SendReceiptEmail

	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Jobs whose guarded insert was skipped in this batch; dependent
		// line-item copies are skipped with them.
		skipped := map[snowflake.ID]bool{}

		for _, cmd := range cmds {
			switch c := cmd.(type) {
			case MarkQuoteAccepted:
				changed, err := e.quotes.MarkAccepted(ctx, tx, c.QuoteID, now)
				if err != nil {
					return err
				}
				if !changed {
					return ErrAlreadyApplied
				}

			case MarkQuoteDeclined:
				changed, err := e.quotes.MarkDeclined(ctx, tx, c.QuoteID, now)
				if err != nil {
					return err
				}
				if !changed {
					return ErrAlreadyApplied
				}

			case MarkQuoteDepositPaid:
				changed, err := e.quotes.MarkDepositPaid(ctx, tx, c.QuoteID, now)
				if err != nil {
					return err
				}
				if !changed {
					return ErrAlreadyApplied
				}

			case CreateJobFromQuote:
				inserted, err := e.jobs.InsertForQuote(ctx, tx, &c.Job)
				if err != nil {
					return err
				}
				if !inserted {
					skipped[c.Job.ID] = true
					e.log.Info("job already exists for quote, skipping creation",
						zap.Int64("quote_id", int64(*c.Job.QuoteID)))
				}

			case CopyLineItems:
				if skipped[c.DstID] {
					continue
				}
				if _, err := e.items.CopyAll(ctx, tx, c.SrcKind, c.SrcID, c.DstKind, c.DstID, e.genID, now); err != nil {
					return err
				}

			case MarkJobInvoiced:
				changed, err := e.jobs.MarkInvoiced(ctx, tx, c.JobID, c.Total, now)
				if err != nil {
					return err
				}
				if !changed {
					return ErrAlreadyApplied
				}

			case CreateInvoice:
				if err := e.invoices.Insert(ctx, tx, &c.Invoice); err != nil {
					return err
				}

			case MarkInvoicePaid:
				changed, err := e.invoices.MarkPaid(ctx, tx, c.InvoiceID, now)
				if err != nil {
					return err
				}
				if !changed {
					return ErrAlreadyApplied
				}

			case MarkInvoicePastDue:
				if _, err := e.invoices.MarkPastDue(ctx, tx, c.InvoiceID, now); err != nil {
					return err
				}

			case SendReceiptEmail:
				emails = append(emails, c)

			default:
				return fmt.Errorf("unknown lifecycle command %T", cmd)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	for _, msg := range emails {
		go e.sendReceipt(msg)
	}
	return nil
}

func (e *Executor) sendReceipt(msg SendReceiptEmail) {
	if err := e.mailer.Send(context.Background(), []string{msg.To}, msg.Subject, msg.HTMLBody); err != nil {
		e.log.Warn("failed to send receipt email", zap.String("to", msg.To), zap.Error(err))
	}
}
