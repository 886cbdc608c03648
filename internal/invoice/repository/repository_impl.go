package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	invoicedomain "github.com/tradecrew/tradecrew/internal/invoice/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() invoicedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO invoices (
			id, company_id, client_id, job_id, quote_id, title, currency, status,
			discount_kind, discount_value, tax_rate, deposit_paid_amount,
			provider_invoice_id, share_token, due_at, sent_at, paid_at,
			metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		invoice.ID,
		invoice.CompanyID,
		invoice.ClientID,
		invoice.JobID,
		invoice.QuoteID,
		invoice.Title,
		invoice.Currency,
		invoice.Status,
		invoice.DiscountKind,
		invoice.DiscountValue,
		invoice.TaxRate,
		invoice.DepositPaidAmount,
		invoice.ProviderInvoiceID,
		invoice.ShareToken,
		invoice.DueAt,
		invoice.SentAt,
		invoice.PaidAt,
		invoice.Metadata,
		invoice.CreatedAt,
		invoice.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*invoicedomain.Invoice, error) {
	var invoice invoicedomain.Invoice
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE id = ?`,
		id,
	).Scan(&invoice).Error; err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, invoicedomain.ErrNotFound
	}
	return &invoice, nil
}

func (r *repo) FindByProviderInvoiceID(ctx context.Context, db *gorm.DB, providerInvoiceID string) (*invoicedomain.Invoice, error) {
	providerInvoiceID = strings.TrimSpace(providerInvoiceID)
	if providerInvoiceID == "" {
		return nil, invoicedomain.ErrNotFound
	}

	var invoice invoicedomain.Invoice
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE provider_invoice_id = ?`,
		providerInvoiceID,
	).Scan(&invoice).Error; err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, invoicedomain.ErrNotFound
	}
	return &invoice, nil
}

func (r *repo) FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*invoicedomain.Invoice, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, invoicedomain.ErrNotFound
	}

	var invoice invoicedomain.Invoice
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM invoices WHERE share_token = ?`,
		token,
	).Scan(&invoice).Error; err != nil {
		return nil, err
	}
	if invoice.ID == 0 {
		return nil, invoicedomain.ErrNotFound
	}
	return &invoice, nil
}

func (r *repo) UpdateDetails(ctx context.Context, db *gorm.DB, invoice *invoicedomain.Invoice, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET title = ?, client_id = ?, currency = ?, discount_kind = ?, discount_value = ?,
		     tax_rate = ?, deposit_paid_amount = ?, due_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		invoice.Title,
		invoice.ClientID,
		invoice.Currency,
		invoice.DiscountKind,
		invoice.DiscountValue,
		invoice.TaxRate,
		invoice.DepositPaidAmount,
		invoice.DueAt,
		invoice.Metadata,
		now,
		invoice.ID,
	).Error
}

func (r *repo) MarkAwaitingPayment(ctx context.Context, db *gorm.DB, id snowflake.ID, shareToken string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, sent_at = ?, share_token = COALESCE(share_token, ?), updated_at = ?
		 WHERE id = ? AND status = ?`,
		invoicedomain.StatusAwaitingPayment,
		now,
		shareToken,
		now,
		id,
		invoicedomain.StatusDraft,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, paid_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		invoicedomain.StatusPaid,
		now,
		now,
		id,
		invoicedomain.StatusAwaitingPayment,
		invoicedomain.StatusPastDue,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkPastDue(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		invoicedomain.StatusPastDue,
		now,
		id,
		invoicedomain.StatusAwaitingPayment,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkCancelled(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET status = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?, ?)`,
		invoicedomain.StatusCancelled,
		now,
		id,
		invoicedomain.StatusDraft,
		invoicedomain.StatusAwaitingPayment,
		invoicedomain.StatusPastDue,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) SetProviderInvoiceID(ctx context.Context, db *gorm.DB, id snowflake.ID, providerInvoiceID string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE invoices
		 SET provider_invoice_id = ?, updated_at = ?
		 WHERE id = ? AND status != ?`,
		providerInvoiceID,
		now,
		id,
		invoicedomain.StatusPaid,
	)
	return result.RowsAffected > 0, result.Error
}
