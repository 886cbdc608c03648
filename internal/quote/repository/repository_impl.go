package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	quotedomain "github.com/tradecrew/tradecrew/internal/quote/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() quotedomain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, quote *quotedomain.Quote) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO quotes (
			id, company_id, client_id, title, currency, status, deposit_paid,
			discount_kind, discount_value, tax_rate, deposit_amount, share_token,
			expires_at, sent_at, accepted_at, declined_at, metadata, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		quote.ID,
		quote.CompanyID,
		quote.ClientID,
		quote.Title,
		quote.Currency,
		quote.Status,
		quote.DepositPaid,
		quote.DiscountKind,
		quote.DiscountValue,
		quote.TaxRate,
		quote.DepositAmount,
		quote.ShareToken,
		quote.ExpiresAt,
		quote.SentAt,
		quote.AcceptedAt,
		quote.DeclinedAt,
		quote.Metadata,
		quote.CreatedAt,
		quote.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*quotedomain.Quote, error) {
	var quote quotedomain.Quote
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM quotes WHERE id = ?`,
		id,
	).Scan(&quote).Error; err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, quotedomain.ErrNotFound
	}
	return &quote, nil
}

func (r *repo) FindByShareToken(ctx context.Context, db *gorm.DB, token string) (*quotedomain.Quote, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, quotedomain.ErrNotFound
	}

	var quote quotedomain.Quote
	if err := db.WithContext(ctx).Raw(
		`SELECT * FROM quotes WHERE share_token = ?`,
		token,
	).Scan(&quote).Error; err != nil {
		return nil, err
	}
	if quote.ID == 0 {
		return nil, quotedomain.ErrNotFound
	}
	return &quote, nil
}

func (r *repo) UpdateDetails(ctx context.Context, db *gorm.DB, quote *quotedomain.Quote, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET title = ?, client_id = ?, currency = ?, discount_kind = ?, discount_value = ?,
		     tax_rate = ?, deposit_amount = ?, expires_at = ?, metadata = ?, updated_at = ?
		 WHERE id = ?`,
		quote.Title,
		quote.ClientID,
		quote.Currency,
		quote.DiscountKind,
		quote.DiscountValue,
		quote.TaxRate,
		quote.DepositAmount,
		quote.ExpiresAt,
		quote.Metadata,
		now,
		quote.ID,
	).Error
}

func (r *repo) MarkSent(ctx context.Context, db *gorm.DB, id snowflake.ID, shareToken string, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET status = ?, sent_at = ?, share_token = COALESCE(share_token, ?), updated_at = ?
		 WHERE id = ? AND status = ?`,
		quotedomain.StatusSent,
		now,
		shareToken,
		now,
		id,
		quotedomain.StatusDraft,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkAccepted(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET status = ?, accepted_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)
		   AND (expires_at IS NULL OR expires_at > ?)`,
		quotedomain.StatusAccepted,
		now,
		now,
		id,
		quotedomain.StatusDraft,
		quotedomain.StatusSent,
		now,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkDeclined(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET status = ?, declined_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		quotedomain.StatusDeclined,
		now,
		now,
		id,
		quotedomain.StatusDraft,
		quotedomain.StatusSent,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkDepositPaid(ctx context.Context, db *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE quotes
		 SET deposit_paid = ?, updated_at = ?
		 WHERE id = ? AND deposit_paid = ?`,
		true,
		now,
		id,
		false,
	)
	return result.RowsAffected > 0, result.Error
}
