package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	jobdomain "github.com/tradecrew/tradecrew/internal/job/domain"
	"github.com/tradecrew/tradecrew/pkg/db"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() jobdomain.Repository {
	return &repo{}
}

const insertColumns = `
	id, company_id, client_id, quote_id, title, currency, status,
	scheduled_for, started_at, completed_at, cancelled_at,
	invoiced_at, invoiced_total, metadata, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, conn *gorm.DB, job *jobdomain.Job) error {
	return conn.WithContext(ctx).Exec(
		`INSERT INTO jobs (`+insertColumns+`
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.CompanyID,
		job.ClientID,
		job.QuoteID,
		job.Title,
		job.Currency,
		job.Status,
		job.ScheduledFor,
		job.StartedAt,
		job.CompletedAt,
		job.CancelledAt,
		job.InvoicedAt,
		job.InvoicedTotal,
		job.Metadata,
		job.CreatedAt,
		job.UpdatedAt,
	).Error
}

func (r *repo) InsertForQuote(ctx context.Context, conn *gorm.DB, job *jobdomain.Job) (bool, error) {
	if job.QuoteID == nil {
		return false, jobdomain.ErrInvalidTransition
	}

	result := conn.WithContext(ctx).Exec(
		`INSERT INTO jobs (`+insertColumns+`)
		 SELECT ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		 WHERE NOT EXISTS (SELECT 1 FROM jobs WHERE quote_id = ?)`,
		job.ID,
		job.CompanyID,
		job.ClientID,
		job.QuoteID,
		job.Title,
		job.Currency,
		job.Status,
		job.ScheduledFor,
		job.StartedAt,
		job.CompletedAt,
		job.CancelledAt,
		job.InvoicedAt,
		job.InvoicedTotal,
		job.Metadata,
		job.CreatedAt,
		job.UpdatedAt,
		*job.QuoteID,
	)
	if result.Error != nil {
		// Two concurrent deliveries can both pass the NOT EXISTS check; the
		// unique index on quote_id decides the loser.
		if db.IsDuplicateKeyErr(result.Error) {
			return false, nil
		}
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, conn *gorm.DB, id snowflake.ID) (*jobdomain.Job, error) {
	var job jobdomain.Job
	if err := conn.WithContext(ctx).Raw(
		`SELECT * FROM jobs WHERE id = ?`,
		id,
	).Scan(&job).Error; err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, jobdomain.ErrNotFound
	}
	return &job, nil
}

func (r *repo) FindByQuoteID(ctx context.Context, conn *gorm.DB, quoteID snowflake.ID) (*jobdomain.Job, error) {
	var job jobdomain.Job
	if err := conn.WithContext(ctx).Raw(
		`SELECT * FROM jobs WHERE quote_id = ?`,
		quoteID,
	).Scan(&job).Error; err != nil {
		return nil, err
	}
	if job.ID == 0 {
		return nil, jobdomain.ErrNotFound
	}
	return &job, nil
}

func (r *repo) MarkInProgress(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET status = ?, started_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		jobdomain.StatusInProgress,
		now,
		now,
		id,
		jobdomain.StatusScheduled,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkCompleted(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET status = ?, completed_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		jobdomain.StatusCompleted,
		now,
		now,
		id,
		jobdomain.StatusInProgress,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkCancelled(ctx context.Context, conn *gorm.DB, id snowflake.ID, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET status = ?, cancelled_at = ?, updated_at = ?
		 WHERE id = ? AND status IN (?, ?)`,
		jobdomain.StatusCancelled,
		now,
		now,
		id,
		jobdomain.StatusScheduled,
		jobdomain.StatusInProgress,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) MarkInvoiced(ctx context.Context, conn *gorm.DB, id snowflake.ID, total int64, now time.Time) (bool, error) {
	result := conn.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET invoiced_at = ?, invoiced_total = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND invoiced_at IS NULL`,
		now,
		total,
		now,
		id,
		jobdomain.StatusCompleted,
	)
	return result.RowsAffected > 0, result.Error
}

func (r *repo) Delete(ctx context.Context, conn *gorm.DB, id snowflake.ID) error {
	return conn.WithContext(ctx).Exec(
		`DELETE FROM jobs WHERE id = ?`,
		id,
	).Error
}
