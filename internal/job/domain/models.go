// Package domain contains persistence models for jobs.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Status represents job lifecycle states.
type Status string

const (
	StatusScheduled  Status = "scheduled"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var (
	ErrNotFound          = errors.New("job_not_found")
	ErrInvalidTransition = errors.New("invalid_job_transition")
	ErrNotCompleted      = errors.New("job_not_completed")
	ErrFrozen            = errors.New("job_invoiced_items_frozen")
)

// Job is a scheduled unit of work, optionally derived from a quote. Its line
// items are an independent snapshot, never a live reference to the quote's.
type Job struct {
	ID        snowflake.ID  `json:"id" gorm:"primaryKey"`
	CompanyID snowflake.ID  `json:"company_id" gorm:"not null;index"`
	ClientID  *snowflake.ID `json:"client_id" gorm:"index"`

	// QuoteID links back to the originating quote. The unique index is the
	// storage-level guard that one quote spawns at most one job.
	QuoteID *snowflake.ID `json:"quote_id" gorm:"uniqueIndex"`

	Title    string `json:"title" gorm:"type:text"`
	Currency string `json:"currency" gorm:"type:text;not null;default:'USD'"`
	Status   Status `json:"status" gorm:"type:text;not null;default:'scheduled'"`

	ScheduledFor *time.Time `json:"scheduled_for"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`

	// InvoicedAt/InvoicedTotal freeze the estimate once an invoice has been
	// generated: item edits are rejected after this point.
	InvoicedAt    *time.Time `json:"invoiced_at"`
	InvoicedTotal *int64     `json:"invoiced_total"`

	Metadata  datatypes.JSONMap `json:"metadata" gorm:"type:jsonb"`
	CreatedAt time.Time         `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time         `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "jobs" }

// Terminal reports whether the status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Frozen reports whether the job's items are immutable.
func (j Job) Frozen() bool { return j.InvoicedAt != nil }
