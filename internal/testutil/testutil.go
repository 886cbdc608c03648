// Package testutil holds shared helpers for service-level tests: an
// in-memory sqlite database with the full schema, deterministic ID
// generation and webhook signature construction.
package testutil

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func SetupDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE companies (
			id BIGINT PRIMARY KEY,
			name TEXT NOT NULL,
			tier TEXT NOT NULL DEFAULT 'free',
			subscription_status TEXT NOT NULL DEFAULT 'canceled',
			billing_customer_id TEXT,
			billing_subscription_id TEXT,
			current_period_end TIMESTAMPTZ,
			cancel_at_period_end BOOLEAN NOT NULL DEFAULT FALSE,
			trial_end TIMESTAMPTZ,
			monthly_usage_count BIGINT NOT NULL DEFAULT 0,
			usage_reset_at TIMESTAMPTZ,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE quotes (
			id BIGINT PRIMARY KEY,
			company_id BIGINT NOT NULL,
			client_id BIGINT,
			title TEXT,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'draft',
			deposit_paid BOOLEAN NOT NULL DEFAULT FALSE,
			discount_kind TEXT NOT NULL DEFAULT 'percentage',
			discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			tax_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			deposit_amount BIGINT NOT NULL DEFAULT 0,
			share_token TEXT,
			expires_at TIMESTAMPTZ,
			sent_at TIMESTAMPTZ,
			accepted_at TIMESTAMPTZ,
			declined_at TIMESTAMPTZ,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_quotes_share_token ON quotes(share_token)`,
		`CREATE TABLE jobs (
			id BIGINT PRIMARY KEY,
			company_id BIGINT NOT NULL,
			client_id BIGINT,
			quote_id BIGINT,
			title TEXT,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'scheduled',
			scheduled_for TIMESTAMPTZ,
			started_at TIMESTAMPTZ,
			completed_at TIMESTAMPTZ,
			cancelled_at TIMESTAMPTZ,
			invoiced_at TIMESTAMPTZ,
			invoiced_total BIGINT,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_jobs_quote_id ON jobs(quote_id)`,
		`CREATE TABLE invoices (
			id BIGINT PRIMARY KEY,
			company_id BIGINT NOT NULL,
			client_id BIGINT,
			job_id BIGINT,
			quote_id BIGINT,
			title TEXT,
			currency TEXT NOT NULL DEFAULT 'USD',
			status TEXT NOT NULL DEFAULT 'draft',
			discount_kind TEXT NOT NULL DEFAULT 'percentage',
			discount_value DOUBLE PRECISION NOT NULL DEFAULT 0,
			tax_rate DOUBLE PRECISION NOT NULL DEFAULT 0,
			deposit_paid_amount BIGINT NOT NULL DEFAULT 0,
			provider_invoice_id TEXT,
			share_token TEXT,
			due_at TIMESTAMPTZ,
			sent_at TIMESTAMPTZ,
			paid_at TIMESTAMPTZ,
			metadata JSONB,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_invoices_provider_invoice_id ON invoices(provider_invoice_id)`,
		`CREATE UNIQUE INDEX ux_invoices_share_token ON invoices(share_token)`,
		`CREATE TABLE quote_line_items (
			id BIGINT PRIMARY KEY,
			document_id BIGINT NOT NULL,
			title TEXT,
			description TEXT NOT NULL DEFAULT '',
			quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
			unit_amount BIGINT NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE job_line_items (
			id BIGINT PRIMARY KEY,
			document_id BIGINT NOT NULL,
			title TEXT,
			description TEXT NOT NULL DEFAULT '',
			quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
			unit_amount BIGINT NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
		`CREATE TABLE invoice_line_items (
			id BIGINT PRIMARY KEY,
			document_id BIGINT NOT NULL,
			title TEXT,
			description TEXT NOT NULL DEFAULT '',
			quantity DOUBLE PRECISION NOT NULL DEFAULT 1,
			unit_amount BIGINT NOT NULL DEFAULT 0,
			position INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func NewNode(t *testing.T) *snowflake.Node {
	t.Helper()

	node, err := snowflake.NewNode(10)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

// SignatureHeader builds a valid delivery signature for the given payload,
// matching the provider's "t=<unix>,v1=<hex hmac>" format.
func SignatureHeader(secret string, payload []byte, timestamp int64) string {
	signedPayload := fmt.Sprintf("%d.%s", timestamp, string(payload))
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = mac.Write([]byte(signedPayload))
	return fmt.Sprintf("t=%d,v1=%s", timestamp, hex.EncodeToString(mac.Sum(nil)))
}
