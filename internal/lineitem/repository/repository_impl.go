package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	lineitemdomain "github.com/tradecrew/tradecrew/internal/lineitem/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() lineitemdomain.Repository {
	return &repo{}
}

func (r *repo) ListByDocument(ctx context.Context, db *gorm.DB, kind lineitemdomain.DocumentKind, documentID snowflake.ID) ([]lineitemdomain.LineItem, error) {
	table, ok := kind.Table()
	if !ok {
		return nil, lineitemdomain.ErrInvalidKind
	}

	var items []lineitemdomain.LineItem
	if err := db.WithContext(ctx).Raw(fmt.Sprintf(
		`SELECT id, document_id, title, description, quantity, unit_amount, position, created_at, updated_at
		 FROM %s
		 WHERE document_id = ?
		 ORDER BY position ASC`, table),
		documentID,
	).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ReplaceAll(ctx context.Context, db *gorm.DB, kind lineitemdomain.DocumentKind, documentID snowflake.ID, items []lineitemdomain.LineItem, genID *snowflake.Node, now time.Time) ([]lineitemdomain.LineItem, error) {
	table, ok := kind.Table()
	if !ok {
		return nil, lineitemdomain.ErrInvalidKind
	}

	if err := db.WithContext(ctx).Exec(fmt.Sprintf(
		`DELETE FROM %s WHERE document_id = ?`, table),
		documentID,
	).Error; err != nil {
		return nil, err
	}

	out := make([]lineitemdomain.LineItem, 0, len(items))
	for position, item := range items {
		item.Normalize()
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.ID = genID.Generate()
		item.DocumentID = documentID
		item.Position = position
		item.CreatedAt = now
		item.UpdatedAt = now
		if err := r.insert(ctx, db, table, item); err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func (r *repo) CopyAll(ctx context.Context, db *gorm.DB, srcKind lineitemdomain.DocumentKind, srcID snowflake.ID, dstKind lineitemdomain.DocumentKind, dstID snowflake.ID, genID *snowflake.Node, now time.Time) (int, error) {
	dstTable, ok := dstKind.Table()
	if !ok {
		return 0, lineitemdomain.ErrInvalidKind
	}

	items, err := r.ListByDocument(ctx, db, srcKind, srcID)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		copied := item
		copied.ID = genID.Generate()
		copied.DocumentID = dstID
		copied.CreatedAt = now
		copied.UpdatedAt = now
		if err := r.insert(ctx, db, dstTable, copied); err != nil {
			return 0, err
		}
	}
	return len(items), nil
}

func (r *repo) DeleteByDocument(ctx context.Context, db *gorm.DB, kind lineitemdomain.DocumentKind, documentID snowflake.ID) error {
	table, ok := kind.Table()
	if !ok {
		return lineitemdomain.ErrInvalidKind
	}
	return db.WithContext(ctx).Exec(fmt.Sprintf(
		`DELETE FROM %s WHERE document_id = ?`, table),
		documentID,
	).Error
}

func (r *repo) insert(ctx context.Context, db *gorm.DB, table string, item lineitemdomain.LineItem) error {
	return db.WithContext(ctx).Exec(fmt.Sprintf(
		`INSERT INTO %s (
			id, document_id, title, description, quantity, unit_amount, position, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`, table),
		item.ID,
		item.DocumentID,
		item.Title,
		item.Description,
		item.Quantity,
		item.UnitAmount,
		item.Position,
		item.CreatedAt,
		item.UpdatedAt,
	).Error
}
