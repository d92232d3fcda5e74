package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"klens/internal/models"

	"github.com/Masterminds/squirrel"
)

var ErrDocumentNotFound = errors.New("document not found")

// DocumentStore persists document metadata. It is optional: callers hold a
// nil DocumentStore when no database is configured and must check for it.
type DocumentStore interface {
	Insert(ctx context.Context, doc *models.Document) error
	// DeleteByPath removes rows whose stored_path equals storedPath and
	// reports how many were removed. A missing row is not an error.
	DeleteByPath(ctx context.Context, storedPath string) (int64, error)
	GetByID(ctx context.Context, id string) (*models.Document, error)
	List(ctx context.Context, limit, offset int) ([]*models.Document, error)
	Close() error
}

var documentColumns = []string{
	"id", "original_name", "stored_path", "size_bytes", "extension", "mime_type", "summary", "file_url",
	"title", "department", "document_type", "language", "priority", "content_summary",
	"action_items", "key_insights", "tags", "compliance_deadline", "created_at",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func insertDocumentQuery(doc *models.Document, format squirrel.PlaceholderFormat) (string, []any, error) {
	actionItems, err := encodeJSONList(doc.ActionItems)
	if err != nil {
		return "", nil, fmt.Errorf("encoding action items: %w", err)
	}
	keyInsights, err := encodeJSONList(doc.KeyInsights)
	if err != nil {
		return "", nil, fmt.Errorf("encoding key insights: %w", err)
	}
	tags, err := encodeJSONList(doc.Tags)
	if err != nil {
		return "", nil, fmt.Errorf("encoding tags: %w", err)
	}

	var deadline sql.NullString
	if doc.ComplianceDeadline != nil {
		deadline = sql.NullString{String: *doc.ComplianceDeadline, Valid: true}
	}

	return squirrel.Insert("documents").
		Columns(documentColumns...).
		Values(
			doc.ID, doc.OriginalName, doc.StoredPath, doc.SizeBytes, doc.Extension, doc.MimeType, doc.Summary, doc.FileURL,
			doc.Title, string(doc.Department), string(doc.DocumentType), string(doc.Language), string(doc.Priority),
			doc.ContentSummary, actionItems, keyInsights, tags, deadline, doc.CreatedAt,
		).
		PlaceholderFormat(format).
		ToSql()
}

func deleteByPathQuery(storedPath string, format squirrel.PlaceholderFormat) (string, []any, error) {
	return squirrel.Delete("documents").
		Where(squirrel.Eq{"stored_path": storedPath}).
		PlaceholderFormat(format).
		ToSql()
}

func getByIDQuery(id string, format squirrel.PlaceholderFormat) (string, []any, error) {
	return squirrel.Select(documentColumns...).
		From("documents").
		Where(squirrel.Eq{"id": id}).
		PlaceholderFormat(format).
		ToSql()
}

func listQuery(limit, offset int, format squirrel.PlaceholderFormat) (string, []any, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return squirrel.Select(documentColumns...).
		From("documents").
		OrderBy("created_at DESC", "id").
		Limit(uint64(limit)).
		Offset(uint64(offset)).
		PlaceholderFormat(format).
		ToSql()
}

func scanDocument(row rowScanner) (*models.Document, error) {
	var (
		doc                             models.Document
		department, docType, lang, prio string
		actionItems, keyInsights, tags  string
		deadline                        sql.NullString
	)
	if err := row.Scan(
		&doc.ID, &doc.OriginalName, &doc.StoredPath, &doc.SizeBytes, &doc.Extension, &doc.MimeType, &doc.Summary, &doc.FileURL,
		&doc.Title, &department, &docType, &lang, &prio, &doc.ContentSummary,
		&actionItems, &keyInsights, &tags, &deadline, &doc.CreatedAt,
	); err != nil {
		return nil, err
	}

	doc.Department = models.Department(department)
	doc.DocumentType = models.DocumentType(docType)
	doc.Language = models.Language(lang)
	doc.Priority = models.Priority(prio)
	if deadline.Valid {
		doc.ComplianceDeadline = &deadline.String
	}

	doc.ActionItems = []models.ActionItem{}
	doc.KeyInsights = []string{}
	doc.Tags = []string{}
	if err := json.Unmarshal([]byte(actionItems), &doc.ActionItems); err != nil {
		return nil, fmt.Errorf("decoding action items of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(keyInsights), &doc.KeyInsights); err != nil {
		return nil, fmt.Errorf("decoding key insights of %s: %w", doc.ID, err)
	}
	if err := json.Unmarshal([]byte(tags), &doc.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags of %s: %w", doc.ID, err)
	}

	return &doc, nil
}

// encodeJSONList stores nil slices as "[]" so rows never hold JSON null.
func encodeJSONList[T any](values []T) (string, error) {
	if values == nil {
		values = []T{}
	}
	data, err := json.Marshal(values)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
