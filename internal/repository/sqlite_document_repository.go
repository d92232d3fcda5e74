package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"klens/internal/models"

	"github.com/Masterminds/squirrel"
	"go.uber.org/zap"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

type SQLiteDocumentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteDocumentRepository wraps db and creates the documents table if it
// does not exist yet.
func NewSQLiteDocumentRepository(ctx context.Context, db *sql.DB, logger *zap.Logger) (*SQLiteDocumentRepository, error) {
	r := &SQLiteDocumentRepository{
		db:     db,
		logger: logger,
	}
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteDocumentRepository) Initialize(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *SQLiteDocumentRepository) Insert(ctx context.Context, doc *models.Document) error {
	query, args, err := insertDocumentQuery(doc, squirrel.Question)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, query, args...)
	return err
}

func (r *SQLiteDocumentRepository) DeleteByPath(ctx context.Context, storedPath string) (int64, error) {
	query, args, err := deleteByPathQuery(storedPath, squirrel.Question)
	if err != nil {
		return 0, err
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (r *SQLiteDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query, args, err := getByIDQuery(id, squirrel.Question)
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

func (r *SQLiteDocumentRepository) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	query, args, err := listQuery(limit, offset, squirrel.Question)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	documents := []*models.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		documents = append(documents, doc)
	}

	return documents, rows.Err()
}

func (r *SQLiteDocumentRepository) Close() error {
	return r.db.Close()
}
