package repository

import (
	"context"
	_ "embed"
	"errors"
	"fmt"

	"klens/internal/models"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

//go:embed schema_postgres.sql
var postgresSchema string

type PostgresDocumentRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgresDocumentRepository(ctx context.Context, db *pgxpool.Pool, logger *zap.Logger) (*PostgresDocumentRepository, error) {
	r := &PostgresDocumentRepository{
		db:     db,
		logger: logger,
	}
	if err := r.Initialize(ctx); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *PostgresDocumentRepository) Initialize(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

func (r *PostgresDocumentRepository) Insert(ctx context.Context, doc *models.Document) error {
	query, args, err := insertDocumentQuery(doc, squirrel.Dollar)
	if err != nil {
		return err
	}

	_, err = r.db.Exec(ctx, query, args...)
	return err
}

func (r *PostgresDocumentRepository) DeleteByPath(ctx context.Context, storedPath string) (int64, error) {
	query, args, err := deleteByPathQuery(storedPath, squirrel.Dollar)
	if err != nil {
		return 0, err
	}

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func (r *PostgresDocumentRepository) GetByID(ctx context.Context, id string) (*models.Document, error) {
	query, args, err := getByIDQuery(id, squirrel.Dollar)
	if err != nil {
		return nil, err
	}

	doc, err := scanDocument(r.db.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	return doc, err
}

func (r *PostgresDocumentRepository) List(ctx context.Context, limit, offset int) ([]*models.Document, error) {
	query, args, err := listQuery(limit, offset, squirrel.Dollar)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.Query(ctx, query, args...)
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

func (r *PostgresDocumentRepository) Close() error {
	r.db.Close()
	return nil
}
