package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pocketledger/backend/internal/models"
	"github.com/rs/zerolog"
)

// CategoryService manages the global category catalogue.
type CategoryService struct {
	db     *sql.DB
	audit  AuditRecorder
	logger zerolog.Logger
}

func NewCategoryService(db *sql.DB, audit AuditRecorder, logger zerolog.Logger) *CategoryService {
	return &CategoryService{db: db, audit: audit, logger: logger}
}

func (s *CategoryService) Exists(ctx context.Context, categoryID int64) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM categories WHERE id = $1)`, categoryID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check category %d: %w", categoryID, err)
	}
	return exists, nil
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at, updated_at FROM categories ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []models.Category{}
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (s *CategoryService) Create(ctx context.Context, userID int64, name string) (*models.Category, error) {
	c := models.Category{Name: name}
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO categories (name) VALUES ($1) RETURNING id, created_at, updated_at`, name,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, &ConflictError{Message: "category already exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.audit.Record(ctx, userID, "create", "category", map[string]any{"category_id": c.ID})
	return &c, nil
}

func (s *CategoryService) Update(ctx context.Context, userID, categoryID int64, name string) (*models.Category, error) {
	c := models.Category{ID: categoryID, Name: name}
	err := s.db.QueryRowContext(ctx,
		`UPDATE categories SET name = $1, updated_at = NOW() WHERE id = $2 RETURNING created_at, updated_at`,
		name, categoryID,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "category"}
	}
	if isUniqueViolation(err) {
		return nil, &ConflictError{Message: "category already exists"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update category %d: %w", categoryID, err)
	}

	s.audit.Record(ctx, userID, "update", "category", map[string]any{"category_id": c.ID})
	return &c, nil
}

func (s *CategoryService) Delete(ctx context.Context, userID, categoryID int64) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM categories WHERE id = $1`, categoryID)
	if err != nil {
		return fmt.Errorf("failed to delete category %d: %w", categoryID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{Resource: "category"}
	}

	s.audit.Record(ctx, userID, "delete", "category", map[string]any{"category_id": categoryID})
	return nil
}

// Seed inserts any missing default category and reports how many were added.
func (s *CategoryService) Seed(ctx context.Context, names []string) (int64, error) {
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO categories (name)
		SELECT unnest($1::text[])
		ON CONFLICT (name) DO NOTHING`, pq.Array(names))
	if err != nil {
		return 0, fmt.Errorf("failed to seed categories: %w", err)
	}
	added, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	s.logger.Info().Str("event", "categories_seeded").Int64("added", added).Msg("Default categories ensured")
	return added, nil
}

// isUniqueViolation reports a PostgreSQL unique_violation (23505).
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
