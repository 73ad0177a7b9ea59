package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/pocketledger/backend/internal/models"
)

const userColumns = `id, name, phone, telegram_id, email, created_at, updated_at`

type UserService struct {
	db     *sql.DB
	hasher *PasswordHasher
	audit  AuditRecorder
}

func NewUserService(db *sql.DB, hasher *PasswordHasher, audit AuditRecorder) *UserService {
	return &UserService{db: db, hasher: hasher, audit: audit}
}

func scanUser(row rowScanner, extra ...any) (models.User, error) {
	var (
		u          models.User
		telegramID sql.NullString
	)
	dest := append([]any{&u.ID, &u.Name, &u.Phone, &telegramID, &u.Email, &u.CreatedAt, &u.UpdatedAt}, extra...)
	if err := row.Scan(dest...); err != nil {
		return u, err
	}
	if telegramID.Valid {
		u.TelegramID = &telegramID.String
	}
	return u, nil
}

// Register creates an account; phone and email must both be unused.
func (s *UserService) Register(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	hashedPassword, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := models.User{
		Name:       req.Name,
		Phone:      req.Phone,
		TelegramID: req.TelegramID,
		Email:      strings.ToLower(req.Email),
	}
	err = s.db.QueryRowContext(ctx, `
		INSERT INTO users (name, phone, telegram_id, email, password)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at`,
		u.Name, u.Phone, u.TelegramID, u.Email, hashedPassword,
	).Scan(&u.ID, &u.CreatedAt, &u.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, &ConflictError{Message: "phone or email already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.audit.Record(ctx, u.ID, "create", "user", map[string]any{"user_id": u.ID})
	return &u, nil
}

func (s *UserService) Get(ctx context.Context, userID int64) (*models.User, error) {
	u, err := scanUser(s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %d: %w", userID, err)
	}
	return &u, nil
}

// credentialsByPhone returns the user and stored password hash for login.
func (s *UserService) credentialsByPhone(ctx context.Context, phone string) (*models.User, string, error) {
	var hashedPassword string
	u, err := scanUser(s.db.QueryRowContext(ctx,
		`SELECT `+userColumns+`, password FROM users WHERE phone = $1`, phone), &hashedPassword)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, "", &NotFoundError{Resource: "user"}
	}
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch user by phone: %w", err)
	}
	return &u, hashedPassword, nil
}

func (s *UserService) Update(ctx context.Context, userID int64, req models.UserUpdateRequest) (*models.User, error) {
	u, err := s.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		u.Name = *req.Name
	}
	if req.TelegramID != nil {
		u.TelegramID = req.TelegramID
	}
	if req.Email != nil {
		u.Email = strings.ToLower(*req.Email)
	}

	var hashedPassword *string
	if req.Password != nil {
		hashed, err := s.hasher.Hash(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		hashedPassword = &hashed
	}

	err = s.db.QueryRowContext(ctx, `
		UPDATE users
		SET name = $1, telegram_id = $2, email = $3, password = COALESCE($4, password), updated_at = NOW()
		WHERE id = $5
		RETURNING updated_at`,
		u.Name, u.TelegramID, u.Email, hashedPassword, userID,
	).Scan(&u.UpdatedAt)
	if isUniqueViolation(err) {
		return nil, &ConflictError{Message: "email already registered"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update user %d: %w", userID, err)
	}

	s.audit.Record(ctx, userID, "update", "user", map[string]any{"user_id": userID})
	return u, nil
}

// Delete removes the user together with cards, ledger rows and attachments.
func (s *UserService) Delete(ctx context.Context, userID int64) error {
	if _, err := s.Get(ctx, userID); err != nil {
		return err
	}

	// Recorded first so the audit row's user_id still resolves; the delete then nulls it.
	s.audit.Record(ctx, userID, "delete", "user", map[string]any{"user_id": userID})

	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete user %d: %w", userID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return &NotFoundError{Resource: "user"}
	}
	return nil
}
