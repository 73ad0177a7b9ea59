package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/models"
	"github.com/rs/zerolog"
)

const (
	DefaultAttachmentLimit = 50
	MaxAttachmentLimit     = 200
)

const attachmentColumns = `id, user_id, transaction_id, transfer_id, filename, content_type, size_bytes, storage_path, created_at`

// FileUpload is a client file as received by the transport layer.
type FileUpload struct {
	Filename    string
	ContentType string
	Content     io.Reader
}

// AttachmentService stores receipt files on local disk and their metadata in the
// attachments table. A file is written before the ledger rows it documents; if the
// ledger write fails the file is removed again.
type AttachmentService struct {
	db           *sql.DB
	transactions *TransactionService
	transfers    *TransferService
	cfg          config.UploadConfig
	audit        AuditRecorder
	logger       zerolog.Logger
}

func NewAttachmentService(db *sql.DB, transactions *TransactionService, transfers *TransferService,
	cfg config.UploadConfig, audit AuditRecorder, logger zerolog.Logger) *AttachmentService {
	return &AttachmentService{
		db:           db,
		transactions: transactions,
		transfers:    transfers,
		cfg:          cfg,
		audit:        audit,
		logger:       logger,
	}
}

// MaxUploadBytes is the largest accepted file.
func (s *AttachmentService) MaxUploadBytes() int64 {
	return s.cfg.MaxBytes()
}

func scanAttachment(row rowScanner) (models.Attachment, error) {
	var (
		a             models.Attachment
		transactionID sql.NullInt64
		transferID    sql.NullInt64
	)
	err := row.Scan(&a.ID, &a.UserID, &transactionID, &transferID, &a.Filename, &a.ContentType,
		&a.SizeBytes, &a.StoragePath, &a.CreatedAt)
	if transactionID.Valid {
		a.TransactionID = &transactionID.Int64
	}
	if transferID.Valid {
		a.TransferID = &transferID.Int64
	}
	return a, err
}

// CreateTransactionWithAttachment stores file and creates the transaction it belongs to.
func (s *AttachmentService) CreateTransactionWithAttachment(ctx context.Context, userID int64,
	req models.TransactionCreateRequest, file FileUpload) (*models.TransactionUpload, error) {
	content, contentType, err := s.accept(file)
	if err != nil {
		return nil, err
	}
	storagePath, err := s.store(file.Filename, content)
	if err != nil {
		return nil, err
	}

	tx, err := s.transactions.Create(ctx, userID, req)
	if err != nil {
		s.discard(storagePath)
		return nil, err
	}

	att := models.Attachment{
		UserID:        userID,
		TransactionID: &tx.ID,
		Filename:      file.Filename,
		ContentType:   contentType,
		SizeBytes:     int64(len(content)),
		StoragePath:   storagePath,
	}
	if err := s.insert(ctx, &att); err != nil {
		s.discard(storagePath)
		return nil, err
	}

	return &models.TransactionUpload{
		TransactionID: tx.ID,
		AttachmentID:  att.ID,
		Filename:      att.Filename,
		StoredAs:      s.absolute(storagePath),
	}, nil
}

// CreateTransferWithAttachment stores file and creates the transfer it belongs to.
func (s *AttachmentService) CreateTransferWithAttachment(ctx context.Context, userID int64,
	req models.TransferRequest, file FileUpload) (*models.TransferUpload, error) {
	content, contentType, err := s.accept(file)
	if err != nil {
		return nil, err
	}
	storagePath, err := s.store(file.Filename, content)
	if err != nil {
		return nil, err
	}

	pair, err := s.transfers.CreateTransfer(ctx, userID, req)
	if err != nil {
		s.discard(storagePath)
		return nil, err
	}

	transferID := pair.TransferID()
	att := models.Attachment{
		UserID:      userID,
		TransferID:  &transferID,
		Filename:    file.Filename,
		ContentType: contentType,
		SizeBytes:   int64(len(content)),
		StoragePath: storagePath,
	}
	if err := s.insert(ctx, &att); err != nil {
		s.discard(storagePath)
		return nil, err
	}

	return &models.TransferUpload{
		TransferID:               transferID,
		SourceTransactionID:      pair.Source.ID,
		DestinationTransactionID: pair.Destination.ID,
		AttachmentID:             att.ID,
		Filename:                 att.Filename,
		StoredAs:                 s.absolute(storagePath),
	}, nil
}

func (s *AttachmentService) ListByTransaction(ctx context.Context, userID, transactionID int64) ([]models.Attachment, error) {
	return s.query(ctx, `SELECT `+attachmentColumns+` FROM attachments
		WHERE user_id = $1 AND transaction_id = $2 ORDER BY id`, userID, transactionID)
}

func (s *AttachmentService) ListByTransfer(ctx context.Context, userID, transferID int64) ([]models.Attachment, error) {
	return s.query(ctx, `SELECT `+attachmentColumns+` FROM attachments
		WHERE user_id = $1 AND transfer_id = $2 ORDER BY id`, userID, transferID)
}

// List pages through all of the user's attachments, newest first.
func (s *AttachmentService) List(ctx context.Context, userID int64, limit, offset int) ([]models.Attachment, error) {
	if limit < 1 || limit > MaxAttachmentLimit {
		return nil, NewValidationError("limit must be between 1 and %d", MaxAttachmentLimit)
	}
	if offset < 0 {
		return nil, NewValidationError("offset must not be negative")
	}
	return s.query(ctx, `SELECT `+attachmentColumns+` FROM attachments
		WHERE user_id = $1 ORDER BY id DESC LIMIT $2 OFFSET $3`, userID, limit, offset)
}

func (s *AttachmentService) Get(ctx context.Context, userID, attachmentID int64) (*models.Attachment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+attachmentColumns+` FROM attachments WHERE id = $1 AND user_id = $2`, attachmentID, userID)
	a, err := scanAttachment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{Resource: "attachment"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch attachment %d: %w", attachmentID, err)
	}
	return &a, nil
}

// Open returns the attachment and its file. The caller closes the file.
func (s *AttachmentService) Open(ctx context.Context, userID, attachmentID int64) (*models.Attachment, *os.File, error) {
	a, err := s.Get(ctx, userID, attachmentID)
	if err != nil {
		return nil, nil, err
	}
	f, err := os.Open(s.absolute(a.StoragePath))
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().
			Str("event", "attachment_missing").
			Int64("user_id", userID).
			Int64("attachment_id", a.ID).
			Msg("Attachment file not found in storage")
		return nil, nil, ErrFileGone
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open attachment %d: %w", a.ID, err)
	}
	return a, f, nil
}

// Delete removes the stored file and then the row. A file that cannot be removed does
// not keep the row alive.
func (s *AttachmentService) Delete(ctx context.Context, userID, attachmentID int64) error {
	a, err := s.Get(ctx, userID, attachmentID)
	if err != nil {
		return err
	}
	s.discard(a.StoragePath)

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM attachments WHERE id = $1 AND user_id = $2`, a.ID, userID); err != nil {
		return fmt.Errorf("failed to delete attachment %d: %w", a.ID, err)
	}

	s.audit.Record(ctx, userID, "delete", "attachment", map[string]any{"attachment_id": a.ID})
	return nil
}

// RemoveFiles deletes stored files; missing files are ignored.
func (s *AttachmentService) RemoveFiles(storagePaths []string) {
	for _, p := range storagePaths {
		s.discard(p)
	}
}

// deleteTransferAttachmentsTx drops the attachment rows of a transfer group and
// returns their storage paths.
func deleteTransferAttachmentsTx(ctx context.Context, q Querier, userID, transferID int64) ([]string, error) {
	rows, err := q.QueryContext(ctx,
		`DELETE FROM attachments WHERE user_id = $1 AND transfer_id = $2 RETURNING storage_path`, userID, transferID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete attachments of transfer %d: %w", transferID, err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}

// accept reads the whole file and applies the size and type policy.
func (s *AttachmentService) accept(file FileUpload) ([]byte, string, error) {
	limit := s.cfg.MaxBytes()
	content, err := io.ReadAll(io.LimitReader(file.Content, limit+1))
	if err != nil {
		return nil, "", fmt.Errorf("failed to read upload: %w", err)
	}
	if int64(len(content)) > limit {
		return nil, "", fmt.Errorf("%w: maximum is %dMB", ErrFileTooLarge, s.cfg.MaxSizeMB)
	}

	contentType := strings.ToLower(strings.TrimSpace(file.ContentType))
	if err := s.checkType(contentType, strings.ToLower(filepath.Ext(file.Filename))); err != nil {
		return nil, "", err
	}
	if contentType == "" {
		contentType = http.DetectContentType(content)
	}
	return content, contentType, nil
}

// checkType blocks listed types and extensions first. Any other image/* type or listed
// content type is accepted; otherwise the extension must be on the allow list.
func (s *AttachmentService) checkType(contentType, ext string) error {
	if slices.Contains(s.cfg.BlockedContentTypes, contentType) || slices.Contains(s.cfg.BlockedExtensions, ext) {
		return fmt.Errorf("%w: blocked", ErrUnsupportedFileType)
	}
	if strings.HasPrefix(contentType, "image/") || slices.Contains(s.cfg.AllowedContentTypes, contentType) {
		return nil
	}
	if slices.Contains(s.cfg.AllowedExtensions, ext) {
		return nil
	}
	return ErrUnsupportedFileType
}

// store writes content under a random name and returns the path relative to the upload dir.
func (s *AttachmentService) store(filename string, content []byte) (string, error) {
	if err := os.MkdirAll(s.cfg.Dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	name := strings.ReplaceAll(uuid.NewString(), "-", "") + strings.ToLower(filepath.Ext(filename))

	f, err := os.OpenFile(s.absolute(name), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if _, err := io.Copy(f, bytes.NewReader(content)); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to store upload: %w", err)
	}
	return name, nil
}

func (s *AttachmentService) discard(storagePath string) {
	if err := os.Remove(s.absolute(storagePath)); err != nil && !errors.Is(err, os.ErrNotExist) {
		s.logger.Warn().Err(err).
			Str("event", "attachment_cleanup_failed").
			Str("path", storagePath).
			Msg("Failed to remove stored file")
	}
}

func (s *AttachmentService) absolute(storagePath string) string {
	return filepath.Join(s.cfg.Dir, filepath.Base(storagePath))
}

func (s *AttachmentService) insert(ctx context.Context, a *models.Attachment) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO attachments (user_id, transaction_id, transfer_id, filename, content_type, size_bytes, storage_path)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		a.UserID, a.TransactionID, a.TransferID, a.Filename, a.ContentType, a.SizeBytes, a.StoragePath,
	).Scan(&a.ID, &a.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save attachment: %w", err)
	}

	s.logger.Info().
		Str("event", "attachment_stored").
		Int64("user_id", a.UserID).
		Int64("attachment_id", a.ID).
		Int64("size_bytes", a.SizeBytes).
		Msg("Attachment stored")
	return nil
}

func (s *AttachmentService) query(ctx context.Context, query string, args ...any) ([]models.Attachment, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}
	defer rows.Close()

	attachments := []models.Attachment{}
	for rows.Next() {
		a, err := scanAttachment(rows)
		if err != nil {
			return nil, err
		}
		attachments = append(attachments, a)
	}
	return attachments, rows.Err()
}
