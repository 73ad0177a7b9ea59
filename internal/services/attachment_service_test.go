package services

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var attachmentRowColumns = []string{
	"id", "user_id", "transaction_id", "transfer_id", "filename", "content_type", "size_bytes", "storage_path", "created_at",
}

type attachmentFixture struct {
	service *AttachmentService
	sql     sqlmock.Sqlmock
	cards   *MockCardLookup
	audit   *MockAuditRecorder
	dir     string
}

func newAttachmentFixture(t *testing.T) *attachmentFixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &attachmentFixture{
		sql:   sqlMock,
		cards: new(MockCardLookup),
		audit: new(MockAuditRecorder),
		dir:   t.TempDir(),
	}
	f.audit.On("Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).Maybe()

	categories := new(MockCategoryChecker)
	ledger := NewLedgerService(db)
	cfg := config.UploadConfig{
		Dir:                 f.dir,
		MaxSizeMB:           1,
		AllowedContentTypes: []string{"application/pdf"},
		BlockedContentTypes: []string{"image/svg+xml"},
		AllowedExtensions:   []string{".png", ".jpg", ".pdf"},
		BlockedExtensions:   []string{".svg", ".svgz"},
	}
	f.service = NewAttachmentService(db,
		NewTransactionService(db, ledger, f.cards, categories, f.audit, zerolog.Nop()),
		NewTransferService(db, ledger, f.cards, categories, f.audit, zerolog.Nop()),
		cfg, f.audit, zerolog.Nop())
	return f
}

func (f *attachmentFixture) storedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(f.dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func receipt(name, contentType, body string) FileUpload {
	return FileUpload{Filename: name, ContentType: contentType, Content: strings.NewReader(body)}
}

func TestAttachmentService_CheckType(t *testing.T) {
	f := newAttachmentFixture(t)

	cases := []struct {
		name        string
		contentType string
		ext         string
		allowed     bool
	}{
		{"pdf by content type", "application/pdf", ".bin", true},
		{"any image type", "image/heic", ".heic", true},
		{"blocked svg type", "image/svg+xml", ".png", false},
		{"blocked extension wins", "image/png", ".svg", false},
		{"allowed extension fallback", "application/octet-stream", ".jpg", true},
		{"unknown type and extension", "text/html", ".html", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := f.service.checkType(tc.contentType, tc.ext)
			if tc.allowed {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrUnsupportedFileType)
			}
		})
	}
}

func TestAttachmentService_CreateTransactionWithAttachment(t *testing.T) {
	const userID = int64(7)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expenses := money.MustParse("12.00")
	req := models.TransactionCreateRequest{CardID: 1, Description: "Farmacia", Expenses: &expenses, Executed: true}

	t.Run("stores file and links it to the new transaction", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.cards.On("GetByID", mock.Anything, int64(1), userID).Return(&models.Card{ID: 1, UserID: userID}, nil)

		f.sql.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(30, now, now))
		f.sql.ExpectQuery("INSERT INTO attachments").
			WithArgs(userID, int64(30), nil, "ticket.pdf", "application/pdf", int64(9), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(4, now))

		result, err := f.service.CreateTransactionWithAttachment(context.Background(), userID, req,
			receipt("ticket.pdf", "application/pdf", "%PDF-1.4\n"))
		require.NoError(t, err)
		assert.Equal(t, int64(30), result.TransactionID)
		assert.Equal(t, int64(4), result.AttachmentID)
		assert.Equal(t, "ticket.pdf", result.Filename)

		files := f.storedFiles(t)
		require.Len(t, files, 1)
		assert.Equal(t, ".pdf", filepath.Ext(files[0]))
		assert.Equal(t, filepath.Join(f.dir, files[0]), result.StoredAs)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("oversized file is rejected before storage", func(t *testing.T) {
		f := newAttachmentFixture(t)

		big := strings.Repeat("x", 1024*1024+1)
		_, err := f.service.CreateTransactionWithAttachment(context.Background(), userID, req,
			receipt("scan.pdf", "application/pdf", big))
		assert.ErrorIs(t, err, ErrFileTooLarge)
		assert.Empty(t, f.storedFiles(t))
	})

	t.Run("blocked type", func(t *testing.T) {
		f := newAttachmentFixture(t)

		_, err := f.service.CreateTransactionWithAttachment(context.Background(), userID, req,
			receipt("logo.svg", "image/svg+xml", "<svg/>"))
		assert.ErrorIs(t, err, ErrUnsupportedFileType)
		assert.Empty(t, f.storedFiles(t))
	})

	t.Run("file is removed when the transaction fails", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.cards.On("GetByID", mock.Anything, int64(1), userID).Return(nil, &NotFoundError{Resource: "card"})

		_, err := f.service.CreateTransactionWithAttachment(context.Background(), userID, req,
			receipt("ticket.png", "image/png", "png-bytes"))
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
		assert.Empty(t, f.storedFiles(t))
	})
}

func TestAttachmentService_CreateTransferWithAttachment(t *testing.T) {
	const userID = int64(7)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("insufficient funds leaves nothing behind", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.cards.On("GetByID", mock.Anything, mock.Anything, userID).Return(&models.Card{UserID: userID}, nil)
		f.sql.ExpectQuery(`SELECT COALESCE\(SUM\(income\), 0\)`).
			WithArgs(userID, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("5.00"))

		_, err := f.service.CreateTransferWithAttachment(context.Background(), userID, models.TransferRequest{
			SourceCardID:      1,
			DestinationCardID: 2,
			Amount:            money.MustParse("10.00"),
		}, receipt("voucher.jpg", "image/jpeg", "jpeg"))

		var funds *InsufficientFundsError
		assert.ErrorAs(t, err, &funds)
		assert.Empty(t, f.storedFiles(t))
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("links attachment to the transfer group", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.cards.On("GetByID", mock.Anything, mock.Anything, userID).Return(&models.Card{UserID: userID}, nil)
		f.sql.ExpectQuery(`SELECT COALESCE\(SUM\(income\), 0\)`).
			WithArgs(userID, int64(1)).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("50.00"))
		f.sql.ExpectBegin()
		f.sql.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(40, now, now))
		f.sql.ExpectQuery("INSERT INTO transactions").
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(41, now, now))
		f.sql.ExpectExec(`UPDATE transactions SET transfer_id = \$1`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		f.sql.ExpectCommit()
		f.sql.ExpectQuery("INSERT INTO attachments").
			WithArgs(userID, nil, int64(40), "voucher.jpg", "image/jpeg", int64(4), sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(5, now))

		result, err := f.service.CreateTransferWithAttachment(context.Background(), userID, models.TransferRequest{
			SourceCardID:      1,
			DestinationCardID: 2,
			Amount:            money.MustParse("10.00"),
		}, receipt("voucher.jpg", "image/jpeg", "jpeg"))
		require.NoError(t, err)
		assert.Equal(t, int64(40), result.TransferID)
		assert.Equal(t, int64(40), result.SourceTransactionID)
		assert.Equal(t, int64(41), result.DestinationTransactionID)
		assert.Equal(t, int64(5), result.AttachmentID)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})
}

func TestAttachmentService_OpenAndDelete(t *testing.T) {
	const userID = int64(7)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	row := func(path string) *sqlmock.Rows {
		return sqlmock.NewRows(attachmentRowColumns).
			AddRow(4, userID, 30, nil, "ticket.pdf", "application/pdf", 9, path, now)
	}

	t.Run("open returns the stored file", func(t *testing.T) {
		f := newAttachmentFixture(t)
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, "abc.pdf"), []byte("%PDF-1.4\n"), 0o644))
		f.sql.ExpectQuery(`SELECT (.+) FROM attachments WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(4), userID).
			WillReturnRows(row("abc.pdf"))

		att, file, err := f.service.Open(context.Background(), userID, 4)
		require.NoError(t, err)
		defer file.Close()

		body, err := io.ReadAll(file)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4\n", string(body))
		require.NotNil(t, att.TransactionID)
		assert.Equal(t, int64(30), *att.TransactionID)
		assert.Nil(t, att.TransferID)
	})

	t.Run("missing file is gone", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.sql.ExpectQuery(`SELECT (.+) FROM attachments`).
			WithArgs(int64(4), userID).
			WillReturnRows(row("missing.pdf"))

		_, _, err := f.service.Open(context.Background(), userID, 4)
		assert.ErrorIs(t, err, ErrFileGone)
	})

	t.Run("foreign attachment", func(t *testing.T) {
		f := newAttachmentFixture(t)
		f.sql.ExpectQuery(`SELECT (.+) FROM attachments`).
			WithArgs(int64(4), userID).
			WillReturnRows(sqlmock.NewRows(attachmentRowColumns))

		_, err := f.service.Get(context.Background(), userID, 4)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})

	t.Run("delete removes file then row", func(t *testing.T) {
		f := newAttachmentFixture(t)
		require.NoError(t, os.WriteFile(filepath.Join(f.dir, "abc.pdf"), []byte("x"), 0o644))
		f.sql.ExpectQuery(`SELECT (.+) FROM attachments`).
			WithArgs(int64(4), userID).
			WillReturnRows(row("abc.pdf"))
		f.sql.ExpectExec(`DELETE FROM attachments WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(4), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, f.service.Delete(context.Background(), userID, 4))
		assert.Empty(t, f.storedFiles(t))
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})
}

func TestAttachmentService_List(t *testing.T) {
	f := newAttachmentFixture(t)

	_, err := f.service.List(context.Background(), 7, 0, 0)
	var validation *ValidationError
	assert.ErrorAs(t, err, &validation)

	f.sql.ExpectQuery(`SELECT (.+) FROM attachments WHERE user_id = \$1 ORDER BY id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(7), DefaultAttachmentLimit, 0).
		WillReturnRows(sqlmock.NewRows(attachmentRowColumns))

	items, err := f.service.List(context.Background(), 7, DefaultAttachmentLimit, 0)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.NotNil(t, items)
}

func TestAttachmentService_RemoveFiles(t *testing.T) {
	f := newAttachmentFixture(t)
	stored := filepath.Join(f.dir, "a1.pdf")
	require.NoError(t, os.WriteFile(stored, []byte("%PDF-1.4"), 0o600))

	f.service.RemoveFiles([]string{"a1.pdf", "missing.png"})

	_, err := os.Stat(stored)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
