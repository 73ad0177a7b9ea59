package services

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type transactionFixture struct {
	service    *TransactionService
	sql        sqlmock.Sqlmock
	cards      *MockCardLookup
	categories *MockCategoryChecker
	audit      *MockAuditRecorder
}

func newTransactionFixture(t *testing.T) *transactionFixture {
	t.Helper()

	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &transactionFixture{
		sql:        sqlMock,
		cards:      new(MockCardLookup),
		categories: new(MockCategoryChecker),
		audit:      new(MockAuditRecorder),
	}
	f.service = NewTransactionService(db, NewLedgerService(db), f.cards, f.categories, f.audit, zerolog.Nop())
	return f
}

func (f *transactionFixture) expectGet(userID, id int64, row ledgerRow) {
	f.sql.ExpectQuery(`SELECT (.+) FROM transactions WHERE id = \$1 AND user_id = \$2`).
		WithArgs(id, userID).
		WillReturnRows(transactionRows(row))
}

func TestTransactionService_Create(t *testing.T) {
	const userID = int64(7)
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("stores an expense on an owned card", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.cards.On("GetByID", mock.Anything, int64(1), userID).Return(&models.Card{ID: 1, UserID: userID}, nil)
		f.categories.On("Exists", mock.Anything, int64(3)).Return(true, nil)
		f.audit.On("Record", mock.Anything, userID, "create", "transaction", map[string]any{"transaction_id": int64(21)}).Once()

		f.sql.ExpectQuery("INSERT INTO transactions").
			WithArgs(userID, int64(1), "Groceries", int64(3), "0.00", "42.50", true, nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(21, now, now))

		expenses := money.MustParse("42.50")
		category := int64(3)
		tx, err := f.service.Create(context.Background(), userID, models.TransactionCreateRequest{
			CardID:      1,
			Description: "Groceries",
			CategoryID:  &category,
			Expenses:    &expenses,
			Executed:    true,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(21), tx.ID)
		assert.Nil(t, tx.TransferID)
		assert.True(t, tx.Income.IsZero())

		assert.NoError(t, f.sql.ExpectationsWereMet())
		f.audit.AssertExpectations(t)
	})

	t.Run("rejects negative amounts before touching the database", func(t *testing.T) {
		f := newTransactionFixture(t)
		income := money.MustParse("-1.00")

		_, err := f.service.Create(context.Background(), userID, models.TransactionCreateRequest{
			CardID:      1,
			Description: "Refund",
			Income:      &income,
		})
		var validation *ValidationError
		assert.ErrorAs(t, err, &validation)
		f.cards.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("foreign card", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.cards.On("GetByID", mock.Anything, int64(9), userID).Return(nil, &NotFoundError{Resource: "card"})

		_, err := f.service.Create(context.Background(), userID, models.TransactionCreateRequest{
			CardID:      9,
			Description: "Coffee",
		})
		var notFound *NotFoundError
		require.ErrorAs(t, err, &notFound)
		assert.Equal(t, "card", notFound.Resource)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})
}

func TestTransactionService_Update(t *testing.T) {
	const userID = int64(7)
	now := time.Date(2025, 3, 2, 9, 0, 0, 0, time.UTC)

	t.Run("plain row accepts new amounts", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 21, ledgerRow{id: 21, userID: userID, cardID: 1, description: "Groceries", income: "0.00", expenses: "42.50"})
		f.sql.ExpectQuery("UPDATE transactions SET").
			WithArgs(int64(1), "Groceries", nil, "0.00", "40.00", true, int64(21), userID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		f.audit.On("Record", mock.Anything, userID, "update", "transaction", mock.Anything).Once()

		expenses := money.MustParse("40.00")
		tx, err := f.service.Update(context.Background(), userID, 21, models.TransactionUpdate{Expenses: &expenses})
		require.NoError(t, err)
		assert.Equal(t, "40.00", tx.Expenses.String())
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("transfer leg refuses amount changes", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 10, ledgerRow{id: 10, userID: userID, cardID: 1, description: "Rent", income: "0.00", expenses: "100.00", transferID: int64(10)})

		expenses := money.MustParse("1.00")
		_, err := f.service.Update(context.Background(), userID, 10, models.TransactionUpdate{Expenses: &expenses})
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
		f.audit.AssertNotCalled(t, "Record", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("transfer leg refuses card changes", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 11, ledgerRow{id: 11, userID: userID, cardID: 2, description: "Rent", income: "100.00", expenses: "0.00", transferID: int64(10)})

		card := int64(3)
		_, err := f.service.Update(context.Background(), userID, 11, models.TransactionUpdate{CardID: &card})
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("transfer leg accepts a new description", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 10, ledgerRow{id: 10, userID: userID, cardID: 1, description: "Rent", income: "0.00", expenses: "100.00", transferID: int64(10)})
		f.sql.ExpectQuery("UPDATE transactions SET").
			WithArgs(int64(1), "March rent", nil, "0.00", "100.00", true, int64(10), userID).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))
		f.audit.On("Record", mock.Anything, userID, "update", "transaction", mock.Anything).Once()

		description := "March rent"
		tx, err := f.service.Update(context.Background(), userID, 10, models.TransactionUpdate{Description: &description})
		require.NoError(t, err)
		assert.Equal(t, "March rent", tx.Description)
		require.NotNil(t, tx.TransferID)
		assert.Equal(t, int64(10), *tx.TransferID)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("empty update returns the stored row", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 21, ledgerRow{id: 21, userID: userID, cardID: 1, description: "Groceries", income: "0.00", expenses: "42.50"})

		tx, err := f.service.Update(context.Background(), userID, 21, models.TransactionUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "Groceries", tx.Description)
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})
}

func TestTransactionService_Delete(t *testing.T) {
	const userID = int64(7)

	t.Run("plain row", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 21, ledgerRow{id: 21, userID: userID, cardID: 1, description: "Groceries", income: "0.00", expenses: "42.50"})
		f.sql.ExpectExec(`DELETE FROM transactions WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(21), userID).
			WillReturnResult(sqlmock.NewResult(0, 1))
		f.audit.On("Record", mock.Anything, userID, "delete", "transaction", map[string]any{"transaction_id": int64(21)}).Once()

		require.NoError(t, f.service.Delete(context.Background(), userID, 21))
		assert.NoError(t, f.sql.ExpectationsWereMet())
		f.audit.AssertExpectations(t)
	})

	t.Run("transfer leg is refused", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.expectGet(userID, 11, ledgerRow{id: 11, userID: userID, cardID: 2, description: "Rent", income: "100.00", expenses: "0.00", transferID: int64(10)})

		err := f.service.Delete(context.Background(), userID, 11)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, 409, StatusFor(err))
		assert.NoError(t, f.sql.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		f := newTransactionFixture(t)
		f.sql.ExpectQuery(`SELECT (.+) FROM transactions WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(99), userID).
			WillReturnRows(sqlmock.NewRows(transactionRowColumns))

		err := f.service.Delete(context.Background(), userID, 99)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
