package services

import (
	"context"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pocketledger/backend/internal/models"
	"github.com/stretchr/testify/mock"
)

type MockCardLookup struct {
	mock.Mock
}

func (m *MockCardLookup) GetByID(ctx context.Context, cardID, userID int64) (*models.Card, error) {
	args := m.Called(ctx, cardID, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Card), args.Error(1)
}

type MockCategoryChecker struct {
	mock.Mock
}

func (m *MockCategoryChecker) Exists(ctx context.Context, categoryID int64) (bool, error) {
	args := m.Called(ctx, categoryID)
	return args.Bool(0), args.Error(1)
}

type MockAuditRecorder struct {
	mock.Mock
}

func (m *MockAuditRecorder) Record(ctx context.Context, userID int64, action, resource string, details map[string]any) {
	m.Called(ctx, userID, action, resource, details)
}

var transactionRowColumns = []string{
	"id", "user_id", "card_id", "description", "category_id",
	"income", "expenses", "executed", "transfer_id", "created_at", "updated_at",
}

// ledgerRow is a compact description of a transactions row for sqlmock result sets.
type MockAttachmentRemover struct {
	mock.Mock
}

func (m *MockAttachmentRemover) RemoveFiles(storagePaths []string) {
	m.Called(storagePaths)
}

type ledgerRow struct {
	id, userID, cardID int64
	description        string
	categoryID         any
	income, expenses   string
	transferID         any
	createdAt          time.Time
}

func transactionRows(rows ...ledgerRow) *sqlmock.Rows {
	out := sqlmock.NewRows(transactionRowColumns)
	for _, r := range rows {
		created := r.createdAt
		if created.IsZero() {
			created = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
		}
		out.AddRow(r.id, r.userID, r.cardID, r.description, r.categoryID,
			r.income, r.expenses, true, r.transferID, created, created)
	}
	return out
}
