package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/pocketledger/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var cardRowColumns = []string{"id", "user_id", "bank_name", "type", "card_name", "alias", "created_at", "updated_at"}

func TestCardService_GetByID(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	service := NewCardService(db, new(MockAuditRecorder))
	now := time.Now()

	t.Run("owned card", func(t *testing.T) {
		sqlMock.ExpectQuery("SELECT (.+) FROM cards WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(3), int64(7)).
			WillReturnRows(sqlmock.NewRows(cardRowColumns).AddRow(3, 7, "BBVA", "debit", "Nómina", "main", now, now))

		card, err := service.GetByID(context.Background(), 3, 7)
		require.NoError(t, err)
		assert.Equal(t, "Nómina", card.CardName)
		require.NotNil(t, card.Alias)
		assert.Equal(t, "main", *card.Alias)
	})

	t.Run("foreign card looks missing", func(t *testing.T) {
		sqlMock.ExpectQuery("SELECT (.+) FROM cards WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(3), int64(8)).
			WillReturnRows(sqlmock.NewRows(cardRowColumns))

		_, err := service.GetByID(context.Background(), 3, 8)
		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestCardService_CreateUpdateDelete(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	audit := new(MockAuditRecorder)
	audit.On("Record", mock.Anything, int64(7), mock.Anything, "card", mock.Anything)
	service := NewCardService(db, audit)
	now := time.Now()

	t.Run("create", func(t *testing.T) {
		sqlMock.ExpectQuery("INSERT INTO cards").
			WithArgs(int64(7), "Banorte", "credit", "Oro", nil).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(9, now, now))

		card, err := service.Create(context.Background(), 7, models.CardCreateRequest{BankName: "Banorte", Type: "credit", CardName: "Oro"})
		require.NoError(t, err)
		assert.Equal(t, int64(9), card.ID)
		audit.AssertCalled(t, "Record", mock.Anything, int64(7), "create", "card", map[string]any{"card_id": int64(9)})
	})

	t.Run("partial update keeps other fields", func(t *testing.T) {
		sqlMock.ExpectQuery("SELECT (.+) FROM cards WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(9), int64(7)).
			WillReturnRows(sqlmock.NewRows(cardRowColumns).AddRow(9, 7, "Banorte", "credit", "Oro", nil, now, now))
		sqlMock.ExpectQuery("UPDATE cards SET bank_name").
			WithArgs("Banorte", "credit", "Platino", nil, int64(9), int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(now))

		name := "Platino"
		card, err := service.Update(context.Background(), 9, 7, models.CardUpdateRequest{CardName: &name})
		require.NoError(t, err)
		assert.Equal(t, "Platino", card.CardName)
		assert.Equal(t, "credit", card.Type)
	})

	t.Run("delete missing card", func(t *testing.T) {
		sqlMock.ExpectExec("DELETE FROM cards WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(int64(10), int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := service.Delete(context.Background(), 10, 7)
		var notFound *NotFoundError
		assert.True(t, errors.As(err, &notFound))
	})

	assert.NoError(t, sqlMock.ExpectationsWereMet())
}
