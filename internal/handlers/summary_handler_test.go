package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/pocketledger/backend/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-01":                time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		"2025-03-01T10:30:00":       time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00Z":      time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
		"2025-03-01T10:30:00+00:00": time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC),
	}
	for input, want := range cases {
		got, err := parseDate(input)
		require.NoError(t, err, input)
		assert.True(t, want.Equal(got), input)
	}

	_, err := parseDate("01/03/2025")
	assert.Error(t, err)
}

func TestSummaryHandler_CardSummary(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	h := NewSummaryHandler(services.NewSummaryService(db, services.NewCardService(db, nil), zerolog.Nop()))
	router := newRouter(7, func(r chi.Router) {
		r.Get("/summary/cards", h.CardSummary)
	})

	t.Run("foreign user", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/summary/cards?user_id=8&start_date=2025-03-01&end_date=2025-04-01", nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("bad date", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/summary/cards?user_id=7&start_date=yesterday&end_date=2025-04-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid start_date", decodeError(t, w).Error)
	})

	t.Run("inverted range", func(t *testing.T) {
		w := serve(t, router, http.MethodGet, "/summary/cards?user_id=7&start_date=2025-04-01&end_date=2025-03-01", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("totals", func(t *testing.T) {
		now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
		sqlMock.ExpectQuery(`SELECT (.+) FROM cards WHERE user_id = \$1`).
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "bank_name", "type", "card_name", "alias", "created_at", "updated_at"}).
				AddRow(1, 7, "BBVA", "debit", "Nómina", nil, now, now))
		sqlMock.ExpectQuery(`SELECT t.card_id`).
			WillReturnRows(sqlmock.NewRows([]string{"card_id", "income", "expenses"}).AddRow(1, "20.00", "5.50"))

		w := serve(t, router, http.MethodGet, "/summary/cards?user_id=7&start_date=2025-03-01&end_date=2025-04-01", nil)

		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[{"card_id":1,"card_name":"Nómina","bank_name":"BBVA","income_total":"20.00","expenses_total":"5.50","balance":"14.50"}]`, w.Body.String())
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})
}
