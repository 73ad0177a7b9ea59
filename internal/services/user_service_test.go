package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pocketledger/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestUserService(t *testing.T) (*UserService, sqlmock.Sqlmock, *MockAuditRecorder) {
	t.Helper()
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	audit := new(MockAuditRecorder)
	return NewUserService(db, NewPasswordHasher(testArgon2), audit), sqlMock, audit
}

var userRowColumns = []string{"id", "name", "phone", "telegram_id", "email", "created_at", "updated_at"}

func TestUserService_Register(t *testing.T) {
	req := models.UserCreateRequest{Name: "Ana", Phone: "+525512345678", Email: "Ana@Example.com", Password: "password123"}

	t.Run("lowercases email", func(t *testing.T) {
		service, sqlMock, audit := newTestUserService(t)
		sqlMock.ExpectQuery("INSERT INTO users").
			WithArgs("Ana", "+525512345678", nil, "ana@example.com", sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).AddRow(7, fixedNow, fixedNow))
		audit.On("Record", mock.Anything, int64(7), "create", "user", map[string]any{"user_id": int64(7)}).Once()

		user, err := service.Register(context.Background(), req)
		require.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, "ana@example.com", user.Email)
		audit.AssertExpectations(t)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("duplicate phone", func(t *testing.T) {
		service, sqlMock, _ := newTestUserService(t)
		sqlMock.ExpectQuery("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

		_, err := service.Register(context.Background(), req)
		var conflict *ConflictError
		assert.ErrorAs(t, err, &conflict)
	})
}

func TestUserService_Update(t *testing.T) {
	service, sqlMock, audit := newTestUserService(t)
	name := "Ana María"

	sqlMock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
		WithArgs(int64(7)).
		WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "Ana", "+525512345678", nil, "ana@example.com", fixedNow, fixedNow))
	sqlMock.ExpectQuery("UPDATE users").
		WithArgs(name, nil, "ana@example.com", nil, int64(7)).
		WillReturnRows(sqlmock.NewRows([]string{"updated_at"}).AddRow(fixedNow))
	audit.On("Record", mock.Anything, int64(7), "update", "user", mock.Anything).Once()

	user, err := service.Update(context.Background(), 7, models.UserUpdateRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, name, user.Name)
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestUserService_Delete(t *testing.T) {
	t.Run("audits before deleting", func(t *testing.T) {
		service, sqlMock, audit := newTestUserService(t)
		sqlMock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnRows(sqlmock.NewRows(userRowColumns).AddRow(7, "Ana", "+525512345678", nil, "ana@example.com", fixedNow, fixedNow))
		sqlMock.ExpectExec("DELETE FROM users WHERE id = \\$1").
			WithArgs(int64(7)).
			WillReturnResult(sqlmock.NewResult(0, 1))
		audit.On("Record", mock.Anything, int64(7), "delete", "user", mock.Anything).Once()

		require.NoError(t, service.Delete(context.Background(), 7))
		audit.AssertExpectations(t)
		assert.NoError(t, sqlMock.ExpectationsWereMet())
	})

	t.Run("unknown user", func(t *testing.T) {
		service, sqlMock, _ := newTestUserService(t)
		sqlMock.ExpectQuery("SELECT (.+) FROM users WHERE id = \\$1").
			WithArgs(int64(9)).
			WillReturnRows(sqlmock.NewRows(userRowColumns))

		err := service.Delete(context.Background(), 9)
		var notFound *NotFoundError
		assert.ErrorAs(t, err, &notFound)
	})
}
