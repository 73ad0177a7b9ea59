package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pocketledger/backend/internal/middleware"
	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/services"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockTransferService struct {
	mock.Mock
}

func (m *MockTransferService) CreateTransfer(ctx context.Context, userID int64, req models.TransferRequest) (*models.TransferPair, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferPair), args.Error(1)
}

func (m *MockTransferService) GetTransfer(ctx context.Context, userID, transferID int64) (*models.TransferPair, error) {
	args := m.Called(ctx, userID, transferID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferPair), args.Error(1)
}

func (m *MockTransferService) ListTransfers(ctx context.Context, userID int64, limit, offset int) ([]models.TransferPair, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TransferPair), args.Error(1)
}

func (m *MockTransferService) UpdateTransfer(ctx context.Context, userID, transferID int64, upd models.TransferUpdate) (*models.TransferPair, error) {
	args := m.Called(ctx, userID, transferID, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TransferPair), args.Error(1)
}

func (m *MockTransferService) DeleteTransfer(ctx context.Context, userID, transferID int64) error {
	return m.Called(ctx, userID, transferID).Error(0)
}

type MockTransactionService struct {
	mock.Mock
}

func (m *MockTransactionService) List(ctx context.Context, userID int64, limit, offset int) ([]models.Transaction, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Transaction), args.Error(1)
}

func (m *MockTransactionService) Get(ctx context.Context, userID, id int64) (*models.Transaction, error) {
	args := m.Called(ctx, userID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionService) Create(ctx context.Context, userID int64, req models.TransactionCreateRequest) (*models.Transaction, error) {
	args := m.Called(ctx, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionService) Update(ctx context.Context, userID, id int64, upd models.TransactionUpdate) (*models.Transaction, error) {
	args := m.Called(ctx, userID, id, upd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Transaction), args.Error(1)
}

func (m *MockTransactionService) Delete(ctx context.Context, userID, id int64) error {
	return m.Called(ctx, userID, id).Error(0)
}

// authenticatedAs stands in for the Authenticator middleware.
func authenticatedAs(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

func serve(t *testing.T, router http.Handler, method, target string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jsonBody(s string) io.Reader {
	return strings.NewReader(s)
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) services.ErrorResponse {
	t.Helper()
	var response services.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

func newRouter(userID int64, mount func(chi.Router)) chi.Router {
	r := chi.NewRouter()
	r.Use(authenticatedAs(userID))
	mount(r)
	return r
}
