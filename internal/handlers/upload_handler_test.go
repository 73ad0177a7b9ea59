package handlers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/pocketledger/backend/internal/config"
	"github.com/pocketledger/backend/internal/services"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func multipartRequest(t *testing.T, fields map[string]string, filename, contentType string, content []byte) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if filename != "" {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
		header.Set("Content-Type", contentType)
		part, err := mw.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/uploads/transactions", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadHandler_UploadTransaction(t *testing.T) {
	service := services.NewAttachmentService(nil, nil, nil, config.UploadConfig{
		Dir:                 t.TempDir(),
		MaxSizeMB:           1,
		AllowedContentTypes: []string{"application/pdf"},
		BlockedContentTypes: []string{"image/svg+xml"},
		AllowedExtensions:   []string{".pdf"},
		BlockedExtensions:   []string{".svg"},
	}, nil, zerolog.Nop())
	h := NewUploadHandler(service)
	router := newRouter(7, func(r chi.Router) {
		r.Post("/uploads/transactions", h.UploadTransaction)
	})

	fields := map[string]string{"card_id": "1", "description": "Farmacia", "expenses": "12.00"}

	t.Run("file is required", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartRequest(t, fields, "", "", nil))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "file is required", decodeError(t, w).Error)
	})

	t.Run("blocked file type", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartRequest(t, fields, "logo.svg", "image/svg+xml", []byte("<svg/>")))

		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("oversized file", func(t *testing.T) {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, multipartRequest(t, fields, "scan.pdf", "application/pdf", make([]byte, 1024*1024+10)))

		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	})

	t.Run("malformed amount", func(t *testing.T) {
		w := httptest.NewRecorder()
		bad := map[string]string{"card_id": "1", "description": "Farmacia", "expenses": "12.345"}
		router.ServeHTTP(w, multipartRequest(t, bad, "ticket.pdf", "application/pdf", []byte("%PDF")))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "invalid expenses", decodeError(t, w).Error)
	})
}
