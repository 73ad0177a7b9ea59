package handlers

import (
	"errors"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/pocketledger/backend/internal/models"
	"github.com/pocketledger/backend/internal/money"
	"github.com/pocketledger/backend/internal/services"
)

// multipartOverhead leaves room for the form fields next to the file itself.
const multipartOverhead = 1 << 20

type UploadHandler struct {
	service   *services.AttachmentService
	validator *services.ValidationHelper
}

func NewUploadHandler(service *services.AttachmentService) *UploadHandler {
	return &UploadHandler{
		service:   service,
		validator: services.NewValidationHelper(),
	}
}

// UploadTransaction creates a transaction with a receipt
// @Summary Create transaction with attachment
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Receipt"
// @Param description formData string true "Description"
// @Param card_id formData int true "Card ID"
// @Param category_id formData int false "Category ID"
// @Param income formData string false "Income" default(0.00)
// @Param expenses formData string false "Expenses" default(0.00)
// @Param executed formData bool false "Executed" default(true)
// @Success 201 {object} models.TransactionUpload
// @Failure 400 {object} services.ErrorResponse
// @Failure 413 {object} services.ErrorResponse
// @Failure 415 {object} services.ErrorResponse
// @Router /uploads/transactions [post]
func (h *UploadHandler) UploadTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	file, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := formReader{r: r}
	req := models.TransactionCreateRequest{
		CardID:      form.intValue("card_id"),
		Description: strings.TrimSpace(r.FormValue("description")),
		CategoryID:  form.optionalInt("category_id"),
		Income:      form.amount("income"),
		Expenses:    form.amount("expenses"),
		Executed:    form.boolValue("executed", true),
	}
	if form.err != nil {
		services.WriteError(w, form.err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	upload, f, err := openUpload(file)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	defer f.Close()

	result, err := h.service.CreateTransactionWithAttachment(r.Context(), userID, req, upload)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// UploadTransfer creates a transfer with a receipt
// @Summary Create transfer with attachment
// @Tags Uploads
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Receipt"
// @Param source_card_id formData int true "Source card ID"
// @Param destination_card_id formData int true "Destination card ID"
// @Param amount formData string true "Amount"
// @Param description formData string false "Description"
// @Param category_id formData int false "Category ID"
// @Success 201 {object} models.TransferUpload
// @Failure 400 {object} services.ErrorResponse
// @Failure 413 {object} services.ErrorResponse
// @Failure 415 {object} services.ErrorResponse
// @Router /uploads/transfers [post]
func (h *UploadHandler) UploadTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	file, ok := h.parseForm(w, r)
	if !ok {
		return
	}
	defer r.MultipartForm.RemoveAll()

	form := formReader{r: r}
	req := models.TransferRequest{
		SourceCardID:      form.intValue("source_card_id"),
		DestinationCardID: form.intValue("destination_card_id"),
		CategoryID:        form.optionalInt("category_id"),
	}
	if amount := form.amount("amount"); amount != nil {
		req.Amount = *amount
	}
	if description := r.FormValue("description"); description != "" {
		req.Description = &description
	}
	if form.err != nil {
		services.WriteError(w, form.err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		services.WriteError(w, err)
		return
	}

	upload, f, err := openUpload(file)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	defer f.Close()

	result, err := h.service.CreateTransferWithAttachment(r.Context(), userID, req, upload)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// ListByTransaction returns the attachments of a transaction
// @Summary List transaction attachments
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param transactionID path int true "Transaction ID"
// @Success 200 {array} models.Attachment
// @Router /uploads/transactions/{transactionID}/attachments [get]
func (h *UploadHandler) ListByTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	transactionID, ok := pathID(w, r, "transactionID")
	if !ok {
		return
	}
	items, err := h.service.ListByTransaction(r.Context(), userID, transactionID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListByTransfer returns the attachments of a transfer
// @Summary List transfer attachments
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param transferID path int true "Transfer ID"
// @Success 200 {array} models.Attachment
// @Router /uploads/transfers/{transferID}/attachments [get]
func (h *UploadHandler) ListByTransfer(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	transferID, ok := pathID(w, r, "transferID")
	if !ok {
		return
	}
	items, err := h.service.ListByTransfer(r.Context(), userID, transferID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// ListAttachments pages through all of the caller's attachments
// @Summary List attachments
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (1-200)" default(50)
// @Param offset query int false "Rows to skip" default(0)
// @Success 200 {array} models.Attachment
// @Router /uploads/attachments [get]
func (h *UploadHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	limit, offset, ok := pagination(w, r, services.DefaultAttachmentLimit)
	if !ok {
		return
	}
	items, err := h.service.List(r.Context(), userID, limit, offset)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// GetAttachment returns attachment metadata
// @Summary Get attachment
// @Tags Uploads
// @Produce json
// @Security BearerAuth
// @Param attachmentID path int true "Attachment ID"
// @Success 200 {object} models.Attachment
// @Failure 404 {object} services.ErrorResponse
// @Router /uploads/attachments/{attachmentID} [get]
func (h *UploadHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentID")
	if !ok {
		return
	}
	a, err := h.service.Get(r.Context(), userID, attachmentID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// DownloadAttachment streams the stored file
// @Summary Download attachment
// @Tags Uploads
// @Produce octet-stream
// @Security BearerAuth
// @Param attachmentID path int true "Attachment ID"
// @Param inline query bool false "Display in the browser instead of downloading"
// @Success 200 {file} file
// @Failure 404 {object} services.ErrorResponse
// @Failure 410 {object} services.ErrorResponse
// @Router /uploads/attachments/{attachmentID}/download [get]
func (h *UploadHandler) DownloadAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentID")
	if !ok {
		return
	}

	a, file, err := h.service.Open(r.Context(), userID, attachmentID)
	if err != nil {
		services.WriteError(w, err)
		return
	}
	defer file.Close()

	disposition := "attachment"
	if inline, _ := strconv.ParseBool(r.URL.Query().Get("inline")); inline {
		disposition = "inline"
	}
	contentType := a.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType(disposition, map[string]string{"filename": a.Filename}))
	http.ServeContent(w, r, a.Filename, a.CreatedAt, file)
}

// DeleteAttachment removes the file and its metadata
// @Summary Delete attachment
// @Tags Uploads
// @Security BearerAuth
// @Param attachmentID path int true "Attachment ID"
// @Success 204
// @Failure 404 {object} services.ErrorResponse
// @Router /uploads/attachments/{attachmentID} [delete]
func (h *UploadHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	attachmentID, ok := pathID(w, r, "attachmentID")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), userID, attachmentID); err != nil {
		services.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseForm bounds the body and returns the "file" part header.
func (h *UploadHandler) parseForm(w http.ResponseWriter, r *http.Request) (*multipart.FileHeader, bool) {
	limit := h.service.MaxUploadBytes()
	r.Body = http.MaxBytesReader(w, r.Body, limit+multipartOverhead)

	if err := r.ParseMultipartForm(multipartOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			services.WriteError(w, services.ErrFileTooLarge)
			return nil, false
		}
		services.SendErrorResponse(w, "Invalid multipart form", http.StatusBadRequest, nil)
		return nil, false
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		r.MultipartForm.RemoveAll()
		services.SendErrorResponse(w, "file is required", http.StatusBadRequest, nil)
		return nil, false
	}
	return files[0], true
}

func openUpload(header *multipart.FileHeader) (services.FileUpload, multipart.File, error) {
	f, err := header.Open()
	if err != nil {
		return services.FileUpload{}, nil, err
	}
	return services.FileUpload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Content:     f,
	}, f, nil
}

// formReader collects the first conversion error so a handler checks once.
type formReader struct {
	r   *http.Request
	err error
}

func (f *formReader) fail(field string) {
	if f.err == nil {
		f.err = services.NewValidationError("invalid %s", field)
	}
}

func (f *formReader) intValue(field string) int64 {
	v := f.r.FormValue(field)
	if v == "" {
		return 0
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		f.fail(field)
	}
	return n
}

func (f *formReader) optionalInt(field string) *int64 {
	if f.r.FormValue(field) == "" {
		return nil
	}
	n := f.intValue(field)
	return &n
}

func (f *formReader) amount(field string) *money.Amount {
	v := strings.TrimSpace(f.r.FormValue(field))
	if v == "" {
		return nil
	}
	a, err := money.Parse(v)
	if err != nil {
		f.fail(field)
		return nil
	}
	return &a
}

func (f *formReader) boolValue(field string, fallback bool) bool {
	v := f.r.FormValue(field)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		f.fail(field)
	}
	return b
}
