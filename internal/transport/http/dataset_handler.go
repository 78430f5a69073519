package http

import (
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	apierrors "salesbi/internal/errors"
	"salesbi/internal/middleware"
)

// UploadField is the multipart field carrying the spreadsheet
const UploadField = "file"

// uploadRequest is the validated part of an upload
type uploadRequest struct {
	Filename string `json:"filename" validate:"required,filename,sheetfile"`
}

// DatasetHandler serves dataset info, reloads and uploads
type DatasetHandler struct {
	service        DatasetServiceInterface
	validator      *middleware.Validator
	maxUploadBytes int64
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
}

// NewDatasetHandler creates a new dataset handler. maxUploadBytes <= 0
// leaves uploads unbounded.
func NewDatasetHandler(service DatasetServiceInterface, validator *middleware.Validator, maxUploadBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *DatasetHandler {
	return &DatasetHandler{
		service:        service,
		validator:      validator,
		maxUploadBytes: maxUploadBytes,
		logger:         logger.With(slog.String("component", "dataset_handler")),
		errorHandler:   errorHandler,
	}
}

// Routes returns the dataset routes
func (h *DatasetHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.GetInfo)
	r.Get("/issues", h.GetIssues)
	r.Post("/reload", h.Reload)
	r.With(
		middleware.BodyLimit(h.maxUploadBytes, h.errorHandler),
		middleware.ContentTypeValidator(h.errorHandler, "multipart/form-data"),
	).Post("/upload", h.Upload)

	return r
}

// GetInfo handles GET /api/dataset
func (h *DatasetHandler) GetInfo(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Info(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	respond(w, r, info)
}

// GetIssues handles GET /api/dataset/issues
func (h *DatasetHandler) GetIssues(w http.ResponseWriter, r *http.Request) {
	issues, err := h.service.Issues(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	out := make([]map[string]interface{}, 0, len(issues))
	for _, issue := range issues {
		out = append(out, map[string]interface{}{
			"row":     issue.Row,
			"field":   issue.Field,
			"value":   issue.Value,
			"message": issue.Error(),
		})
	}
	respond(w, r, out)
}

// Reload handles POST /api/dataset/reload
func (h *DatasetHandler) Reload(w http.ResponseWriter, r *http.Request) {
	info, err := h.service.Reload(r.Context())
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "dataset reloaded",
		slog.String("dataset_id", info.ID),
		slog.Int("rows", info.Rows))
	respond(w, r, info)
}

// Upload handles POST /api/dataset/upload with a multipart "file" field
func (h *DatasetHandler) Upload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}
	defer file.Close()

	if err := h.validator.Struct(uploadRequest{Filename: header.Filename}); err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		h.errorHandler.HandleError(w, r, uploadError(err))
		return
	}

	info, err := h.service.Upload(r.Context(), header.Filename, data)
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "dataset uploaded",
		slog.String("file", header.Filename),
		slog.Int("bytes", len(data)),
		slog.String("dataset_id", info.ID),
		slog.Int("rows", info.Rows))
	respond(w, r, info)
}

// uploadError maps multipart failures to API errors
func uploadError(err error) error {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return apierrors.ErrPayloadTooLarge
	case errors.Is(err, http.ErrMissingFile):
		return apierrors.ErrValidation(UploadField, "is required")
	default:
		return apierrors.InvalidRequestWithError(err)
	}
}
