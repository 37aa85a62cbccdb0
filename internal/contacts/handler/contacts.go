package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	contactserrors "contactcleaner/internal/contacts/errors"
	"contactcleaner/internal/contacts/events"
	"contactcleaner/internal/contacts/service"
	"contactcleaner/internal/contacts/validator"
	apperrors "contactcleaner/pkg/errors"
	"contactcleaner/pkg/config"
	httputil "contactcleaner/pkg/http"
	"contactcleaner/pkg/logger"
	"contactcleaner/pkg/middleware"
	"contactcleaner/pkg/sealer"
)

const UploadField = "csv_file"

type ContactHandler struct {
	service       service.ContactService
	cookies       *sessionCookies
	maxUploadSize int64
	log           *logger.Logger
}

func NewContactHandler(
	service service.ContactService,
	sealer *sealer.Sealer,
	cookie CookieConfig,
	maxUploadSize int64,
	log *logger.Logger,
) *ContactHandler {
	return &ContactHandler{
		service:       service,
		cookies:       &sessionCookies{sealer: sealer, cfg: cookie},
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

func (h *ContactHandler) Upload(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if r.ContentLength > h.maxUploadSize {
		h.writeError(w, "Upload", apperrors.PayloadTooLarge(h.maxUploadSize))
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		h.writeError(w, "Upload", h.multipartError(err))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile(UploadField)
	if err != nil {
		h.writeError(w, "Upload", apperrors.InvalidInput("No file selected"))
		return
	}
	defer func() { _ = file.Close() }()

	previousID, _ := h.cookies.uploadID(r)

	summary, err := h.service.Upload(r.Context(), header.Filename, file)
	if err != nil {
		h.writeError(w, "Upload", err)
		return
	}

	if err := h.cookies.set(w, summary.UploadID); err != nil {
		h.writeError(w, "Upload", apperrors.Internal("Failed to create session", err))
		return
	}

	if previousID != "" && previousID != summary.UploadID {
		if err := h.service.Reset(r.Context(), previousID); err != nil {
			h.log.Warn("Failed to discard previous upload", "upload_id", previousID, "error", err)
		}
	}

	if err := httputil.WriteCreated(w, summary); err != nil {
		h.log.Error("failed to write created response", "handler", "Upload", "operation", "WriteCreated", "error", err)
	}
}

func (h *ContactHandler) multipartError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return apperrors.PayloadTooLarge(maxBytesErr.Limit)
	}
	if errors.Is(err, http.ErrNotMultipart) || errors.Is(err, http.ErrMissingBoundary) {
		return apperrors.UnsupportedMediaType("Upload must be multipart/form-data")
	}
	return apperrors.InvalidInput("Invalid upload form")
}

func (h *ContactHandler) Session(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uploadID, ok := h.requireSession(w, r, "Session")
	if !ok {
		return
	}

	previewRows, err := httputil.ExtractLimit(r, -1, config.MaxPreviewRows)
	if err != nil {
		h.writeError(w, "Session", err)
		return
	}

	summary, err := h.service.Session(r.Context(), uploadID, previewRows)
	if err != nil {
		h.writeError(w, "Session", err)
		return
	}

	if err := httputil.WriteSuccess(w, summary); err != nil {
		h.log.Error("failed to write success response", "handler", "Session", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ContactHandler) Clean(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req validator.CleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
			Code:  apperrors.CodeInvalidInput,
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Clean", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	uploadID, ok := h.requireSession(w, r, "Clean")
	if !ok {
		return
	}

	ctx := events.WithCorrelationID(r.Context(), middleware.RequestIDFromContext(r.Context()))
	result, err := h.service.Clean(ctx, uploadID, &req)
	if err != nil {
		h.writeError(w, "Clean", err)
		return
	}

	if err := httputil.WriteSuccess(w, result); err != nil {
		h.log.Error("failed to write success response", "handler", "Clean", "operation", "WriteSuccess", "error", err)
	}
}

func (h *ContactHandler) Download(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uploadID, ok := h.requireSession(w, r, "Download")
	if !ok {
		return
	}

	export, err := h.service.Download(r.Context(), uploadID, r.URL.Query().Get("format"))
	if err != nil {
		h.writeError(w, "Download", err)
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Body)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Body); err != nil {
		h.log.Error("failed to write download", "handler", "Download", "operation", "Write", "error", err)
	}
}

func (h *ContactHandler) Reset(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	uploadID, err := h.cookies.uploadID(r)
	if err == nil && uploadID != "" {
		if err := h.service.Reset(r.Context(), uploadID); err != nil {
			h.writeError(w, "Reset", err)
			return
		}
	}

	h.cookies.clear(w)
	httputil.WriteNoContent(w)
}

func (h *ContactHandler) Stages(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if err := httputil.WriteSuccess(w, h.service.Stages()); err != nil {
		h.log.Error("failed to write success response", "handler", "Stages", "operation", "WriteSuccess", "error", err)
	}
}

// requireSession resolves the caller's upload ID, writing an error response when there is none.
func (h *ContactHandler) requireSession(w http.ResponseWriter, r *http.Request, handler string) (string, bool) {
	uploadID, err := h.cookies.uploadID(r)
	if err != nil {
		h.log.Warn("Rejected session cookie",
			"request_id", middleware.RequestIDFromContext(r.Context()),
			"path", r.URL.Path,
		)
		h.cookies.clear(w)
		h.writeError(w, handler, apperrors.Wrap(err, apperrors.CodeInvalidInput, "Session is invalid. Please upload the file again.", http.StatusBadRequest))
		return "", false
	}
	if uploadID == "" {
		h.writeError(w, handler, apperrors.Wrap(contactserrors.ErrNoUpload, apperrors.CodeNotFound, "No file uploaded. Please upload a CSV file first.", http.StatusNotFound))
		return "", false
	}
	return uploadID, true
}

func (h *ContactHandler) writeError(w http.ResponseWriter, handler string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handler, "operation", "WriteError", "error", writeErr)
	}
}

func (h *ContactHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/upload", h.Upload)
	router.GET("/api/v1/session", h.Session)
	router.DELETE("/api/v1/session", h.Reset)
	router.POST("/api/v1/clean", h.Clean)
	router.GET("/api/v1/download", h.Download)
	router.GET("/api/v1/stages", h.Stages)
}
