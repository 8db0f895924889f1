package upload

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"

	"upload-converter/internal/http-server/handler/upload/dto"
	upload_uc "upload-converter/internal/usecase/upload"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/wb-go/wbf/zlog"
)

const (
	maxMemory = 8 << 20
	// multipart framing on top of the file itself
	formOverhead = 1 << 20
)

type UploadHandler struct {
	usecase       uploadUsecase
	validate      *validator.Validate
	logger        *zlog.Zerolog
	maxUploadSize int64
}

func NewUploadHandler(usecase uploadUsecase, logger *zlog.Zerolog, maxUploadSize int64) *UploadHandler {
	return &UploadHandler{
		usecase:       usecase,
		validate:      validator.New(),
		logger:        logger,
		maxUploadSize: maxUploadSize,
	}
}

func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize+formOverhead)

	if err := r.ParseMultipartForm(maxMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.logger.Warn().Int64("limit", h.maxUploadSize).Msg("Upload body too large")
			h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
			return
		}
		h.logger.Warn().Err(err).Msg("Failed to parse multipart form")
		h.respondError(w, http.StatusBadRequest, "Invalid request format", nil)
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.logger.Warn().Err(err).Msg("File not found in request")
		h.respondError(w, http.StatusBadRequest, "File is required", ErrFileRequired)
		return
	}
	defer file.Close()

	attachment, err := h.usecase.Upload(ctx, file, header.Filename, header.Size)
	if err != nil {
		h.handleUploadError(w, err, header.Filename)
		return
	}

	h.respondJSON(w, http.StatusCreated, dto.NewAttachmentResponse(attachment))
}

func (h *UploadHandler) GetAttachment(w http.ResponseWriter, r *http.Request) {
	req := dto.AttachmentRequest{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid attachment ID", ErrInvalidID)
		return
	}

	attachment, err := h.usecase.GetAttachment(r.Context(), req.ID)
	if err != nil {
		h.handleLookupError(w, err, req.ID, "Failed to get attachment")
		return
	}

	h.respondJSON(w, http.StatusOK, dto.NewAttachmentResponse(attachment))
}

func (h *UploadHandler) ListAttachments(w http.ResponseWriter, r *http.Request) {
	req, err := parseListRequest(r)
	if err == nil {
		err = h.validate.Struct(req)
	}
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid pagination parameters", err)
		return
	}

	attachments, err := h.usecase.ListAttachments(r.Context(), req.Limit, req.Offset)
	if err != nil {
		h.logger.Error().Err(err).Msg("Failed to list attachments")
		h.respondError(w, http.StatusInternalServerError, "Failed to list attachments", err)
		return
	}

	items := make([]dto.AttachmentResponse, 0, len(attachments))
	for i := range attachments {
		items = append(items, dto.NewAttachmentResponse(&attachments[i]))
	}

	limit, offset := upload_uc.Page(req.Limit, req.Offset)
	h.respondJSON(w, http.StatusOK, dto.ListResponse{
		Items:  items,
		Limit:  limit,
		Offset: offset,
	})
}

func (h *UploadHandler) GetFile(w http.ResponseWriter, r *http.Request) {
	req := dto.AttachmentRequest{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid attachment ID", ErrInvalidID)
		return
	}

	attachment, reader, err := h.usecase.OpenFile(r.Context(), req.ID)
	if err != nil {
		h.handleLookupError(w, err, req.ID, "Failed to open file")
		return
	}
	defer reader.Close()

	w.Header().Set("Content-Type", attachment.MimeType)
	w.Header().Set("Content-Length", strconv.FormatInt(attachment.Size, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", filepath.Base(attachment.FilePath)))
	w.Header().Set("Cache-Control", "public, max-age=3600")

	if _, err := io.Copy(w, reader); err != nil {
		h.logger.Error().Err(err).Str("attachment_id", req.ID).Msg("Failed to stream file")
	}
}

func (h *UploadHandler) DeleteAttachment(w http.ResponseWriter, r *http.Request) {
	req := dto.AttachmentRequest{ID: chi.URLParam(r, "id")}
	if err := h.validate.Struct(req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid attachment ID", ErrInvalidID)
		return
	}

	if err := h.usecase.DeleteAttachment(r.Context(), req.ID); err != nil {
		h.handleLookupError(w, err, req.ID, "Failed to delete attachment")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UploadHandler) ConverterStatus(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.usecase.ConverterStatus())
}

func parseListRequest(r *http.Request) (dto.ListRequest, error) {
	var req dto.ListRequest
	query := r.URL.Query()

	if v := query.Get("limit"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("limit: %w", err)
		}
		req.Limit = limit
	}
	if v := query.Get("offset"); v != "" {
		offset, err := strconv.Atoi(v)
		if err != nil {
			return req, fmt.Errorf("offset: %w", err)
		}
		req.Offset = offset
	}
	return req, nil
}

func (h *UploadHandler) handleUploadError(w http.ResponseWriter, err error, filename string) {
	switch {
	case errors.Is(err, upload_uc.ErrInvalidFileFormat):
		h.logger.Warn().Str("filename", filename).Msg("Invalid file format")
		h.respondError(w, http.StatusUnsupportedMediaType, "File must be an image", nil)
	case errors.Is(err, upload_uc.ErrEmptyFile):
		h.respondError(w, http.StatusBadRequest, "File is empty", nil)
	case errors.Is(err, upload_uc.ErrFileTooLarge):
		h.logger.Warn().Str("filename", filename).Msg("File too large")
		h.respondError(w, http.StatusRequestEntityTooLarge, "File too large", nil)
	default:
		h.logger.Error().Err(err).Str("filename", filename).Msg("Upload failed")
		h.respondError(w, http.StatusInternalServerError, "Failed to upload file", err)
	}
}

func (h *UploadHandler) handleLookupError(w http.ResponseWriter, err error, id, message string) {
	switch {
	case errors.Is(err, upload_uc.ErrAttachmentNotFound):
		h.logger.Info().Str("attachment_id", id).Msg("Attachment not found")
		h.respondError(w, http.StatusNotFound, "Attachment not found", nil)
	default:
		h.logger.Error().Err(err).Str("attachment_id", id).Msg(message)
		h.respondError(w, http.StatusInternalServerError, message, err)
	}
}

func (h *UploadHandler) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (h *UploadHandler) respondError(w http.ResponseWriter, status int, message string, err error) {
	response := dto.ErrorResponse{
		Error:   http.StatusText(status),
		Message: message,
	}

	if err != nil {
		response.Details = err.Error()
	}

	h.respondJSON(w, status, response)
}
