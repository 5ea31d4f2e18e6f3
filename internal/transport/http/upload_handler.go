package http

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"

	"github.com/go-chi/render"

	apierrors "salespulse/internal/errors"
	"salespulse/internal/middleware"
	"salespulse/internal/services"
	"salespulse/pkg/contracts/domain"
)

// uploadField is the multipart field carrying the files.
const uploadField = "files"

// multipartMemory is kept in memory before parts spill to temp files.
const multipartMemory = 32 << 20

// UploadHandler runs upload batches.
type UploadHandler struct {
	service      DashboardServiceInterface
	maxFiles     int
	maxBytes     int64
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
}

// NewUploadHandler creates an upload handler. maxFiles or maxBytes <= 0
// disable the respective limit.
func NewUploadHandler(service DashboardServiceInterface, maxFiles int, maxBytes int64, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *UploadHandler {
	return &UploadHandler{
		service:      service,
		maxFiles:     maxFiles,
		maxBytes:     maxBytes,
		logger:       logger.With(slog.String("component", "upload_handler")),
		errorHandler: errorHandler,
	}
}

// Upload handles POST /api/uploads. Per-file problems are part of the
// returned BatchResult; only request-level problems become errors.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.service.State() == domain.StateProcessing {
		h.errorHandler.HandleError(w, r, apierrors.ErrBatchInProgress)
		return
	}

	if h.maxBytes > 0 {
		if r.ContentLength > h.maxBytes {
			h.errorHandler.HandleError(w, r, apierrors.ErrPayloadTooLarge)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes)
	}
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.HandleError(w, r, err)
			return
		}
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File[uploadField]
	if len(headers) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrMissingFiles)
		return
	}
	if h.maxFiles > 0 && len(headers) > h.maxFiles {
		h.errorHandler.HandleError(w, r, apierrors.TooManyFiles(h.maxFiles, len(headers)))
		return
	}

	uploads := make([]services.Upload, 0, len(headers))
	for _, fh := range headers {
		uploads = append(uploads, readPart(fh))
	}

	h.logger.InfoContext(ctx, "upload received",
		slog.String("request_id", middleware.GetRequestID(ctx)),
		slog.Int("files", len(uploads)))

	result, err := h.service.ProcessBatch(ctx, uploads)
	if err != nil {
		if errors.Is(err, services.ErrNoUploads) {
			err = apierrors.ErrMissingFiles
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, result)
}

func readPart(fh *multipart.FileHeader) services.Upload {
	upload := services.Upload{Name: fh.Filename}

	f, err := fh.Open()
	if err != nil {
		upload.Err = fmt.Errorf("open upload: %w", err)
		return upload
	}
	defer f.Close()

	upload.Data, upload.Err = io.ReadAll(f)
	return upload
}
