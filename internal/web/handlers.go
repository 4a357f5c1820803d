package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"dataload/internal/ingest"
	"dataload/internal/logging"
)

// handleHealth reports process liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleUpload ingests one uploaded CSV or JSON file. The file streams
// from the multipart body straight into the pipeline, so memory stays
// bounded by the chunk size rather than the file size.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	if err := s.limiter.Acquire(r.Context()); err != nil {
		if errors.Is(err, ingest.ErrTooManyUploads) {
			w.Header().Set("Retry-After", "30")
			writeError(w, http.StatusTooManyRequests, err.Error())
			return
		}
		writeError(w, http.StatusServiceUnavailable, "upload slot unavailable")
		return
	}
	defer s.limiter.Release()

	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		writeError(w, http.StatusBadRequest, "file too large or invalid form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	uploadID := uuid.New().String()
	log.Info("upload started",
		"upload_id", uploadID,
		"file", header.Filename,
		"size", header.Size,
	)

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Upload.Timeout)
	defer cancel()

	result, err := s.service.Ingest(ctx, header.Filename, file)
	if result != nil {
		result.UploadID = uploadID
	}

	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, result)

	case errors.Is(err, ingest.ErrUnsupportedFormat):
		writeError(w, http.StatusBadRequest, err.Error())

	case isMalformed(err):
		// Chunks committed before the bad bytes stay committed, so the
		// partial result goes back with the failure status.
		writeJSON(w, http.StatusBadRequest, result)

	case errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled):
		log.Warn("upload aborted", "upload_id", uploadID, "error", err)
		writeJSON(w, http.StatusRequestTimeout, result)

	default:
		log.Error("upload failed", "upload_id", uploadID, "error", err)
		writeError(w, http.StatusInternalServerError, "ingestion failed")
	}
}

func isMalformed(err error) bool {
	var malformed *ingest.MalformedInputError
	return errors.As(err, &malformed)
}
