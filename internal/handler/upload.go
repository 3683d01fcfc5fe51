package handler

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/tripshare/backend/internal/auth"
	"github.com/tripshare/backend/internal/service"
)

// uploadField is the multipart field holding the files.
const uploadField = "files"

// multipartMemory is how much of a multipart form is buffered in memory
// before the rest spills to temporary files.
const multipartMemory = 8 << 20

type uploadResponse struct {
	URLs []string `json:"urls"`
}

// Upload handles POST /uploads.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	if auth.IdentityFrom(r.Context()) == nil {
		writeError(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "upload too large")
			return
		}
		requestError(w, "expected a multipart form")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	headers := r.MultipartForm.File[uploadField]
	files := make([]service.UploadFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			s.fail(w, r, err, "")
			return
		}
		defer func(f multipart.File) { _ = f.Close() }(f)
		files = append(files, service.UploadFile{Filename: h.Filename, Size: h.Size, Body: f})
	}

	urls, err := s.uploads.Upload(r.Context(), auth.IdentityFrom(r.Context()), files)
	if err != nil {
		s.fail(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusCreated, uploadResponse{URLs: urls})
}
