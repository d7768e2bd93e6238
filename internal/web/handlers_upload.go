package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/JonMunkholm/csvviz/internal/core"
	"github.com/JonMunkholm/csvviz/internal/logging"
)

// multipartSlack covers multipart boundaries and part headers on top of
// the file size limit.
const multipartSlack = 64 << 10

// handleUpload accepts one CSV file in the multipart field "file".
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.service.Options().MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartSlack)

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.respondError(w, r, s.service.TooLarge())
			return
		}
		respondMessage(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			respondMessage(w, http.StatusBadRequest, "No file provided")
			return
		}
		s.respondError(w, r, err)
		return
	}
	defer file.Close()

	logging.WithFields(r.Context(), "filename", header.Filename, "size", header.Size).
		Debug("upload received")

	result, err := s.service.Upload(r.Context(), uploadInput(header, file))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func uploadInput(header *multipart.FileHeader, file multipart.File) core.UploadInput {
	return core.UploadInput{
		Filename: header.Filename,
		Size:     header.Size,
		Body:     file,
	}
}
