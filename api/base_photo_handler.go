package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

// ListBasePhotosHandler lists the photos the user uploaded earlier
func (s *Server) ListBasePhotosHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Base Photos API]")

	userID, ok := currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}

	photos, err := s.tryOns.BasePhotos(r.Context(), userID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to list base photos: %v", err))
		utils.RespondError(w, nil, "Failed to fetch images", http.StatusInternalServerError)
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{"images": photos})
}

// UploadBasePhotosHandler stores new base photos sent as multipart "images"
func (s *Server) UploadBasePhotosHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Base Photos Upload API]")

	userID, ok := currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes*tryon.MaxBasePhotos)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files := make([]tryon.UploadedImage, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error opening file %s", header.Filename), http.StatusBadRequest)
			return
		}
		defer file.Close()
		files = append(files, uploadedImage(file, header))
	}

	stored, err := s.tryOns.UploadBasePhotos(r.Context(), userID, files)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Uploaded %d base photos", len(stored)))
	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{"images": stored})
}
