package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

// AttachResultHandler attaches the generated photo to a try-on request, either from
// a multipart "image" file or by downloading "result_url"
func (s *Server) AttachResultHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Operator Result API]")

	id := chi.URLParam(r, "id")
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("TryOnID: %s", id))

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	err := r.ParseMultipartForm(s.cfg.MaxUploadBytes)
	if errors.Is(err, http.ErrNotMultipart) {
		err = r.ParseForm()
	}
	if err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	var rec *models.TryOn
	file, _, ferr := r.FormFile("image")
	switch {
	case ferr == nil:
		defer file.Close()
		rec, err = s.fulfiller.AttachResult(r.Context(), id, file)
	case r.FormValue("result_url") != "":
		rec, err = s.fulfiller.AttachResultFromURL(r.Context(), id, r.FormValue("result_url"))
	default:
		err = &tryon.ValidationError{Fields: map[string]string{"image": "Provide an image file or a result_url"}}
	}
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Attached %s", rec.GeneratedPhoto))
	utils.RespondJSON(w, http.StatusOK, rec)
}

// RenderResultHandler renders the try-on photo with the image model and attaches it
func (s *Server) RenderResultHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Operator Render API]")

	id := chi.URLParam(r, "id")
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("TryOnID: %s", id))

	rec, err := s.fulfiller.Render(r.Context(), id)
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Rendered %s", rec.GeneratedPhoto))
	utils.RespondJSON(w, http.StatusOK, rec)
}
