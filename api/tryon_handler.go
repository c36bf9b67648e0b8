package api

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

const (
	imageSelectionUpload = "upload"
	imageSelectionSelect = "select"

	linkSelectionTopBottom = "topBottom"
	linkSelectionFullBody  = "fullBody"

	submittedMessage     = "You'll receive a mail with the results in the next 24hs"
	redirectAfterSeconds = 5
)

// TryOnForm is the multipart try-on form without its file part.
type TryOnForm struct {
	ImageSelection string `schema:"imageSelection"`
	SelectedImage  string `schema:"selectedImage"`
	LinkSelection  string `schema:"linkSelection"`
	TopLink        string `schema:"topLink"`
	BottomLink     string `schema:"bottomLink"`
	FullBodyLink   string `schema:"fullBodyLink"`
	JacketLink     string `schema:"jacketLink"`
	ShoesLink      string `schema:"shoesLink"`
}

type TryOnResponse struct {
	Message              string        `json:"message"`
	TryOn                *models.TryOn `json:"tryon"`
	Notified             bool          `json:"notified"`
	RedirectAfterSeconds int           `json:"redirect_after_seconds"`
}

// garments turns the link fields into the selection of the chosen mode.
func (f TryOnForm) garments() (tryon.GarmentSelection, error) {
	selection := tryon.GarmentSelection{Jacket: f.JacketLink, Shoes: f.ShoesLink}
	switch f.LinkSelection {
	case linkSelectionTopBottom, "":
		selection.Outfit = tryon.Separates{Top: f.TopLink, Bottom: f.BottomLink}
	case linkSelectionFullBody:
		selection.Outfit = tryon.FullBodyOutfit{Garment: f.FullBodyLink}
	default:
		return selection, &tryon.ValidationError{Fields: map[string]string{"linkSelection": "Unknown link selection"}}
	}
	return selection, nil
}

// SubmitTryOnHandler accepts the try-on form and hands it to the submission orchestrator
func (s *Server) SubmitTryOnHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Try-On API]")

	userID, ok := currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error parsing form data: %v", err), http.StatusBadRequest)
		return
	}
	defer r.MultipartForm.RemoveAll()

	var form TryOnForm
	if err := s.decoder.Decode(&form, r.MultipartForm.Value); err != nil {
		utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Invalid form fields: %v", err), http.StatusBadRequest)
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("imageSelection=%s linkSelection=%s", form.ImageSelection, form.LinkSelection))

	var selector tryon.BaseImageSelector
	switch form.ImageSelection {
	case imageSelectionSelect:
		selector.Pick(form.SelectedImage)
	case imageSelectionUpload, "":
		selector.SetMode(tryon.ModeUpload)
		file, header, err := r.FormFile("image")
		if err == nil {
			defer file.Close()
			selector.Drop(uploadedImage(file, header))
		} else if !errors.Is(err, http.ErrMissingFile) {
			utils.RespondError(w, &logMessageBuilder, fmt.Sprintf("Error reading image: %v", err), http.StatusBadRequest)
			return
		}
	default:
		respondServiceError(w, &logMessageBuilder, &tryon.ValidationError{
			Fields: map[string]string{"imageSelection": "Unknown image selection"},
		})
		return
	}

	garments, err := form.garments()
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	receipt, err := s.tryOns.Submit(r.Context(), tryon.Submission{
		UserID:   userID,
		Image:    selector.Source(),
		Garments: garments,
	})
	if err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Try-on %s saved, notified=%t", receipt.TryOn.ID, receipt.Notified))
	utils.RespondJSON(w, http.StatusCreated, TryOnResponse{
		Message:              submittedMessage,
		TryOn:                receipt.TryOn,
		Notified:             receipt.Notified,
		RedirectAfterSeconds: redirectAfterSeconds,
	})
}

func uploadedImage(file multipart.File, header *multipart.FileHeader) tryon.UploadedImage {
	return tryon.UploadedImage{
		Body:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
	}
}
