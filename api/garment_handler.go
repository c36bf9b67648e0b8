package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitting-room/garments"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

// GarmentPreviewHandler reads the title and product image behind a garment link
func (s *Server) GarmentPreviewHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Garment Preview API]")

	link := r.URL.Query().Get("url")
	if !tryon.IsValidURL(link) {
		utils.RespondFieldErrors(w, &logMessageBuilder, "Invalid request", map[string]string{"url": "Please enter a valid URL"})
		return
	}
	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Previewing URL: %s", link))

	preview, err := s.previewer.Preview(r.Context(), link)
	if errors.Is(err, garments.ErrBlockedHost) {
		utils.RespondFieldErrors(w, &logMessageBuilder, "Invalid request", map[string]string{"url": "This link cannot be previewed"})
		return
	}
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Preview failed: %v", err))
		utils.RespondError(w, nil, "Could not read the garment page", http.StatusBadGateway)
		return
	}

	utils.RespondJSON(w, http.StatusOK, preview)
}
