package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

// GalleryResponse represents the response structure for the gallery API
type GalleryResponse struct {
	Images      []tryon.GalleryItem `json:"images"`
	Total       int                 `json:"total"`
	CurrentPage int                 `json:"current_page"`
	TotalPages  int                 `json:"total_pages"`
}

// GalleryQuery pages the gallery. A zero limit returns every item.
type GalleryQuery struct {
	Page  int `schema:"page"`
	Limit int `schema:"limit"`
}

func paginate(items []tryon.GalleryItem, q GalleryQuery) GalleryResponse {
	resp := GalleryResponse{Total: len(items), CurrentPage: 1}
	if q.Limit <= 0 {
		resp.Images = items
		if len(items) > 0 {
			resp.TotalPages = 1
		}
		return resp
	}

	if q.Page > 0 {
		resp.CurrentPage = q.Page
	}
	resp.TotalPages = (len(items) + q.Limit - 1) / q.Limit

	start := (resp.CurrentPage - 1) * q.Limit
	if start >= len(items) {
		resp.Images = []tryon.GalleryItem{}
		return resp
	}
	end := min(start+q.Limit, len(items))
	resp.Images = items[start:end]
	return resp
}

// GalleryHandler lists the user's try-on requests, newest first, with signed image URLs
func (s *Server) GalleryHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Gallery API]")

	userID, ok := currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}

	var query GalleryQuery
	if err := s.decoder.Decode(&query, r.URL.Query()); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid pagination parameters", http.StatusBadRequest)
		return
	}

	items, err := s.tryOns.Gallery(r.Context(), userID)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to fetch gallery: %v", err))
		utils.RespondError(w, nil, "Failed to fetch data", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Returning %d gallery items", len(items)))
	utils.RespondJSON(w, http.StatusOK, paginate(items, query))
}

// DeleteGalleryItemHandler soft-deletes one of the user's try-on requests
func (s *Server) DeleteGalleryItemHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Gallery Delete API]")

	userID, ok := currentUser(w, r, &logMessageBuilder)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if err := s.tryOns.DeleteFromGallery(r.Context(), userID, id); err != nil {
		respondServiceError(w, &logMessageBuilder, err)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Deleted try-on %s", id))
	utils.RespondJSON(w, http.StatusOK, map[string]string{"message": "Removed from gallery", "id": id})
}
