package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/raushankrgupta/fitting-room/render"
	"github.com/raushankrgupta/fitting-room/tryon"
	"github.com/raushankrgupta/fitting-room/utils"
)

// respondServiceError maps errors from the try-on services to HTTP responses.
func respondServiceError(w http.ResponseWriter, logger *strings.Builder, err error) {
	var verr *tryon.ValidationError
	var uerr *tryon.UploadError
	var perr *tryon.PersistError

	switch {
	case errors.As(err, &verr):
		utils.RespondFieldErrors(w, logger, "Invalid request", verr.Fields)
	case errors.Is(err, tryon.ErrSubmissionInProgress):
		utils.RespondError(w, logger, "A submission is already in progress", http.StatusConflict)
	case errors.Is(err, tryon.ErrNotFound):
		utils.RespondError(w, logger, "Try-on not found", http.StatusNotFound)
	case errors.As(err, &uerr):
		utils.RespondError(w, logger, uerr.Error(), http.StatusInternalServerError)
	case errors.As(err, &perr):
		utils.RespondError(w, logger, perr.Error(), http.StatusInternalServerError)
	case errors.Is(err, tryon.ErrRendererUnavailable):
		utils.RespondError(w, logger, "Rendering is not configured", http.StatusServiceUnavailable)
	case errors.Is(err, render.ErrQuotaExceeded):
		utils.RespondError(w, logger, "Quota exceeded. Please try again later.", http.StatusTooManyRequests)
	default:
		if logger != nil {
			utils.AddToLogMessage(logger, fmt.Sprintf("Unexpected error: %v", err))
		}
		utils.RespondError(w, nil, "Internal server error", http.StatusInternalServerError)
	}
}

func currentUser(w http.ResponseWriter, r *http.Request, logger *strings.Builder) (string, bool) {
	userID, err := GetUserIDFromContext(r.Context())
	if err != nil {
		utils.RespondError(w, logger, "Unauthorized", http.StatusUnauthorized)
		return "", false
	}
	utils.AddToLogMessage(logger, fmt.Sprintf("UserID: %s", userID))
	return userID, true
}
