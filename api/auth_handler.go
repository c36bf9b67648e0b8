package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/store"
	"github.com/raushankrgupta/fitting-room/utils"
)

const oauthStateCookie = "oauth_state"

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func newOAuthState() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// GoogleLoginHandler handles the login request by redirecting to Google
func (s *Server) GoogleLoginHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Google Login API]")

	state, err := newOAuthState()
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to create state: %v", err))
		utils.RespondError(w, nil, "Failed to start login", http.StatusInternalServerError)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/auth/google",
		Expires:  time.Now().Add(10 * time.Minute),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	utils.AddToLogMessage(&logMessageBuilder, "Redirecting to Google Auth")
	http.Redirect(w, r, s.oauth.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallbackHandler exchanges the code, finds or creates the user and issues a token
func (s *Server) GoogleCallbackHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Google Callback API]")

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || r.FormValue("state") != cookie.Value {
		utils.RespondError(w, &logMessageBuilder, "State invalid", http.StatusBadRequest)
		return
	}

	code := r.FormValue("code")
	if code == "" {
		utils.RespondError(w, &logMessageBuilder, "Code not found", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	token, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to exchange token: %v", err))
		utils.RespondError(w, nil, "Failed to exchange token", http.StatusBadGateway)
		return
	}

	var info googleUserInfo
	res, err := s.userInfo.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetResult(&info).
		Get(s.userInfoURL)
	if err != nil || !res.IsSuccess() {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to get user info: %v", err))
		utils.RespondError(w, nil, "Failed to get user info", http.StatusBadGateway)
		return
	}

	user, err := s.googleUser(r, &info)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to load user: %v", err))
		utils.RespondError(w, nil, "Failed to load user", http.StatusInternalServerError)
		return
	}

	jwtToken, err := utils.GenerateToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to generate token: %v", err))
		utils.RespondError(w, nil, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Successfully retrieved user info from Google")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   jwtToken,
		"user":    user,
	})
}

// googleUser returns the user for a Google account, linking or creating it as needed.
// Google has verified the address, so the account is active right away.
func (s *Server) googleUser(r *http.Request, info *googleUserInfo) (*models.User, error) {
	ctx := r.Context()
	email := normalizeEmail(info.Email)
	if email == "" {
		return nil, errors.New("google account has no email")
	}

	user, err := s.users.FindUserByEmail(ctx, email)
	if err == nil {
		if user.GoogleID == info.ID && user.Status == models.UserActive {
			return user, nil
		}
		user.GoogleID = info.ID
		user.Status = models.UserActive
		clearOTP(user)
		user.UpdatedAt = time.Now().UTC()
		return user, s.users.UpdateUser(ctx, user)
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	now := time.Now().UTC()
	user = &models.User{
		ID:        uuid.NewString(),
		Name:      info.Name,
		Email:     email,
		GoogleID:  info.ID,
		Status:    models.UserActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return user, s.users.CreateUser(ctx, user)
}
