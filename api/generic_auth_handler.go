package api

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/fitting-room/models"
	"github.com/raushankrgupta/fitting-room/store"
	"github.com/raushankrgupta/fitting-room/utils"
	"golang.org/x/crypto/bcrypt"
)

// SignupRequest represents the payload for user registration
type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents the payload for user login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents the payload for forgot password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// VerifyOTPRequest represents the payload for verifying OTP
type VerifyOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// ResetPasswordRequest represents the payload for resetting password
type ResetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"new_password"`
}

const (
	otpTTL         = 10 * time.Minute
	maxOTPAttempts = 5
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// sendOTP mails the code; a failure is logged and left to the client to retry.
func (s *Server) sendOTP(ctx context.Context, logger *strings.Builder, user *models.User, subject, intro string) error {
	err := s.mailer.SendEmail(ctx, user.Name, user.Email, subject,
		fmt.Sprintf("%s: %s", intro, user.OTP),
		fmt.Sprintf("<h1>%s: <strong>%s</strong></h1>", intro, user.OTP))
	if err != nil {
		utils.AddToLogMessage(logger, fmt.Sprintf("Failed to send email: %v", err))
	}
	return err
}

// issueOTP puts a fresh code on user and restarts its expiry and attempt count.
func issueOTP(user *models.User) error {
	code, err := utils.GenerateOTP()
	if err != nil {
		return err
	}
	user.OTP = code
	user.OTPExpiresAt = time.Now().UTC().Add(otpTTL)
	user.OTPAttempts = 0
	return nil
}

func clearOTP(user *models.User) {
	user.OTP = ""
	user.OTPExpiresAt = time.Time{}
	user.OTPAttempts = 0
}

// checkOTP reports whether code is the user's live OTP. Otherwise it has already
// written the error response, and a wrong guess has been counted.
func (s *Server) checkOTP(w http.ResponseWriter, logger *strings.Builder, ctx context.Context, user *models.User, code string) bool {
	if user.OTP == "" || !time.Now().Before(user.OTPExpiresAt) {
		utils.RespondError(w, logger, "OTP expired, please request a new one", http.StatusUnauthorized)
		return false
	}
	if user.OTPAttempts >= maxOTPAttempts {
		utils.RespondError(w, logger, "Too many invalid OTP attempts, please request a new one", http.StatusTooManyRequests)
		return false
	}
	if subtle.ConstantTimeCompare([]byte(user.OTP), []byte(code)) != 1 {
		user.OTPAttempts++
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.UpdateUser(ctx, user); err != nil {
			utils.AddToLogMessage(logger, fmt.Sprintf("Failed to record OTP attempt: %v", err))
		}
		utils.RespondError(w, logger, "Invalid OTP", http.StatusUnauthorized)
		return false
	}
	return true
}

// SignupHandler handles user registration
func (s *Server) SignupHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Signup API]")

	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Name == "" || req.Email == "" || req.Password == "" {
		utils.RespondError(w, &logMessageBuilder, "Name, Email and Password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	_, err := s.users.FindUserByEmail(ctx, req.Email)
	if err == nil {
		utils.RespondError(w, &logMessageBuilder, "User with this email already exists", http.StatusConflict)
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Database error checking user: %v", err))
		utils.RespondError(w, nil, "Database error checking user", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to hash password: %v", err))
		utils.RespondError(w, nil, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	now := time.Now().UTC()
	newUser := &models.User{
		ID:        uuid.NewString(),
		Name:      req.Name,
		Email:     req.Email,
		Password:  string(hashedPassword),
		Status:    models.UserPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := issueOTP(newUser); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, err.Error())
		utils.RespondError(w, nil, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if err := s.users.CreateUser(ctx, newUser); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			utils.RespondError(w, &logMessageBuilder, "User with this email already exists", http.StatusConflict)
			return
		}
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to create user: %v", err))
		utils.RespondError(w, nil, "Failed to create user", http.StatusInternalServerError)
		return
	}

	if s.sendOTP(ctx, &logMessageBuilder, newUser, "Verify your email", "Your OTP is") == nil {
		utils.AddToLogMessage(&logMessageBuilder, "User registered successfully. Sent OTP email.")
	}

	utils.RespondJSON(w, http.StatusCreated, map[string]interface{}{
		"message": "User registered successfully. Please verify your email using the OTP sent.",
		"user":    newUser,
	})
}

// LoginHandler handles user login
func (s *Server) LoginHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Login API]")

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		utils.RespondError(w, &logMessageBuilder, "Email and Password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, err := s.users.FindUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("User not found: %s", req.Email))
			utils.RespondError(w, nil, "Invalid email or password", http.StatusUnauthorized)
		} else {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Database error: %v", err))
			utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		}
		return
	}

	if user.Password == "" || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		utils.AddToLogMessage(&logMessageBuilder, "Invalid password")
		utils.RespondError(w, nil, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	if user.Status == models.UserPending {
		utils.RespondError(w, &logMessageBuilder, "Please verify your email first", http.StatusForbidden)
		return
	}

	if user.Status == models.UserVerified {
		user.Status = models.UserActive
		user.UpdatedAt = time.Now().UTC()
		if err := s.users.UpdateUser(ctx, user); err != nil {
			utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to update status to active: %v", err))
		} else {
			utils.AddToLogMessage(&logMessageBuilder, "User status updated to active")
		}
	}

	token, err := utils.GenerateToken(s.cfg.JWTSecret, user.ID, s.cfg.TokenTTL)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to generate token: %v", err))
		utils.RespondError(w, nil, "Failed to generate token", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Login successful")
	utils.RespondJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful",
		"token":   token,
		"user":    user,
	})
}

// VerifyOTPHandler handles OTP verification
func (s *Server) VerifyOTPHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Verify OTP API]")

	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.OTP == "" {
		utils.RespondError(w, &logMessageBuilder, "Email and OTP are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, ok := s.findUser(w, &logMessageBuilder, ctx, req.Email)
	if !ok {
		return
	}

	if !s.checkOTP(w, &logMessageBuilder, ctx, user, req.OTP) {
		return
	}

	if user.Status != models.UserPending {
		// the OTP stays valid for the reset-password call
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"message": "OTP verified successfully. Please proceed to reset password.",
		})
		return
	}

	user.Status = models.UserVerified
	clearOTP(user)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to update user status: %v", err))
		utils.RespondError(w, nil, "Failed to update user status", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "OTP verified successfully")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Email verification successful! You can now login.",
	})
}

// ForgotPasswordHandler mails a fresh OTP for resetting the password
func (s *Server) ForgotPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Forgot Password API]")

	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" {
		utils.RespondError(w, &logMessageBuilder, "Email is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, ok := s.findUser(w, &logMessageBuilder, ctx, req.Email)
	if !ok {
		return
	}

	if err := issueOTP(user); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, err.Error())
		utils.RespondError(w, nil, "Failed to update user", http.StatusInternalServerError)
		return
	}
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to update user OTP: %v", err))
		utils.RespondError(w, nil, "Failed to update user", http.StatusInternalServerError)
		return
	}

	if err := s.sendOTP(ctx, &logMessageBuilder, user, "Reset Password OTP", "Your OTP for password reset is"); err != nil {
		utils.RespondError(w, nil, "Failed to send email", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "OTP for password reset sent")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "OTP sent to your email.",
	})
}

// ResetPasswordHandler handles password reset with OTP
func (s *Server) ResetPasswordHandler(w http.ResponseWriter, r *http.Request) {
	var logMessageBuilder strings.Builder
	defer func() {
		fmt.Println(logMessageBuilder.String())
	}()
	utils.AddToLogMessage(&logMessageBuilder, "[Reset Password API]")

	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.RespondError(w, &logMessageBuilder, "Invalid request body", http.StatusBadRequest)
		return
	}

	req.Email = normalizeEmail(req.Email)
	if req.Email == "" || req.OTP == "" || req.NewPassword == "" {
		utils.RespondError(w, &logMessageBuilder, "Email, OTP and New Password are required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()

	user, ok := s.findUser(w, &logMessageBuilder, ctx, req.Email)
	if !ok {
		return
	}

	if !s.checkOTP(w, &logMessageBuilder, ctx, user, req.OTP) {
		return
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to hash password: %v", err))
		utils.RespondError(w, nil, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	user.Password = string(hashedPassword)
	clearOTP(user)
	user.UpdatedAt = time.Now().UTC()
	if err := s.users.UpdateUser(ctx, user); err != nil {
		utils.AddToLogMessage(&logMessageBuilder, fmt.Sprintf("Failed to update password: %v", err))
		utils.RespondError(w, nil, "Failed to update password", http.StatusInternalServerError)
		return
	}

	utils.AddToLogMessage(&logMessageBuilder, "Password reset successfully")
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": "Password reset successfully. Please login with your new password.",
	})
}

func (s *Server) findUser(w http.ResponseWriter, logger *strings.Builder, ctx context.Context, email string) (*models.User, bool) {
	user, err := s.users.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		utils.RespondError(w, logger, "User not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		utils.AddToLogMessage(logger, fmt.Sprintf("Database error: %v", err))
		utils.RespondError(w, nil, "Database error", http.StatusInternalServerError)
		return nil, false
	}
	return user, true
}
