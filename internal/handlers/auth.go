package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/services"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/store"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/internal/token"
	"github.com/moksh-codedeveloper/E-Commerce-app-BE/types"
)

const refreshCookieName = "refreshToken"

// AuthHandler exposes registration, OTP verification, login, token
// refresh and password recovery endpoints.
type AuthHandler struct {
	auth          *services.AuthService
	tokens        *token.Service
	secureCookies bool
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth *services.AuthService, tokens *token.Service, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		auth:          auth,
		tokens:        tokens,
		secureCookies: secureCookies,
	}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, auth *services.AuthService, tokens *token.Service, secureCookies bool) {
	handler := NewAuthHandler(auth, tokens, secureCookies)

	r.Post("/register", handler.Register)
	r.Post("/verify-phone-otp", handler.VerifyPhoneOTP)
	r.Post("/verify-email-otp", handler.VerifyEmailOTP)
	r.Post("/resend-phone-otp", handler.ResendPhoneOTP)
	r.Post("/resend-email-otp", handler.ResendEmailOTP)
	r.Post("/login", handler.Login)
	r.Post("/refresh", handler.Refresh)
	r.Post("/logout", handler.Logout)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password", handler.ResetPassword)
	r.With(RequireAuth(tokens)).Get("/me", handler.Me)
	r.With(RequireAuth(tokens), RequireRole(types.RoleAdmin)).Get("/admin/users", handler.ListUsers)
}

// Register creates a new user account and sends verification codes over
// both channels.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	req.PhoneNumber = strings.TrimSpace(req.PhoneNumber)
	if req.Username == "" || req.Email == "" || req.PhoneNumber == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	user, delivery, err := h.auth.Register(r.Context(), services.RegisterInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrAdminEmail):
			writeError(w, http.StatusForbidden, "email is not available")
		case errors.Is(err, services.ErrAccountExists):
			writeError(w, http.StatusConflict, "account already exists")
		default:
			writeError(w, http.StatusInternalServerError, "failed to register")
		}
		return
	}

	writeJSON(w, http.StatusCreated, RegisterResponse{
		Message:  "registered successfully",
		User:     user,
		Delivery: delivery,
	})
}

// VerifyPhoneOTP checks the code sent to the account's phone.
func (h *AuthHandler) VerifyPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyPhoneOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.UserID == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	valid, err := h.auth.VerifyPhoneOTP(r.Context(), req.UserID, req.OTP)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify otp")
		return
	}
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid or expired otp")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "phone verified successfully"})
}

// VerifyEmailOTP checks the code sent to the account's email.
func (h *AuthHandler) VerifyEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyEmailOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.Email == "" || req.OTP == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	valid, err := h.auth.VerifyEmailOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify otp")
		return
	}
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid or expired otp")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "email verified successfully"})
}

// ResendPhoneOTP regenerates and resends the phone code. Delivery
// failures are surfaced here, unlike during registration.
func (h *AuthHandler) ResendPhoneOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendPhoneOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.auth.ResendPhoneOTP(r.Context(), req.UserID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resend otp")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "otp resent successfully"})
}

// ResendEmailOTP regenerates and resends the email code.
func (h *AuthHandler) ResendEmailOTP(w http.ResponseWriter, r *http.Request) {
	var req ResendEmailOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if err := h.auth.ResendEmailOTP(r.Context(), req.Email); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to resend otp")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "otp resent successfully"})
}

// Login verifies credentials, returns an access token in the body and
// sets the refresh token as an HTTP-only cookie.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "missing credentials")
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to authenticate")
		return
	}

	h.setRefreshCookie(w, result.RefreshToken)
	writeJSON(w, http.StatusOK, LoginResponse{
		Message:     "logged in successfully",
		AccessToken: result.AccessToken,
		User:        result.Profile,
	})
}

// Refresh reads the refresh cookie and mints a new access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookieName)
	if err != nil || strings.TrimSpace(cookie.Value) == "" {
		writeError(w, http.StatusUnauthorized, "missing refresh token")
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		switch {
		case errors.Is(err, token.ErrTokenExpired):
			writeError(w, http.StatusUnauthorized, "token expired")
		case errors.Is(err, token.ErrTokenInvalid):
			writeError(w, http.StatusUnauthorized, "invalid token")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to refresh token")
		}
		return
	}

	writeJSON(w, http.StatusOK, RefreshResponse{AccessToken: accessToken})
}

// Logout clears the refresh cookie. Already-issued access tokens stay
// valid until their own expiry.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.clearRefreshCookie(w)
	writeJSON(w, http.StatusOK, MessageResponse{Message: "logged out successfully"})
}

// ForgotPassword starts password recovery. The response body is the
// same whether or not the email is registered.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if req.Email == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	if _, err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		if errors.Is(err, services.ErrAdminEmail) {
			writeError(w, http.StatusForbidden, "password reset is not available for this account")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to process request")
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "if the email exists, an otp has been sent"})
}

// ResetPassword verifies OTP proof from either channel and stores the
// new password.
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request")
		return
	}

	req.VerificationType = strings.TrimSpace(req.VerificationType)
	req.OTP = strings.TrimSpace(req.OTP)
	if req.VerificationType == "" || req.OTP == "" || req.NewPassword == "" {
		writeError(w, http.StatusBadRequest, "missing required fields")
		return
	}

	err := h.auth.ResetPassword(r.Context(), services.ResetPasswordInput{
		VerificationType: req.VerificationType,
		UserID:           strings.TrimSpace(req.UserID),
		Email:            strings.TrimSpace(req.Email),
		OTP:              req.OTP,
		NewPassword:      req.NewPassword,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidVerification):
			writeError(w, http.StatusBadRequest, "invalid verification type")
		case errors.Is(err, services.ErrInvalidOTP):
			writeError(w, http.StatusBadRequest, "invalid or expired otp")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "account not found")
		default:
			writeError(w, http.StatusInternalServerError, "failed to reset password")
		}
		return
	}

	writeJSON(w, http.StatusOK, MessageResponse{Message: "password reset successfully"})
}

// Me returns the profile for the authenticated identity.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, ok := identityFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	profile, err := h.auth.CurrentUser(r.Context(), identity)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// ListUsers returns every stored account. Admin only.
func (h *AuthHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.auth.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, UsersResponse{Users: users, Count: len(users)})
}

func (h *AuthHandler) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   int(token.RefreshTokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

func (h *AuthHandler) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	})
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phonenumber"`
}

type RegisterResponse struct {
	Message  string                  `json:"message"`
	User     types.User              `json:"user"`
	Delivery services.DeliveryReport `json:"delivery"`
}

type VerifyPhoneOTPRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type VerifyEmailOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type ResendPhoneOTPRequest struct {
	UserID string `json:"userId"`
}

type ResendEmailOTPRequest struct {
	Email string `json:"email"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Message     string           `json:"message"`
	AccessToken string           `json:"accessToken"`
	User        services.Profile `json:"user"`
}

type RefreshResponse struct {
	AccessToken string `json:"accessToken"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	VerificationType string `json:"verificationType"`
	UserID           string `json:"userId"`
	Email            string `json:"email"`
	OTP              string `json:"otp"`
	NewPassword      string `json:"newPassword"`
}

type UsersResponse struct {
	Users []types.User `json:"users"`
	Count int          `json:"count"`
}
