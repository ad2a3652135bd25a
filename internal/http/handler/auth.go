package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/minsu-kang/taskhub-api/internal/service"
)

const maxAuthBodySize = 1 << 20 // 1 MB

// Multipart profile updates carry an image; cap well above typical avatars.
const maxProfileBodySize = 5 << 20 // 5 MB

// AuthHandler handles registration, login, and profile requests.
type AuthHandler struct {
	svc *service.AuthService
}

func NewAuthHandler(svc *service.AuthService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// ServeHTTP routes /api/v1/auth/* requests.
func (h *AuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1/auth/")
	path = strings.TrimRight(path, "/")

	switch path {
	case "register":
		h.require(http.MethodPost, w, r, h.handleRegister)
	case "login":
		h.require(http.MethodPost, w, r, h.handleLogin)
	case "me":
		h.require(http.MethodGet, w, r, h.handleMe)
	case "profile":
		h.require(http.MethodPut, w, r, h.handleUpdateProfile)
	case "password":
		h.require(http.MethodPut, w, r, h.handleChangePassword)
	default:
		WriteError(w, http.StatusNotFound, "NOT_FOUND", "endpoint not found")
	}
}

func (h *AuthHandler) require(method string, w http.ResponseWriter, r *http.Request, handler func(http.ResponseWriter, *http.Request)) {
	if r.Method != method {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "method not allowed")
		return
	}
	limit := int64(maxAuthBodySize)
	if method == http.MethodPut && strings.HasSuffix(r.URL.Path, "profile") {
		limit = maxProfileBodySize
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	handler(w, r)
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	out, err := h.svc.Register(r.Context(), service.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, out)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	out, err := h.svc.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, out)
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	user, err := h.svc.Profile(r.Context(), getUserID(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

// handleUpdateProfile accepts multipart/form-data with an optional "name"
// field and an optional "avatar" file part.
func (h *AuthHandler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxProfileBodySize); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_FORM", "invalid multipart form")
		return
	}

	input := service.UpdateProfileInput{}

	if name := r.FormValue("name"); name != "" {
		input.Name = &name
	}

	file, header, err := r.FormFile("avatar")
	if err == nil {
		defer file.Close()
		input.Avatar = file
		input.ContentType = header.Header.Get("Content-Type")
	} else if err != http.ErrMissingFile {
		WriteError(w, http.StatusBadRequest, "INVALID_FORM", "invalid avatar upload")
		return
	}

	user, err := h.svc.UpdateProfile(r.Context(), getUserID(r), input)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, user)
}

func (h *AuthHandler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_JSON", "invalid request body")
		return
	}

	if err := h.svc.ChangePassword(r.Context(), getUserID(r), service.ChangePasswordInput{
		CurrentPassword: req.CurrentPassword,
		NewPassword:     req.NewPassword,
	}); err != nil {
		handleServiceError(w, err)
		return
	}

	WriteJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
}
