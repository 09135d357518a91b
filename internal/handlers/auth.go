package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"go.uber.org/zap"
)

// AuthHandler checks administrator credentials. It issues no session or
// token; clients only learn whether the login succeeded and the role.
type AuthHandler struct {
	authService *services.AuthService
	logger      *zap.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(authService *services.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{authService: authService, logger: loggerOrNop(logger)}
}

// AuthRouter registers auth routes on the given router.
func AuthRouter(r chi.Router, authService *services.AuthService, logger *zap.Logger) {
	handler := NewAuthHandler(authService, logger)

	r.Post("/login", handler.Login)
}

// Login godoc
// @Summary Iniciar sesión de administrador
// @Description Verifica usuario y contraseña. No emite sesión ni token; solo informa el rol.
// @Tags auth
// @Accept json
// @Produce json
// @Param payload body LoginRequest true "Credenciales"
// @Success 200 {object} LoginResponse
// @Failure 400 {object} LoginResponse "solicitud inválida"
// @Failure 401 {object} LoginResponse "Usuario no encontrado / Credenciales inválidas"
// @Failure 500 {object} LoginResponse "Error en el servidor"
// @Router /login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, LoginResponse{Message: "Solicitud inválida"})
		return
	}

	req.Username = strings.TrimSpace(req.Username)

	admin, err := h.authService.Login(r.Context(), req.Username, req.Password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, LoginResponse{Success: true, Role: admin.Role})
	case errors.Is(err, services.ErrUserNotFound):
		writeJSON(w, http.StatusUnauthorized, LoginResponse{Message: "Usuario no encontrado"})
	case errors.Is(err, services.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, LoginResponse{Message: "Credenciales inválidas"})
	default:
		h.logger.Error("error al autenticar", zap.String("username", req.Username), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, LoginResponse{Message: "Error en el servidor"})
	}
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool   `json:"success"`
	Role    string `json:"role,omitempty"`
	Message string `json:"message,omitempty"`
}
