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

// MaxUploadBytes caps a multipart upload request.
const MaxUploadBytes = 10 << 20

// UploadHandler accepts listing images.
type UploadHandler struct {
	uploadService *services.UploadService
	logger        *zap.Logger
}

func NewUploadHandler(uploadService *services.UploadService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{uploadService: uploadService, logger: loggerOrNop(logger)}
}

// UploadRouter registers upload routes on the given router.
func UploadRouter(r chi.Router, uploadService *services.UploadService, logger *zap.Logger) {
	handler := NewUploadHandler(uploadService, logger)

	r.Post("/", handler.Upload)
	r.Post("/sign", handler.Sign)
}

// Upload godoc
// @Summary Subir imagen
// @Description Recibe el campo multipart `image` y devuelve la URL pública.
// @Tags uploads
// @Accept mpfd
// @Produce json
// @Param image formData file true "Imagen de la mascota"
// @Success 200 {object} UploadResponse
// @Failure 400 {object} ErrorResponse
// @Failure 413 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse "Error al subir la imagen"
// @Router /upload [post]
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "La imagen supera los 10 MB")
			return
		}
		writeError(w, http.StatusBadRequest, "No se recibió ninguna imagen")
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "No se recibió ninguna imagen")
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	url, err := h.uploadService.Upload(r.Context(), header.Filename, file, header.Size, contentType)
	if err != nil {
		h.logger.Error("error al subir la imagen", zap.String("filename", header.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al subir la imagen")
		return
	}

	writeJSON(w, http.StatusOK, UploadResponse{URL: url})
}

// Sign godoc
// @Summary Firmar subida directa
// @Description Devuelve cómo subir la imagen directamente al almacenamiento sin pasar por el servidor.
// @Tags uploads
// @Accept json
// @Produce json
// @Param payload body SignRequest true "Archivo a subir"
// @Success 200 {object} types.DirectUpload
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /upload/sign [post]
func (h *UploadHandler) Sign(w http.ResponseWriter, r *http.Request) {
	var req SignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}
	req.Filename = strings.TrimSpace(req.Filename)
	if req.Filename == "" {
		writeError(w, http.StatusBadRequest, "Falta el nombre del archivo")
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	direct, err := h.uploadService.Sign(r.Context(), req.Filename, req.ContentType)
	if err != nil {
		h.logger.Error("error al firmar la subida", zap.String("filename", req.Filename), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "Error al firmar la subida")
		return
	}

	writeJSON(w, http.StatusOK, direct)
}

type UploadResponse struct {
	URL string `json:"url"`
}

type SignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
}
