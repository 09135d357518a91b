package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"go.uber.org/zap"
)

type ShelterHandler struct {
	shelterService *services.ShelterService
	logger         *zap.Logger
}

func NewShelterHandler(shelterService *services.ShelterService, logger *zap.Logger) *ShelterHandler {
	return &ShelterHandler{shelterService: shelterService, logger: loggerOrNop(logger)}
}

// ShelterRouter registers shelter routes on the given router.
func ShelterRouter(r chi.Router, shelterService *services.ShelterService, logger *zap.Logger) {
	handler := NewShelterHandler(shelterService, logger)

	r.Get("/codes", handler.Codes)
}

// Codes godoc
// @Summary Códigos de refugio
// @Description Códigos únicos en orden ascendente.
// @Tags shelters
// @Produce json
// @Success 200 {array} string
// @Failure 500 {object} MessageResponse
// @Router /shelters/codes [get]
func (h *ShelterHandler) Codes(w http.ResponseWriter, r *http.Request) {
	codes, err := h.shelterService.Codes(r.Context())
	if err != nil {
		writeServerError(w, r, h.logger, "Error al obtener códigos de refugio", err)
		return
	}
	writeJSON(w, http.StatusOK, codes)
}
