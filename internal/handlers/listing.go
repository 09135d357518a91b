package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/patitas-adopcion/apiserver/internal/services"
	"github.com/patitas-adopcion/apiserver/internal/store"
	"github.com/patitas-adopcion/apiserver/types"
	"go.uber.org/zap"
)

// ListingHandler serves listing CRUD.
type ListingHandler struct {
	listingService *services.ListingService
	logger         *zap.Logger
}

// NewListingHandler constructs a ListingHandler with the provided dependencies.
func NewListingHandler(listingService *services.ListingService, logger *zap.Logger) *ListingHandler {
	return &ListingHandler{listingService: listingService, logger: loggerOrNop(logger)}
}

// ListingRouter registers listing routes on the given router.
func ListingRouter(r chi.Router, listingService *services.ListingService, logger *zap.Logger) {
	handler := NewListingHandler(listingService, logger)

	r.Get("/", handler.List)
	r.Post("/", handler.Create)
	r.Get("/recent", handler.Recent)
	r.Get("/{id}", handler.Get)
	r.Put("/{id}", handler.Update)
	r.Delete("/{id}", handler.Delete)
}

// List godoc
// @Summary Listar mascotas
// @Description Todas las mascotas con el nombre de su refugio (null si el código no existe).
// @Tags listings
// @Produce json
// @Param shelter_code query string false "Filtrar por código de refugio"
// @Success 200 {array} types.Listing
// @Failure 500 {object} MessageResponse
// @Router /listings [get]
func (h *ListingHandler) List(w http.ResponseWriter, r *http.Request) {
	listings, err := h.listingService.List(r.Context(), r.URL.Query().Get("shelter_code"))
	if err != nil {
		writeServerError(w, r, h.logger, "Error al obtener mascotas", err)
		return
	}
	if listings == nil {
		listings = []types.Listing{}
	}
	writeJSON(w, http.StatusOK, listings)
}

// Recent godoc
// @Summary Mascotas recientes
// @Description Las 10 mascotas más recientes, de la más nueva a la más antigua.
// @Tags listings
// @Produce json
// @Success 200 {array} types.RecentListing
// @Failure 500 {object} MessageResponse
// @Router /listings/recent [get]
func (h *ListingHandler) Recent(w http.ResponseWriter, r *http.Request) {
	recent, err := h.listingService.Recent(r.Context())
	if err != nil {
		writeServerError(w, r, h.logger, "Error al obtener mascotas recientes", err)
		return
	}
	if recent == nil {
		recent = []types.RecentListing{}
	}
	writeJSON(w, http.StatusOK, recent)
}

// Get godoc
// @Summary Obtener mascota
// @Tags listings
// @Produce json
// @Param id path int true "ID de la mascota"
// @Success 200 {object} types.Listing
// @Failure 400 {object} MessageResponse
// @Failure 404 {object} MessageResponse "Mascota no encontrada"
// @Failure 500 {object} MessageResponse
// @Router /listings/{id} [get]
func (h *ListingHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ID inválido")
		return
	}

	listing, err := h.listingService.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeMessage(w, http.StatusNotFound, "Mascota no encontrada")
			return
		}
		writeServerError(w, r, h.logger, "Error al obtener mascota", err)
		return
	}
	writeJSON(w, http.StatusOK, listing)
}

// Create godoc
// @Summary Publicar mascota
// @Description Campos requeridos: name, species, age, sex, contact_number, shelter_code. Un image_url vacío se guarda como null.
// @Tags listings
// @Accept json
// @Produce json
// @Param payload body ListingRequest true "Datos de la mascota"
// @Success 201 {object} MessageResponse "Mascota lista para adopción"
// @Failure 400 {object} MessageResponse "Faltan campos requeridos"
// @Failure 500 {object} MessageResponse
// @Router /listings [post]
func (h *ListingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	created, err := h.listingService.Create(r.Context(), req.toListing())
	if err != nil {
		if h.writeValidationError(w, err) {
			return
		}
		writeServerError(w, r, h.logger, "Error al procesar la solicitud", err)
		return
	}

	writeJSON(w, http.StatusCreated, MessageResponse{Message: "Mascota lista para adopción", ID: created.ID})
}

// Update godoc
// @Summary Actualizar mascota
// @Description Reemplaza todos los campos. Responde éxito aunque el ID no exista.
// @Tags listings
// @Accept json
// @Produce json
// @Param id path int true "ID de la mascota"
// @Param payload body ListingRequest true "Datos de la mascota"
// @Success 200 {object} MessageResponse "Mascota actualizada con éxito"
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /listings/{id} [put]
func (h *ListingHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ID inválido")
		return
	}

	var req ListingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeMessage(w, http.StatusBadRequest, "Solicitud inválida")
		return
	}

	if err := h.listingService.Update(r.Context(), id, req.toListing()); err != nil {
		if h.writeValidationError(w, err) {
			return
		}
		writeServerError(w, r, h.logger, "Error al actualizar mascota", err)
		return
	}

	writeMessage(w, http.StatusOK, "Mascota actualizada con éxito")
}

// Delete godoc
// @Summary Eliminar mascota
// @Description Responde éxito aunque el ID no exista.
// @Tags listings
// @Produce json
// @Param id path int true "ID de la mascota"
// @Success 200 {object} MessageResponse "Mascota eliminada con éxito"
// @Failure 400 {object} MessageResponse
// @Failure 500 {object} MessageResponse
// @Router /listings/{id} [delete]
func (h *ListingHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "ID inválido")
		return
	}

	if err := h.listingService.Delete(r.Context(), id); err != nil {
		writeServerError(w, r, h.logger, "Error al eliminar mascota", err)
		return
	}

	writeMessage(w, http.StatusOK, "Mascota eliminada con éxito")
}

func (h *ListingHandler) writeValidationError(w http.ResponseWriter, err error) bool {
	switch {
	case errors.Is(err, services.ErrMissingFields):
		writeMessage(w, http.StatusBadRequest, "Faltan campos requeridos")
		return true
	case errors.Is(err, services.ErrInvalidListing):
		writeJSON(w, http.StatusBadRequest, MessageResponse{Message: "Especie o sexo inválido", Error: err.Error()})
		return true
	}
	return false
}

// ListingRequest is the writable part of a listing.
type ListingRequest struct {
	Name          string  `json:"name"`
	Species       string  `json:"species"`
	Age           string  `json:"age"`
	Sex           string  `json:"sex"`
	Description   string  `json:"description"`
	ContactNumber string  `json:"contact_number"`
	ShelterCode   string  `json:"shelter_code"`
	ImageURL      *string `json:"image_url"`
}

func (req ListingRequest) toListing() types.Listing {
	return types.Listing{
		Name:          req.Name,
		Species:       types.Species(req.Species),
		Age:           req.Age,
		Sex:           types.Sex(req.Sex),
		Description:   req.Description,
		ContactNumber: req.ContactNumber,
		ShelterCode:   req.ShelterCode,
		ImageURL:      req.ImageURL,
	}
}
