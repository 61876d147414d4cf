package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/catalog"
)

// CatalogHandler serves the static lookup tables.
type CatalogHandler struct{}

// NewCatalogHandler returns a catalog handler.
func NewCatalogHandler() *CatalogHandler { return &CatalogHandler{} }

// Cities lists supported cities.
func (h *CatalogHandler) Cities(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"cities":  catalog.Cities(),
		"default": catalog.DefaultCity,
	})
}

// Hospitals lists hospitals in the {city} path parameter.
func (h *CatalogHandler) Hospitals(w http.ResponseWriter, r *http.Request) {
	city := chi.URLParam(r, "city")
	if !catalog.IsCity(city) {
		writeError(w, http.StatusNotFound, "unknown city")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"city":      city,
		"hospitals": catalog.HospitalsByCity(city),
	})
}

// AmbulanceTypes lists the vehicle tiers.
func (h *CatalogHandler) AmbulanceTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ambulanceTypes": booking.Options(),
		"default":        booking.DefaultAmbulanceType,
	})
}
