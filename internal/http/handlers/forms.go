package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/catalog"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

// FormsHandler drives server-side booking forms.
type FormsHandler struct {
	forms     *booking.FormStore
	lifecycle Lifecycle
	logger    *logging.Logger
}

// NewFormsHandler wires the form store to the lifecycle.
func NewFormsHandler(forms *booking.FormStore, lifecycle Lifecycle, logger *logging.Logger) *FormsHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &FormsHandler{forms: forms, lifecycle: lifecycle, logger: logger}
}

type formView struct {
	ID        string             `json:"id"`
	Step      booking.Step       `json:"step"`
	Data      booking.Details    `json:"data"`
	Hospitals []catalog.Hospital `json:"hospitals"`
}

func viewOf(id string, f *booking.Form) formView {
	return formView{ID: id, Step: f.Step(), Data: f.Data(), Hospitals: f.Hospitals()}
}

// locationReport is what the browser sends after a geolocation attempt.
type locationReport struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error"`
}

func (l locationReport) Locate(context.Context) (booking.Position, error) {
	if l.Error != "" {
		return booking.Position{}, errors.New(l.Error)
	}
	if l.Latitude == nil || l.Longitude == nil {
		return booking.Position{}, errors.New("no coordinates reported")
	}
	return booking.Position{Latitude: *l.Latitude, Longitude: *l.Longitude}, nil
}

// Create starts a new form.
func (h *FormsHandler) Create(w http.ResponseWriter, r *http.Request) {
	id := h.forms.Create()
	var view formView
	_ = h.forms.With(id, func(f *booking.Form) error {
		view = viewOf(id, f)
		return nil
	})
	writeJSON(w, http.StatusCreated, view)
}

// Get returns the form state.
func (h *FormsHandler) Get(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(f *booking.Form) error { return nil })
}

// Update applies a partial edit.
func (h *FormsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var in booking.FormInput
	if err := decodeJSON(w, r, &in, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, func(f *booking.Form) error {
		f.Update(in)
		return nil
	})
}

// Next validates the current step and advances.
func (h *FormsHandler) Next(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(f *booking.Form) error { return f.Next() })
}

// Back returns to the previous step.
func (h *FormsHandler) Back(w http.ResponseWriter, r *http.Request) {
	h.apply(w, r, func(f *booking.Form) error {
		f.Back()
		return nil
	})
}

// Location fills the pickup field from the browser's geolocation result.
func (h *FormsHandler) Location(w http.ResponseWriter, r *http.Request) {
	var report locationReport
	if err := decodeJSON(w, r, &report, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.apply(w, r, func(f *booking.Form) error {
		return f.UseCurrentLocation(r.Context(), report)
	})
}

// Submit hands the completed form to the lifecycle and discards it.
func (h *FormsHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var details booking.Details
	err := h.forms.With(id, func(f *booking.Form) error {
		d, err := f.Submit()
		details = d
		return err
	})
	if err != nil {
		h.writeFormError(w, err)
		return
	}

	snap, err := h.lifecycle.Submit(r.Context(), details)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	h.forms.Delete(id)
	writeJSON(w, http.StatusCreated, snap)
}

func (h *FormsHandler) apply(w http.ResponseWriter, r *http.Request, fn func(*booking.Form) error) {
	id := chi.URLParam(r, "id")
	var view formView
	var opErr error
	err := h.forms.With(id, func(f *booking.Form) error {
		opErr = fn(f)
		view = viewOf(id, f)
		return nil
	})
	if err != nil {
		h.writeFormError(w, err)
		return
	}
	if opErr != nil {
		h.writeFormError(w, opErr)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *FormsHandler) writeFormError(w http.ResponseWriter, err error) {
	switch {
	case writeValidation(w, err):
	case errors.Is(err, booking.ErrFormNotFound):
		writeError(w, http.StatusNotFound, "form not found")
	case errors.Is(err, booking.ErrLocationUnavailable):
		writeError(w, http.StatusUnprocessableEntity, booking.ErrLocationUnavailable.Error())
	case errors.Is(err, booking.ErrFinalStep), errors.Is(err, booking.ErrIncompleteForm):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("forms: unexpected error", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func writeLifecycleError(w http.ResponseWriter, err error) {
	switch {
	case writeValidation(w, err):
	case errors.Is(err, dispatch.ErrBookingActive),
		errors.Is(err, dispatch.ErrNoActiveBooking),
		errors.Is(err, dispatch.ErrClosed):
		writeError(w, http.StatusConflict, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
