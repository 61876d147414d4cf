package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/clock"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
	"github.com/wolfman30/ambu-dispatch/internal/observability/metrics"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

func newTestController(t *testing.T) (*dispatch.Controller, *clock.Fake) {
	t.Helper()
	fc := clock.NewFake(time.Date(2026, 10, 14, 9, 34, 0, 0, time.UTC))
	ctl := dispatch.NewController(context.Background(), dispatch.Options{
		Clock:   fc,
		Logger:  logging.NewWithWriter("error", io.Discard),
		Metrics: metrics.NewDispatchMetrics(prometheus.NewRegistry()),
	})
	t.Cleanup(ctl.Close)
	return ctl, fc
}

// testRouter mounts handlers the same way the api router does.
func testRouter(forms *FormsHandler, bookings *BookingHandler) http.Handler {
	r := chi.NewRouter()
	if forms != nil {
		r.Post("/api/forms", forms.Create)
		r.Get("/api/forms/{id}", forms.Get)
		r.Patch("/api/forms/{id}", forms.Update)
		r.Post("/api/forms/{id}/next", forms.Next)
		r.Post("/api/forms/{id}/back", forms.Back)
		r.Post("/api/forms/{id}/location", forms.Location)
		r.Post("/api/forms/{id}/submit", forms.Submit)
	}
	if bookings != nil {
		r.Get("/api/booking", bookings.Get)
		r.Post("/api/booking", bookings.Submit)
		r.Post("/api/booking/cancel", bookings.Cancel)
		r.Get("/api/booking/history", bookings.History)
		r.Get("/api/booking/stream", bookings.Stream)
	}
	return r
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func validDetails() booking.Details {
	return booking.Details{
		PatientName:    "Asha Rao",
		ContactNumber:  "9000000001",
		City:           "Mumbai",
		PickupLocation: "Bandra West",
		HospitalID:     "h4",
		AmbulanceType:  booking.AmbulanceALS,
	}
}
