package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
)

func TestBookingSubmitAndHistory(t *testing.T) {
	ctl, _ := newTestController(t)
	h := testRouter(nil, NewBookingHandler(ctl, nil, nil))

	snap := decode[dispatch.Snapshot](t, do(t, h, http.MethodGet, "/api/booking", nil))
	assert.Equal(t, booking.StatusIdle, snap.Status)

	rec := do(t, h, http.MethodPost, "/api/booking", validDetails())
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	snap = decode[dispatch.Snapshot](t, rec)
	assert.Equal(t, booking.StatusSearching, snap.Status)
	require.NotNil(t, snap.Hospital)
	assert.Equal(t, "Lilavati Hospital", snap.Hospital.Name)

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/booking", validDetails()).Code)

	hist := decode[struct {
		Bookings []booking.PastBooking `json:"bookings"`
	}](t, do(t, h, http.MethodGet, "/api/booking/history", nil))
	require.Len(t, hist.Bookings, 1)
	assert.Equal(t, "Advanced Life Support (ALS)", hist.Bookings[0].AmbulanceType)
}

func TestBookingSubmitAcceptsLabel(t *testing.T) {
	ctl, _ := newTestController(t)
	h := testRouter(nil, NewBookingHandler(ctl, nil, nil))

	d := validDetails()
	d.AmbulanceType = booking.AmbulanceType("ICU Ambulance")
	rec := do(t, h, http.MethodPost, "/api/booking", d)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, booking.AmbulanceICU, decode[dispatch.Snapshot](t, rec).Booking.AmbulanceType)
}

func TestBookingSubmitValidation(t *testing.T) {
	ctl, _ := newTestController(t)
	h := testRouter(nil, NewBookingHandler(ctl, nil, nil))

	d := validDetails()
	d.HospitalID = "h1"
	rec := do(t, h, http.MethodPost, "/api/booking", d)
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	body := decode[errorResponse](t, rec)
	require.Len(t, body.Fields, 1)
	assert.Equal(t, "hospitalId", body.Fields[0].Field)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPost, "/api/booking", "nope").Code)
}

func TestBookingCancel(t *testing.T) {
	ctl, fc := newTestController(t)
	h := testRouter(nil, NewBookingHandler(ctl, nil, nil))

	assert.Equal(t, http.StatusConflict, do(t, h, http.MethodPost, "/api/booking/cancel", map[string]bool{"confirm": true}).Code)

	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/api/booking", validDetails()).Code)

	rec := do(t, h, http.MethodPost, "/api/booking/cancel", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[cancelResponse](t, rec)
	assert.False(t, resp.Cancelled)
	assert.Equal(t, dispatch.CancelPrompt, resp.Prompt)
	assert.Equal(t, booking.StatusSearching, resp.Booking.Status)

	rec = do(t, h, http.MethodPost, "/api/booking/cancel", map[string]bool{"confirm": true})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[cancelResponse](t, rec)
	assert.True(t, resp.Cancelled)
	assert.Equal(t, booking.StatusIdle, resp.Booking.Status)

	fc.Advance(5 * time.Second)
	assert.Equal(t, booking.StatusIdle, ctl.Status())
}

func TestBookingStream(t *testing.T) {
	ctl, fc := newTestController(t)
	srv := httptest.NewServer(testRouter(nil, NewBookingHandler(ctl, nil, nil)))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/booking/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var snap dispatch.Snapshot
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, booking.StatusIdle, snap.Status)

	_, err = ctl.Submit(t.Context(), validDetails())
	require.NoError(t, err)
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, booking.StatusSearching, snap.Status)

	fc.Advance(2500 * time.Millisecond)
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Equal(t, booking.StatusConfirmed, snap.Status)
	assert.NotEmpty(t, snap.EstimatedArrival)
}
