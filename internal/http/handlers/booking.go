package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/wolfman30/ambu-dispatch/internal/booking"
	"github.com/wolfman30/ambu-dispatch/internal/dispatch"
	"github.com/wolfman30/ambu-dispatch/pkg/logging"
)

const (
	streamWriteWait  = 5 * time.Second
	streamPongWait   = 60 * time.Second
	streamPingPeriod = streamPongWait * 9 / 10
	streamBuffer     = 32
)

// BookingHandler exposes the active booking and its history.
type BookingHandler struct {
	lifecycle Lifecycle
	logger    *logging.Logger
	upgrader  websocket.Upgrader
}

// NewBookingHandler builds a booking handler. checkOrigin gates WebSocket
// upgrades; nil accepts same-origin requests only.
func NewBookingHandler(lifecycle Lifecycle, logger *logging.Logger, checkOrigin func(*http.Request) bool) *BookingHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingHandler{
		lifecycle: lifecycle,
		logger:    logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

type cancelRequest struct {
	Confirm bool `json:"confirm"`
}

type cancelResponse struct {
	Cancelled bool              `json:"cancelled"`
	Prompt    string            `json:"prompt"`
	Booking   dispatch.Snapshot `json:"booking"`
}

// Get returns the current snapshot.
func (h *BookingHandler) Get(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.lifecycle.Snapshot())
}

// Submit books directly from complete details.
func (h *BookingHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var d booking.Details
	if err := decodeJSON(w, r, &d, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if parsed, err := booking.ParseAmbulanceType(string(d.AmbulanceType)); err == nil {
		d.AmbulanceType = parsed
	}
	snap, err := h.lifecycle.Submit(r.Context(), d)
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// Cancel cancels the active booking when the body confirms it. Without
// confirmation the prompt is echoed back and nothing changes.
func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	var req cancelRequest
	if err := decodeJSON(w, r, &req, true); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	cancelled, err := h.lifecycle.Cancel(r.Context(), dispatch.Answer(req.Confirm))
	if err != nil {
		writeLifecycleError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelResponse{
		Cancelled: cancelled,
		Prompt:    dispatch.CancelPrompt,
		Booking:   h.lifecycle.Snapshot(),
	})
}

// History lists past bookings, most recent first.
func (h *BookingHandler) History(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"bookings": h.lifecycle.History()})
}

// Stream upgrades to a WebSocket and pushes a snapshot after every change.
func (h *BookingHandler) Stream(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("booking stream: upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	updates, unsubscribe := h.lifecycle.Subscribe(streamBuffer)
	defer unsubscribe()

	// Reads only service control frames and notice the client leaving.
	gone := make(chan struct{})
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(streamPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(streamPingPeriod)
	defer ping.Stop()
	for {
		select {
		case <-gone:
			return
		case <-r.Context().Done():
			return
		case snap, ok := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"))
				return
			}
			if err := conn.WriteJSON(snap); err != nil {
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
