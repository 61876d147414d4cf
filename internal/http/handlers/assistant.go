package handlers

import (
	"net/http"

	"github.com/wolfman30/ambu-dispatch/internal/assistant"
)

// AssistantHandler relays chat messages to the first-aid assistant.
type AssistantHandler struct {
	conversation *assistant.Conversation
}

// NewAssistantHandler serves conv.
func NewAssistantHandler(conv *assistant.Conversation) *AssistantHandler {
	return &AssistantHandler{conversation: conv}
}

type askRequest struct {
	Text string `json:"text"`
}

// Send posts a user message and returns the assistant's reply.
func (h *AssistantHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req askRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	reply, ok := h.conversation.Ask(r.Context(), req.Text)
	if !ok {
		writeError(w, http.StatusUnprocessableEntity, "message text is required")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"reply": reply})
}

// Messages returns the transcript.
func (h *AssistantHandler) Messages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"messages": h.conversation.Messages()})
}
