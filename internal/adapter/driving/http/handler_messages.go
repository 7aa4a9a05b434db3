package httphandler

import (
	"net/http"

	"github.com/integrations-hub/integrations/internal/application"
)

// ListMessages returns the current user's messages, newest first.
func (h *Handler) ListMessages(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r.URL.Query(), "limit", application.DefaultMessageLimit)
	if err == nil && limit == 0 {
		err = application.InvalidInputf("limit must be between 1 and %d", application.MaxMessageLimit)
	}
	if err != nil {
		h.respondError(w, "list messages", err)
		return
	}

	msgs, err := h.messages.List(r.Context(), currentUser(r.Context()).ID, limit)
	if err != nil {
		h.respondError(w, "list messages", err)
		return
	}

	resp := make([]MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		resp = append(resp, toMessageResponse(m, messageLinks(r, m)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetMessage returns one of the current user's messages.
func (h *Handler) GetMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "get message", err)
		return
	}

	msg, err := h.messages.Get(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.respondError(w, "get message", err)
		return
	}

	writeConditional(w, r, entityTag(msg.ID, msg.UpdatedAt), toMessageResponse(*msg, messageLinks(r, *msg)))
}

// CreateMessage stores a queued outbound message.
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var in application.CreateMessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.messages.Create(r.Context(), currentUser(r.Context()).ID, in)
	if err != nil {
		h.respondError(w, "create message", err)
		return
	}

	resp := toMessageResponse(*msg, messageLinks(r, *msg))
	w.Header().Set("Location", resp.Links[0].Href)
	writeJSON(w, http.StatusCreated, resp)
}

// UpdateMessage relabels or renames a message.
func (h *Handler) UpdateMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "update message", err)
		return
	}

	var in application.UpdateMessageInput
	if !decodeJSON(w, r, &in) {
		return
	}

	msg, err := h.messages.Update(r.Context(), currentUser(r.Context()).ID, id, in)
	if err != nil {
		h.respondError(w, "update message", err)
		return
	}

	writeJSON(w, http.StatusOK, toMessageResponse(*msg, messageLinks(r, *msg)))
}

// DeleteMessage removes the local copy of a message.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "delete message", err)
		return
	}

	if err := h.messages.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.respondError(w, "delete message", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
