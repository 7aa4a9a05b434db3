package httphandler

import (
	"net/http"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// CreateConnection starts an OAuth connection for the current user and
// returns the consent URL alongside the pending connection.
func (h *Handler) CreateConnection(w http.ResponseWriter, r *http.Request) {
	var req CreateConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user := currentUser(r.Context())
	conn, authURL, err := h.conns.Initiate(r.Context(), user.ID, req.Provider)
	if err != nil {
		h.respondError(w, "create connection", err)
		return
	}

	w.Header().Set("Location", authURL)
	writeJSON(w, http.StatusCreated, InitiateConnectionResponse{
		Connection:       toConnectionResponse(*conn, connectionLinks(r, *conn)),
		AuthorizationURL: authURL,
	})
}

// ListConnections returns the current user's connections.
func (h *Handler) ListConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := h.conns.List(r.Context(), currentUser(r.Context()).ID)
	if err != nil {
		h.respondError(w, "list connections", err)
		return
	}

	resp := make([]ConnectionResponse, 0, len(conns))
	for _, c := range conns {
		resp = append(resp, toConnectionResponse(c, connectionLinks(r, c)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetConnection returns one of the current user's connections.
func (h *Handler) GetConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "get connection", err)
		return
	}

	conn, err := h.conns.Get(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.respondError(w, "get connection", err)
		return
	}

	writeConditional(w, r, entityTag(conn.ID, conn.UpdatedAt), toConnectionResponse(*conn, connectionLinks(r, *conn)))
}

// UpdateConnection renames or enables/disables a connection.
func (h *Handler) UpdateConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "update connection", err)
		return
	}

	var req UpdateConnectionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	conn, err := h.conns.Update(r.Context(), currentUser(r.Context()).ID, id, model.ConnectionPatch{
		DisplayName: req.DisplayName,
		IsActive:    req.IsActive,
	})
	if err != nil {
		h.respondError(w, "update connection", err)
		return
	}

	writeJSON(w, http.StatusOK, toConnectionResponse(*conn, connectionLinks(r, *conn)))
}

// DeleteConnection removes a connection and its pending OAuth states.
func (h *Handler) DeleteConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "delete connection", err)
		return
	}

	if err := h.conns.Delete(r.Context(), currentUser(r.Context()).ID, id); err != nil {
		h.respondError(w, "delete connection", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// TestConnection reports whether a connection currently holds a usable token.
func (h *Handler) TestConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "test connection", err)
		return
	}

	check, err := h.conns.Test(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.respondError(w, "test connection", err)
		return
	}

	writeJSON(w, http.StatusOK, ConnectionCheckResponse{
		ConnectionID: check.ConnectionID,
		Valid:        check.Valid,
		Reason:       check.Reason,
	})
}

// RefreshConnection renews provider tokens. Token exchange is not served, so
// existing connections get 501.
func (h *Handler) RefreshConnection(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "refresh connection", err)
		return
	}

	conn, err := h.conns.Refresh(r.Context(), currentUser(r.Context()).ID, id)
	if err != nil {
		h.respondError(w, "refresh connection", err)
		return
	}

	writeJSON(w, http.StatusOK, toConnectionResponse(*conn, connectionLinks(r, *conn)))
}
