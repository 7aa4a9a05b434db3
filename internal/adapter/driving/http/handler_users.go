package httphandler

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/model"
)

// CreateUser registers a new user.
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var in application.CreateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	u, err := h.users.Create(r.Context(), in)
	if err != nil {
		h.respondError(w, "create user", err)
		return
	}

	resp := toUserResponse(*u, userLinks(r, *u))
	w.Header().Set("Location", resp.Links[0].Href)
	writeJSON(w, http.StatusCreated, resp)
}

// ListUsers returns users filtered, sorted and paginated by query parameters.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	filter, err := parseUserFilter(r.URL.Query())
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}

	users, err := h.users.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list users", err)
		return
	}

	resp := make([]UserResponse, 0, len(users))
	for _, u := range users {
		resp = append(resp, toUserResponse(u, userLinks(r, u)))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetUser returns one user. Inactive users are hidden unless
// include_inactive=true.
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}

	includeInactive, err := queryBool(r.URL.Query(), "include_inactive", false)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}

	u, err := h.users.Get(r.Context(), id, includeInactive)
	if err != nil {
		h.respondError(w, "get user", err)
		return
	}

	writeConditional(w, r, entityTag(u.ID, u.UpdatedAt), toUserResponse(*u, userLinks(r, *u)))
}

// UpdateUser applies a partial update. Inactive users require force_update=true.
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}

	force, err := queryBool(r.URL.Query(), "force_update", false)
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}

	var in application.UpdateUserInput
	if !decodeJSON(w, r, &in) {
		return
	}

	u, err := h.users.Update(r.Context(), id, in, force)
	if err != nil {
		h.respondError(w, "update user", err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(*u, userLinks(r, *u)))
}

// DeleteUser deactivates a user, or removes it when soft_delete=false.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.respondError(w, "delete user", err)
		return
	}

	q := r.URL.Query()
	soft, err := queryBool(q, "soft_delete", true)
	if err != nil {
		h.respondError(w, "delete user", err)
		return
	}
	force, err := queryBool(q, "force_delete", false)
	if err != nil {
		h.respondError(w, "delete user", err)
		return
	}

	if err := h.users.Delete(r.Context(), id, soft, force); err != nil {
		h.respondError(w, "delete user", err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// parseUserFilter turns list query parameters into a filter. Range checks on
// limit, skip and sort_by are left to the user service.
func parseUserFilter(q url.Values) (model.UserFilter, error) {
	var (
		filter model.UserFilter
		err    error
	)

	if filter.Skip, err = queryInt(q, "skip", 0); err != nil {
		return filter, err
	}
	if filter.Limit, err = queryInt(q, "limit", application.DefaultUserLimit); err != nil {
		return filter, err
	}
	if filter.Limit == 0 {
		return filter, application.InvalidInputf("limit must be between 1 and %d", application.MaxUserLimit)
	}

	filter.Search = strings.TrimSpace(q.Get("search"))
	filter.SortBy = model.UserSortField(strings.ToLower(q.Get("sort_by")))

	switch strings.ToLower(q.Get("sort_order")) {
	case "", "desc":
		filter.Descending = true
	case "asc":
		filter.Descending = false
	default:
		return filter, application.InvalidInputf("sort_order must be asc or desc")
	}

	if q.Has("is_active") {
		active, err := queryBool(q, "is_active", true)
		if err != nil {
			return filter, err
		}
		filter.IsActive = &active
	}

	if filter.CreatedAfter, err = queryTime(q, "created_after"); err != nil {
		return filter, err
	}
	if filter.CreatedBefore, err = queryTime(q, "created_before"); err != nil {
		return filter, err
	}

	return filter, nil
}

// pathID returns the {id} path value, rejecting anything that is not a UUID.
func pathID(r *http.Request) (string, error) {
	id := r.PathValue("id")
	if _, err := uuid.Parse(id); err != nil {
		return "", application.InvalidInputf("id must be a valid UUID")
	}
	return id, nil
}

func queryInt(q url.Values, key string, def int) (int, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, application.InvalidInputf("%s must be an integer", key)
	}
	return n, nil
}

func queryBool(q url.Values, key string, def bool) (bool, error) {
	raw := q.Get(key)
	if raw == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, application.InvalidInputf("%s must be true or false", key)
	}
	return b, nil
}

// queryTime accepts RFC 3339 timestamps and plain dates.
func queryTime(q url.Values, key string) (*time.Time, error) {
	raw := q.Get(key)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, application.InvalidInputf("%s must be an RFC 3339 timestamp or a YYYY-MM-DD date", key)
}
