package httphandler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/integrations-hub/integrations/internal/domain/model"
)

// baseURL returns scheme://host for the request as the client sees it,
// preferring X-Forwarded-Proto and X-Forwarded-Host set by a fronting proxy.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := firstHeaderValue(r, "X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(proto)
	}

	host := r.Host
	if fwd := firstHeaderValue(r, "X-Forwarded-Host"); fwd != "" {
		host = fwd
	}

	return scheme + "://" + host
}

// firstHeaderValue returns the first element of a possibly comma-joined header.
func firstHeaderValue(r *http.Request, name string) string {
	v, _, _ := strings.Cut(r.Header.Get(name), ",")
	return strings.TrimSpace(v)
}

func link(r *http.Request, rel, method string, segments ...string) LinkResponse {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}
	return LinkResponse{
		Rel:    rel,
		Href:   baseURL(r) + "/" + strings.Join(escaped, "/"),
		Method: method,
	}
}

func userLinks(r *http.Request, u model.User) []LinkResponse {
	return []LinkResponse{
		link(r, "self", http.MethodGet, "users", u.ID),
		link(r, "update", http.MethodPatch, "users", u.ID),
		link(r, "delete", http.MethodDelete, "users", u.ID),
		link(r, "collection", http.MethodGet, "users"),
	}
}

func connectionLinks(r *http.Request, c model.Connection) []LinkResponse {
	return []LinkResponse{
		link(r, "create", http.MethodPost, "connections"),
		link(r, "get", http.MethodGet, "connections", c.ID),
		link(r, "update", http.MethodPatch, "connections", c.ID),
		link(r, "delete", http.MethodDelete, "connections", c.ID),
		link(r, "collection", http.MethodGet, "connections"),
		link(r, "test", http.MethodPost, "connections", c.ID, "test"),
		link(r, "refresh/reconnect", http.MethodPost, "connections", c.ID, "refresh"),
	}
}

func messageLinks(r *http.Request, m model.Message) []LinkResponse {
	return []LinkResponse{
		link(r, "self", http.MethodGet, "messages", m.ID),
		link(r, "update", http.MethodPatch, "messages", m.ID),
		link(r, "delete", http.MethodDelete, "messages", m.ID),
		link(r, "collection", http.MethodGet, "messages"),
	}
}
