package httphandler

import (
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

// entityTag derives a strong ETag from a resource id and its last update.
func entityTag(id string, updatedAt time.Time) string {
	sum := md5.Sum([]byte(id + ":" + updatedAt.UTC().Format(time.RFC3339Nano)))
	return `"` + hex.EncodeToString(sum[:]) + `"`
}

// etagMatches reports whether If-None-Match names tag or is "*".
func etagMatches(r *http.Request, tag string) bool {
	header := r.Header.Get("If-None-Match")
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimSpace(candidate)
		if candidate == "*" || strings.TrimPrefix(candidate, "W/") == tag {
			return true
		}
	}
	return false
}

// writeConditional sets the validator headers and writes v, or 304 when the
// client already holds the current representation.
func writeConditional(w http.ResponseWriter, r *http.Request, tag string, v any) {
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "private, max-age=0, must-revalidate")
	if etagMatches(r, tag) {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(w, http.StatusOK, v)
}
