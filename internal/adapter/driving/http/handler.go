package httphandler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/integrations-hub/integrations/internal/application"
	"github.com/integrations-hub/integrations/internal/domain/port/driven"
)

// maxBodyBytes bounds request bodies read by decodeJSON.
const maxBodyBytes = 1 << 20

// Handler is the HTTP driving adapter that serves the REST API.
type Handler struct {
	users    *application.UserService
	auth     *application.AuthService
	conns    *application.ConnectionService
	messages *application.MessageService
	hostIP   string
	now      func() time.Time
	logger   *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(
	users *application.UserService,
	auth *application.AuthService,
	conns *application.ConnectionService,
	messages *application.MessageService,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		users:    users,
		auth:     auth,
		conns:    conns,
		messages: messages,
		hostIP:   lookupHostIP(),
		now:      time.Now,
		logger:   logger,
	}
}

// Options tunes the middleware chain built by NewServeMux.
type Options struct {
	// RateLimitRPS is the sustained per-client request rate. Zero disables
	// rate limiting.
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging, rate limiting and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", h.Root)
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /health/{path_echo}", h.Health)
	mux.HandleFunc("POST /auth/token", h.Login)

	mux.HandleFunc("POST /users", h.CreateUser)
	mux.HandleFunc("GET /users", h.ListUsers)
	mux.HandleFunc("GET /users/{id}", h.GetUser)
	mux.HandleFunc("PATCH /users/{id}", h.UpdateUser)
	mux.HandleFunc("DELETE /users/{id}", h.DeleteUser)

	mux.Handle("POST /connections", h.requireSession(h.CreateConnection))
	mux.Handle("GET /connections", h.requireSession(h.ListConnections))
	mux.Handle("GET /connections/{id}", h.requireSession(h.GetConnection))
	mux.Handle("PATCH /connections/{id}", h.requireSession(h.UpdateConnection))
	mux.Handle("DELETE /connections/{id}", h.requireSession(h.DeleteConnection))
	mux.Handle("POST /connections/{id}/test", h.requireSession(h.TestConnection))
	mux.Handle("POST /connections/{id}/refresh", h.requireSession(h.RefreshConnection))

	mux.Handle("GET /messages", h.requireSession(h.ListMessages))
	mux.Handle("POST /messages", h.requireSession(h.CreateMessage))
	mux.Handle("GET /messages/{id}", h.requireSession(h.GetMessage))
	mux.Handle("PATCH /messages/{id}", h.requireSession(h.UpdateMessage))
	mux.Handle("DELETE /messages/{id}", h.requireSession(h.DeleteMessage))

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	if opts.RateLimitRPS > 0 {
		wrapped = rateLimitMiddleware(newClientLimiters(opts.RateLimitRPS, opts.RateLimitBurst), logger, wrapped)
	}
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// Root returns the welcome message.
func (h *Handler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, RootResponse{
		Message: "Welcome to the Integrations Microservice API.",
	})
}

// Health reports liveness, echoing the optional ?echo= query and
// {path_echo} path segment.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	rep := application.NewHealthReport(h.now(), h.hostIP, r.URL.Query().Get("echo"), r.PathValue("path_echo"))
	writeJSON(w, http.StatusOK, toHealthResponse(rep))
}

// Login exchanges email and password for a bearer session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.respondError(w, "login", err)
		return
	}

	writeJSON(w, http.StatusOK, TokenResponse{
		AccessToken: sess.AccessToken,
		TokenType:   "bearer",
		ExpiresIn:   int64(sess.ExpiresIn / time.Second),
	})
}

// decodeJSON reads the request body into v and writes a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// respondError maps application and store errors onto status codes. Anything
// unrecognised is logged and reported as a 500.
func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, application.ErrInvalidInput):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, application.ErrOAuthNotConfigured):
		writeError(w, http.StatusUnprocessableEntity, application.ErrOAuthNotConfigured.Error())
	case errors.Is(err, application.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, application.ErrInvalidCredentials.Error())
	case errors.Is(err, driven.ErrAuthNotConfigured):
		writeError(w, http.StatusUnauthorized, driven.ErrAuthNotConfigured.Error())
	case errors.Is(err, driven.ErrInvalidToken):
		writeError(w, http.StatusUnauthorized, "invalid or expired session")
	case errors.Is(err, driven.ErrUserNotFound):
		writeError(w, http.StatusNotFound, driven.ErrUserNotFound.Error())
	case errors.Is(err, driven.ErrConnectionNotFound):
		writeError(w, http.StatusNotFound, driven.ErrConnectionNotFound.Error())
	case errors.Is(err, driven.ErrMessageNotFound):
		writeError(w, http.StatusNotFound, driven.ErrMessageNotFound.Error())
	case errors.Is(err, driven.ErrEmailTaken):
		writeError(w, http.StatusConflict, driven.ErrEmailTaken.Error())
	case errors.Is(err, application.ErrNotImplemented):
		writeError(w, http.StatusNotImplemented, "not implemented")
	default:
		h.logger.Error("request failed", "op", op, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

// lookupHostIP resolves the machine's own hostname to an address.
func lookupHostIP() string {
	name, err := os.Hostname()
	if err != nil {
		return "127.0.0.1"
	}
	addrs, err := net.LookupHost(name)
	if err != nil || len(addrs) == 0 {
		return "127.0.0.1"
	}
	return addrs[0]
}
