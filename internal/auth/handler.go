package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/workspace"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
	workspaces     []workspace.Dropper
}

// NewHandler constructs a Handler instance. Workspaces are dropped whenever
// the session they belong to ends or changes id.
func NewHandler(logger *slog.Logger, service *Service, sessions *shared.SessionManager, csrf *shared.CSRFManager, workspaces ...workspace.Dropper) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
		workspaces:     workspaces,
	}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
	r.Get("/session", h.showSession)
}

type sessionResponse struct {
	Authenticated bool       `json:"authenticated"`
	Username      string     `json:"username,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
	CSRFToken     string     `json:"csrfToken"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		httpx.RespondError(w, errors.New("session missing"))
		return
	}

	var form LoginRequest
	if err := httpx.DecodeJSON(r, &form); err != nil {
		httpx.RespondError(w, shared.Validation("invalid login payload"))
		return
	}
	if err := h.validator.Struct(form); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			h.logger.Debug("login form rejected", slog.String("field", verrs[0].Field()), slog.String("rule", verrs[0].Tag()))
		}
		httpx.RespondError(w, shared.Validation("username and password are required"))
		return
	}

	creds, err := h.service.Authenticate(r.Context(), form)
	if err != nil {
		if errors.Is(err, shared.ErrUnauthorized) {
			h.logger.Info("login rejected", slog.String("username", form.Username))
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "invalid username or password")
			return
		}
		h.logger.Error("login failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}

	h.dropWorkspaces(sess.ID)
	h.sessionManager.Renew(sess)
	sess.SetCredentials(creds)
	token, err := h.csrfManager.Rotate(r.Context(), sess)
	if err != nil {
		h.logger.Error("rotate csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("operator logged in", slog.String("username", creds.Username), slog.String("role", creds.Role))
	httpx.JSON(w, http.StatusOK, h.describe(creds, true, token))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		h.dropWorkspaces(sess.ID)
		if user := sess.User(); user != "" {
			h.logger.Info("operator logged out", slog.String("username", user))
		}
		h.sessionManager.Destroy(sess)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) showSession(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	token, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Error("ensure csrf token", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	creds, ok := sess.Credentials()
	httpx.JSON(w, http.StatusOK, h.describe(creds, ok, token))
}

func (h *Handler) describe(creds shared.Credentials, ok bool, token string) sessionResponse {
	resp := sessionResponse{Authenticated: ok, CSRFToken: token}
	if ok {
		resp.Username = creds.Username
		resp.Role = creds.Role
		if !creds.ExpiresAt.IsZero() {
			exp := creds.ExpiresAt
			resp.ExpiresAt = &exp
		}
	}
	return resp
}

func (h *Handler) dropWorkspaces(sessionID string) {
	for _, ws := range h.workspaces {
		ws.Drop(sessionID)
	}
}
