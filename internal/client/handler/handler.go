package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"registrar/internal/client/models"
	id "registrar/pkg/domain"
	dErrors "registrar/pkg/domain-errors"
	"registrar/pkg/platform/httputil"
	"registrar/pkg/requestcontext"
)

// Service defines the client registry operations exposed over HTTP.
type Service interface {
	CurrentClient() *models.Client
	GetValidLocalClient(ctx context.Context) (*models.Client, error)
	IsCurrentClientPermanent() (bool, error)
	GetClientsByUserID(ctx context.Context, userID id.UserID) ([]*models.Client, error)
	SyncClients(ctx context.Context, userID id.UserID) ([]*models.Client, error)
	IsCurrentClient(userID id.UserID, clientID id.ClientID) (bool, error)
	VerifyClient(ctx context.Context, userID id.UserID, clientID id.ClientID, verified bool) (*models.Client, error)
	DeleteClient(ctx context.Context, userID id.UserID, clientID id.ClientID) (bool, error)
}

// Handler wires client registry endpoints to the service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a client handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts client endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/clients/current", func(r chi.Router) {
		r.Get("/", h.HandleCurrent)
		r.Post("/validate", h.HandleValidate)
		r.Get("/permanent", h.HandlePermanent)
	})
	r.Route("/users/{userID}/clients", func(r chi.Router) {
		r.Get("/", h.HandleListClients)
		r.Post("/sync", h.HandleSyncClients)
		r.Get("/{clientID}/current", h.HandleIsCurrent)
		r.Put("/{clientID}/verification", h.HandleVerify)
		r.Delete("/{clientID}", h.HandleDelete)
	})
}

// HandleCurrent handles GET /clients/current.
func (h *Handler) HandleCurrent(w http.ResponseWriter, r *http.Request) {
	current := h.service.CurrentClient()
	if current == nil {
		h.writeError(w, r, models.NewClientError(models.KindClientNotSet))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClient(current))
}

// HandleValidate handles POST /clients/current/validate.
func (h *Handler) HandleValidate(w http.ResponseWriter, r *http.Request) {
	client, err := h.service.GetValidLocalClient(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClient(client))
}

// HandlePermanent handles GET /clients/current/permanent.
func (h *Handler) HandlePermanent(w http.ResponseWriter, r *http.Request) {
	permanent, err := h.service.IsCurrentClientPermanent()
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, PermanenceResponse{Permanent: permanent})
}

// HandleListClients handles GET /users/{userID}/clients.
func (h *Handler) HandleListClients(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	clients, err := h.service.GetClientsByUserID(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClients(clients))
}

// HandleSyncClients handles POST /users/{userID}/clients/sync.
func (h *Handler) HandleSyncClients(w http.ResponseWriter, r *http.Request) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	clients, err := h.service.SyncClients(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, FromClients(clients))
}

// HandleIsCurrent handles GET /users/{userID}/clients/{clientID}/current.
func (h *Handler) HandleIsCurrent(w http.ResponseWriter, r *http.Request) {
	userID, clientID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}
	isCurrent, err := h.service.IsCurrentClient(userID, clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, IsCurrentResponse{IsCurrent: isCurrent})
}

// HandleVerify handles PUT /users/{userID}/clients/{clientID}/verification.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	userID, clientID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[VerificationRequest](w, r, h.logger)
	if !ok {
		return
	}
	client, err := h.service.VerifyClient(r.Context(), userID, clientID, req.Verified)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.logger.InfoContext(r.Context(), "client verification changed",
		"request_id", requestcontext.RequestID(r.Context()),
		"user_id", userID.String(),
		"client_id", clientID.String(),
		"verified", req.Verified,
	)
	httputil.WriteJSON(w, http.StatusOK, FromClient(client))
}

// HandleDelete handles DELETE /users/{userID}/clients/{clientID}.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, clientID, ok := h.parseIDs(w, r)
	if !ok {
		return
	}
	deleted, err := h.service.DeleteClient(r.Context(), userID, clientID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !deleted {
		httputil.WriteError(w, dErrors.New(dErrors.CodeNotFound, "client not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) parseIDs(w http.ResponseWriter, r *http.Request) (id.UserID, id.ClientID, bool) {
	userID, err := id.ParseUserID(chi.URLParam(r, "userID"))
	if err != nil {
		h.writeError(w, r, err)
		return "", "", false
	}
	clientID, err := id.ParseClientID(chi.URLParam(r, "clientID"))
	if err != nil {
		h.writeError(w, r, err)
		return "", "", false
	}
	return userID, clientID, true
}

// writeError gives ClientErrors their public message and logs the cause.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if ce, ok := asClientError(err); ok {
		err = dErrors.Wrap(err, ce.Code(), ce.Message)
	}
	code := dErrors.CodeOf(err)
	level := slog.LevelInfo
	if dErrors.ToHTTPStatus(code) >= http.StatusInternalServerError {
		level = slog.LevelError
	}
	h.logger.Log(r.Context(), level, "client request failed",
		"request_id", requestcontext.RequestID(r.Context()),
		"path", r.URL.Path,
		"code", string(code),
		"error", err,
	)
	httputil.WriteError(w, err)
}
