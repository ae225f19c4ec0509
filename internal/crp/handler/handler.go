package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"crpstore/internal/crp/models"
	"crpstore/internal/platform/middleware"
	"crpstore/pkg/platform/httputil"
)

// Service defines the credential operations exposed over HTTP.
type Service interface {
	Enrol(ctx context.Context, user string, pairs models.Pairs) (*models.EnrolResult, error)
	Authenticate(ctx context.Context, user string, pairs models.Pairs) (*models.AuthenticateResult, error)
}

// Handler serves the enrol and authenticate endpoints.
type Handler struct {
	crp    Service
	logger *slog.Logger
}

func New(crp Service, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{crp: crp, logger: logger}
}

// Register registers the credential routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/enrol", h.HandleEnrol)
	r.Post("/authenticate", h.HandleAuthenticate)
}

// HandleEnrol implements POST /enrol.
//
// Input: { "name": "alice", "crps": { "c1": "r1", "c2": "r2" } }
// Output: { "message": "`alice` enroled successfully" }
func (h *Handler) HandleEnrol(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.EnrolRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.crp.Enrol(ctx, req.Name, req.CRPs)
	if err != nil {
		h.logger.ErrorContext(ctx, "enrol failed",
			"error", err,
			"request_id", requestID,
			"user", req.Name,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: res.Message})
}

// HandleAuthenticate implements POST /authenticate.
//
// Input: { "name": "alice", "crps": { "c1": "r1" } }
// Output: { "message": "Auth Success" }
func (h *Handler) HandleAuthenticate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetRequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[models.AuthenticateRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	res, err := h.crp.Authenticate(ctx, req.Name, req.CRPs)
	if err != nil {
		h.logger.WarnContext(ctx, "authenticate failed",
			"error", err,
			"request_id", requestID,
			"user", req.Name,
		)
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, &models.MessageResponse{Message: res.Message})
}
