package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"weatherwatch/internal/core"
	"weatherwatch/internal/types"
)

// SubscriptionService defines the subscription lifecycle contract for the
// subscription handler.
type SubscriptionService interface {
	Register(sub types.PushSubscription)
	Unsubscribe(endpoint string) bool
}

// CreateSubscriptionRequest is the request body for POST /v1/subscriptions.
// The subscription object is the browser's PushSubscription.toJSON() shape.
type CreateSubscriptionRequest struct {
	Subscription types.PushSubscription `json:"subscription" validate:"required"`
}

// SubscriptionHandler manages push subscription registration and the VAPID
// key exchange the browser needs before it can subscribe.
type SubscriptionHandler struct {
	service        SubscriptionService
	validator      *core.Validator
	logger         *slog.Logger
	vapidPublicKey string
}

// NewSubscriptionHandler creates a SubscriptionHandler.
func NewSubscriptionHandler(svc SubscriptionService, v *core.Validator, logger *slog.Logger, vapidPublicKey string) *SubscriptionHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubscriptionHandler{
		service:        svc,
		validator:      v,
		logger:         logger,
		vapidPublicKey: vapidPublicKey,
	}
}

// RegisterRoutes mounts the subscription endpoints onto the mux.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/subscriptions", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Delete("/", h.Delete)
	})
	r.Get("/vapid-public-key", h.VAPIDPublicKey)
}

// Create handles POST /v1/subscriptions: register or replace a subscription
// descriptor without creating any schedule.
func (h *SubscriptionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateSubscriptionRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}

	h.service.Register(req.Subscription)
	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: map[string]any{
		"endpoint": req.Subscription.Endpoint,
	}})
}

// Delete handles DELETE /v1/subscriptions?endpoint=... It removes the
// subscription and cancels any schedule in one operation.
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"query parameter 'endpoint' is required", nil))
		return
	}

	if !h.service.Unsubscribe(endpoint) {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundSubscription,
			"no subscription exists for this endpoint", nil))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]any{"removed": true}})
}

// VAPIDPublicKey handles GET /v1/vapid-public-key. The browser passes this
// key as applicationServerKey when calling pushManager.subscribe.
func (h *SubscriptionHandler) VAPIDPublicKey(w http.ResponseWriter, r *http.Request) {
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]any{
		"publicKey": h.vapidPublicKey,
	}})
}
