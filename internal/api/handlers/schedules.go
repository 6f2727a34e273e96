// Package handlers contains the HTTP handler implementations for the
// weatherwatch API.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"weatherwatch/internal/core"
	"weatherwatch/internal/scheduler"
	"weatherwatch/internal/types"
)

// ScheduleService defines the orchestration contract for the schedule
// handler. Matches scheduler.Watcher but is defined locally per the handler
// injection pattern.
type ScheduleService interface {
	Schedule(ctx context.Context, req scheduler.ScheduleRequest) (types.ScheduledJob, error)
	Cancel(endpoint string) bool
	Schedules() []types.ScheduledJob
}

// CreateScheduleRequest is the request body for POST /v1/schedules. Posting
// for an endpoint that already has a schedule replaces it.
type CreateScheduleRequest struct {
	Subscription types.PushSubscription `json:"subscription" validate:"required"`
	Time         string                 `json:"time" validate:"required,datetime=15:04"`
	Timezone     string                 `json:"timezone" validate:"omitempty,timezone"`
	Rules        []types.Rule           `json:"rules"`
}

// ScheduleListResponse is the response body for GET /v1/schedules.
type ScheduleListResponse struct {
	Schedules []types.ScheduledJob `json:"schedules"`
	Count     int                  `json:"count"`
}

// ScheduleHandler manages the daily evaluation schedules.
type ScheduleHandler struct {
	service   ScheduleService
	validator *core.Validator
	logger    *slog.Logger

	// allowInsecureEndpoints permits plain-HTTP push endpoints, for local
	// development against a fake push service only.
	allowInsecureEndpoints bool
}

// NewScheduleHandler creates a ScheduleHandler with the provided dependencies.
func NewScheduleHandler(svc ScheduleService, v *core.Validator, logger *slog.Logger, allowInsecureEndpoints bool) *ScheduleHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScheduleHandler{
		service:                svc,
		validator:              v,
		logger:                 logger,
		allowInsecureEndpoints: allowInsecureEndpoints,
	}
}

// RegisterRoutes mounts the schedule endpoints onto the mux.
func (h *ScheduleHandler) RegisterRoutes(r chi.Router) {
	r.Route("/schedules", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Get("/", h.List)
		r.Delete("/", h.Delete)
	})
}

// Create handles POST /v1/schedules: validate the subscription, time, zone,
// and rules, then store the subscription and (re)create the endpoint's
// daily job. Returns 201 with the job record.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateScheduleRequest
	if err := core.DecodeJSON(w, r, &req); err != nil {
		core.Error(w, r, err)
		return
	}

	// Rules first so malformed rules report the rule-specific code and
	// index rather than a generic field failure.
	if err := types.RuleSet(req.Rules).Validate(); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		core.Error(w, r, err)
		return
	}
	if err := h.checkEndpoint(req.Subscription.Endpoint); err != nil {
		core.Error(w, r, err)
		return
	}

	at, err := types.ParseClockTime(req.Time)
	if err != nil {
		core.Error(w, r, err)
		return
	}

	job, err := h.service.Schedule(r.Context(), scheduler.ScheduleRequest{
		Subscription: req.Subscription,
		Time:         at,
		Timezone:     req.Timezone,
		Rules:        req.Rules,
	})
	if err != nil {
		core.Error(w, r, err)
		return
	}

	core.JSON(w, r, http.StatusCreated, core.APIResponse{Data: job})
}

// List handles GET /v1/schedules.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	jobs := h.service.Schedules()
	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: ScheduleListResponse{
		Schedules: jobs,
		Count:     len(jobs),
	}})
}

// Delete handles DELETE /v1/schedules?endpoint=... It cancels the
// endpoint's job, leaving the subscription registered. Returns 404 when the
// endpoint has no schedule.
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	endpoint := r.URL.Query().Get("endpoint")
	if endpoint == "" {
		core.Error(w, r, types.NewAppError(types.ErrCodeValidationMissingField,
			"query parameter 'endpoint' is required", nil))
		return
	}

	if !h.service.Cancel(endpoint) {
		core.Error(w, r, types.NewAppError(types.ErrCodeNotFoundSchedule,
			"no schedule exists for this endpoint", nil))
		return
	}

	core.JSON(w, r, http.StatusOK, core.APIResponse{Data: map[string]any{"cancelled": true}})
}

// checkEndpoint enforces HTTPS push endpoints unless explicitly disabled
// for local development.
func (h *ScheduleHandler) checkEndpoint(endpoint string) error {
	if h.allowInsecureEndpoints {
		return nil
	}
	if !strings.HasPrefix(endpoint, "https://") {
		return types.NewAppError(types.ErrCodeValidationInvalidEndpoint,
			"push endpoint must use https", nil)
	}
	return nil
}
