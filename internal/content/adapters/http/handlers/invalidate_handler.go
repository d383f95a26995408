package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pressline/pressline/internal/content/app/service"
	"github.com/pressline/pressline/internal/platform/logger"
	"github.com/pressline/pressline/internal/platform/response"
	"github.com/pressline/pressline/internal/shared/events"
)

// EventPublisher hands invalidation events to the message bus.
type EventPublisher interface {
	Publish(ctx context.Context, event events.InvalidationEvent) error
}

// InvalidateHandler accepts entity change notifications from trusted
// internal callers. With a publisher configured the event goes through
// the bus so every instance invalidates; without one it is applied to
// the local cache directly.
type InvalidateHandler struct {
	publisher   EventPublisher
	invalidator *service.Invalidator
	logger      logger.Logger
}

func NewInvalidateHandler(publisher EventPublisher, invalidator *service.Invalidator, logger logger.Logger) *InvalidateHandler {
	return &InvalidateHandler{
		publisher:   publisher,
		invalidator: invalidator,
		logger:      logger,
	}
}

func (h *InvalidateHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/invalidate", h.Invalidate).Methods("POST")
}

type invalidateRequest struct {
	Entity   string `json:"entity"`
	EntityID int64  `json:"entity_id"`
	Action   string `json:"action"`
}

func (h *InvalidateHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	var req invalidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, response.ErrBadRequest)
		return
	}

	event := events.NewInvalidationEvent(events.EntityType(req.Entity), req.EntityID, events.Action(req.Action))
	if err := event.Valid(); err != nil {
		response.Error(w, response.ErrBadRequest.WithDetails("reason", err.Error()))
		return
	}

	if h.publisher != nil {
		if err := h.publisher.Publish(r.Context(), event); err != nil {
			h.logger.Error("Invalidation publish failed", "entity", req.Entity, "error", err)
			response.Error(w, response.ErrInternal)
			return
		}
	} else if err := h.invalidator.Handle(r.Context(), event); err != nil {
		response.Error(w, response.ErrBadRequest.WithDetails("reason", err.Error()))
		return
	}

	response.Accepted(w, map[string]interface{}{"event_id": event.ID})
}
