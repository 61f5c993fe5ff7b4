package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/InstiTrack/institute_ledger/internal/apperrors"
	"github.com/InstiTrack/institute_ledger/internal/core/domain"
	portssvc "github.com/InstiTrack/institute_ledger/internal/core/ports/services"
	"github.com/InstiTrack/institute_ledger/internal/dto"
	"github.com/InstiTrack/institute_ledger/internal/middleware"
	"github.com/gin-gonic/gin"
)

// eventHandler receives domain events over HTTP and hands them to the
// dispatcher.
type eventHandler struct {
	dispatcher portssvc.EventDispatcher
}

func newEventHandler(dispatcher portssvc.EventDispatcher) *eventHandler {
	return &eventHandler{dispatcher: dispatcher}
}

func registerEventRoutes(rg *gin.RouterGroup, dispatcher portssvc.EventDispatcher) {
	h := newEventHandler(dispatcher)
	rg.POST("/events", h.receiveEvent)
}

// receiveEvent godoc
// @Summary Receive a domain event
// @Description Dispatches the event to its ledger handlers. Redelivery of a handled event is a no-op; a handler failure returns 502 and the event stays queued for reconciliation.
// @Tags events
// @Accept  json
// @Produce  json
// @Param   event body dto.EventEnvelope true "Event envelope"
// @Success 202 {object} map[string]string "Accepted"
// @Failure 400 {object} map[string]string "Unknown event type or bad payload"
// @Failure 502 {object} map[string]string "A handler failed"
// @Router /events [post]
func (h *eventHandler) receiveEvent(c *gin.Context) {
	logger := middleware.GetLoggerFromCtx(c.Request.Context())

	var envelope dto.EventEnvelope
	if err := c.ShouldBindJSON(&envelope); err != nil {
		logger.Error("Failed to bind JSON for receiveEvent", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request format"})
		return
	}

	err := h.dispatcher.DispatchRaw(c.Request.Context(), domain.EventType(envelope.Type), envelope.Payload)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) || errors.Is(err, apperrors.ErrInvalidJournal) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		// The event is logged for reconciliation; tell the caller the
		// ledger effect is not confirmed so it can retry.
		logger.Error("Event dispatch failed", slog.String("error", err.Error()), slog.String("event_type", envelope.Type))
		c.JSON(http.StatusBadGateway, gin.H{"error": "Event handling failed; it will be retried"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "accepted"})
}
