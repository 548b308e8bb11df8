package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/registry"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/response"
)

// EventHandler handles event-related HTTP requests
type EventHandler struct {
	eventService service.EventService
	metadata     registry.EventMetadata
	log          *logger.Logger
}

// NewEventHandler creates a new EventHandler. The metadata store here
// may be a cached read path, it is only used for display attributes.
func NewEventHandler(eventService service.EventService, metadata registry.EventMetadata, log *logger.Logger) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		metadata:     metadata,
		log:          log,
	}
}

// Create handles POST /communities/:id/events. Only the community
// authority can create events.
func (h *EventHandler) Create(c *gin.Context) {
	communityID := c.Param("id")
	if communityID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Community ID is required"))
		return
	}

	var req dto.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	requester, ok := requireIdentity(c)
	if !ok {
		return
	}

	event, err := h.eventService.Create(c.Request.Context(), communityID, requester, &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	attrs, _ := h.metadata.Attributes(c.Request.Context(), event.ID)
	c.JSON(http.StatusCreated, response.Success(dto.NewEventResponse(event, attrs)))
}

// GetByID handles GET /events/:id
func (h *EventHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	event, attrs, err := h.eventService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event, attrs)))
}

// ListByCommunity handles GET /communities/:id/events
func (h *EventHandler) ListByCommunity(c *gin.Context) {
	communityID := c.Param("id")
	if communityID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Community ID is required"))
		return
	}

	var filter dto.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	filter.SetDefaults()

	events, err := h.eventService.ListByCommunity(c.Request.Context(), communityID, &filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	responses := make([]*dto.EventResponse, len(events))
	for i, event := range events {
		attrs, _ := h.metadata.Attributes(c.Request.Context(), event.ID)
		responses[i] = dto.NewEventResponse(event, attrs)
	}

	c.JSON(http.StatusOK, response.SuccessWithMeta(responses, &response.Meta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Count:  len(responses),
	}))
}

// Cancel handles POST /events/:id/cancel. Cancellation is one way
// and waives pending verification for everyone already registered.
func (h *EventHandler) Cancel(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	requester, ok := requireIdentity(c)
	if !ok {
		return
	}

	event, err := h.eventService.Cancel(c.Request.Context(), id, requester)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	attrs, _ := h.metadata.Attributes(c.Request.Context(), event.ID)
	c.JSON(http.StatusOK, response.Success(dto.NewEventResponse(event, attrs)))
}
