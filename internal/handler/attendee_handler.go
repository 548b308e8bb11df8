package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fosho-App/fosho-v1/internal/domain"
	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/middleware"
	"github.com/Fosho-App/fosho-v1/pkg/response"
)

// AttendeeHandler handles registration, scanning and claim requests
type AttendeeHandler struct {
	attendanceService service.AttendanceService
	claimService      service.ClaimService
	log               *logger.Logger
}

// NewAttendeeHandler creates a new AttendeeHandler
func NewAttendeeHandler(attendanceService service.AttendanceService, claimService service.ClaimService, log *logger.Logger) *AttendeeHandler {
	return &AttendeeHandler{
		attendanceService: attendanceService,
		claimService:      claimService,
		log:               log,
	}
}

// Join handles POST /events/:id/join. The registrant is the
// authenticated identity; when the event demands an authority
// co-signature it arrives as a second token on X-Authority-Token.
func (h *AttendeeHandler) Join(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	// The body is optional, open events need no eligibility proof.
	var req dto.JoinEventRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
			return
		}
	}

	requester, ok := requireIdentity(c)
	if !ok {
		return
	}
	cosigner, _ := middleware.GetCosigner(c)

	attendee, ticket, err := h.attendanceService.Join(c.Request.Context(), eventID, requester, cosigner, &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.NewAttendeeResponse(attendee, ticket)))
}

// Verify handles POST /attendees/:id/verify
func (h *AttendeeHandler) Verify(c *gin.Context) {
	h.scan(c, h.attendanceService.Verify)
}

// Reject handles POST /attendees/:id/reject
func (h *AttendeeHandler) Reject(c *gin.Context) {
	h.scan(c, h.attendanceService.Reject)
}

// scan runs a verify or reject operation on behalf of the
// authenticated scanning authority.
func (h *AttendeeHandler) scan(c *gin.Context, op func(ctx context.Context, attendeeID, authority string) (*domain.Attendee, error)) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Attendee ID is required"))
		return
	}

	authority, ok := requireIdentity(c)
	if !ok {
		return
	}

	attendee, err := op(c.Request.Context(), id, authority)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewAttendeeResponse(attendee, nil)))
}

// GetByID handles GET /attendees/:id
func (h *AttendeeHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Attendee ID is required"))
		return
	}

	attendee, ticket, err := h.attendanceService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewAttendeeResponse(attendee, ticket)))
}

// ListByEvent handles GET /events/:id/attendees
func (h *AttendeeHandler) ListByEvent(c *gin.Context) {
	eventID := c.Param("id")
	if eventID == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Event ID is required"))
		return
	}

	var filter dto.AttendeeListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid query parameters"))
		return
	}
	filter.SetDefaults()

	attendees, err := h.attendanceService.ListByEvent(c.Request.Context(), eventID, &filter)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	responses := make([]*dto.AttendeeResponse, len(attendees))
	for i, a := range attendees {
		responses[i] = dto.NewAttendeeResponse(a, nil)
	}

	c.JSON(http.StatusOK, response.SuccessWithMeta(responses, &response.Meta{
		Limit:  filter.Limit,
		Offset: filter.Offset,
		Count:  len(responses),
	}))
}

// Claim handles POST /attendees/:id/claim
func (h *AttendeeHandler) Claim(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Attendee ID is required"))
		return
	}

	// The body is optional, rewards default to the claimer's account.
	var req dto.ClaimTicketRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
			return
		}
	}

	claimer, ok := requireIdentity(c)
	if !ok {
		return
	}

	attendee, err := h.claimService.Claim(c.Request.Context(), id, claimer, &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewAttendeeResponse(attendee, nil)))
}
