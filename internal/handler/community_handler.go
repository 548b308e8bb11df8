package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Fosho-App/fosho-v1/internal/dto"
	"github.com/Fosho-App/fosho-v1/internal/service"
	"github.com/Fosho-App/fosho-v1/pkg/logger"
	"github.com/Fosho-App/fosho-v1/pkg/response"
)

// CommunityHandler handles community-related HTTP requests
type CommunityHandler struct {
	communityService service.CommunityService
	log              *logger.Logger
}

// NewCommunityHandler creates a new CommunityHandler
func NewCommunityHandler(communityService service.CommunityService, log *logger.Logger) *CommunityHandler {
	return &CommunityHandler{
		communityService: communityService,
		log:              log,
	}
}

// Create handles POST /communities. The authenticated identity
// becomes the community authority.
func (h *CommunityHandler) Create(c *gin.Context) {
	var req dto.CreateCommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.BadRequest("Invalid request body"))
		return
	}

	authority, ok := requireIdentity(c)
	if !ok {
		return
	}

	community, err := h.communityService.Create(c.Request.Context(), authority, &req)
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(dto.NewCommunityResponse(community)))
}

// GetByID handles GET /communities/:id. A community seed is accepted
// in place of the id so organizers can use their own handle.
func (h *CommunityHandler) GetByID(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, response.BadRequest("Community ID is required"))
		return
	}

	community, err := h.communityService.GetByID(c.Request.Context(), id)
	if err != nil {
		community, err = h.communityService.GetBySeed(c.Request.Context(), id)
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(dto.NewCommunityResponse(community)))
}
