package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"scrumkit/internal/service"
)

type VelocityHandler struct {
	velocityService *service.VelocityService
}

func NewVelocityHandler(velocityService *service.VelocityService) *VelocityHandler {
	return &VelocityHandler{velocityService: velocityService}
}

type RecordVelocityInput struct {
	Sprint    string `json:"sprint" binding:"required"`
	Committed int    `json:"committed"`
	Completed int    `json:"completed"`
}

func (h *VelocityHandler) Record(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	var input RecordVelocityInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	entry, err := h.velocityService.Record(uint(workspaceID), c.GetUint("userID"),
		input.Sprint, input.Committed, input.Completed)
	switch {
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to record sprint"})
	default:
		c.JSON(http.StatusCreated, entry)
	}
}

func (h *VelocityHandler) Report(c *gin.Context) {
	workspaceID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid workspace id"})
		return
	}

	report, err := h.velocityService.Report(uint(workspaceID), c.GetUint("userID"))
	switch {
	case errors.Is(err, service.ErrNotMember):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to build report"})
	default:
		c.JSON(http.StatusOK, report)
	}
}
