package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"scrumkit/internal/service"
)

// CatalogHandler exposes room/board creation and lookup. Anonymous
// callers may create open or passworded sessions; workspace sessions
// require a member's token.
type CatalogHandler struct {
	catalog *service.CatalogService
}

func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

type CreateRoomInput struct {
	Name        string   `json:"name" binding:"required"`
	Password    string   `json:"password"`
	WorkspaceID *uint    `json:"workspace_id"`
	Sequence    []string `json:"sequence"`
}

type CreateBoardInput struct {
	Name                string `json:"name" binding:"required"`
	Password            string `json:"password"`
	WorkspaceID         *uint  `json:"workspace_id"`
	DefaultTimerSeconds int    `json:"default_timer_seconds"`
	CardsVisible        bool   `json:"cards_visible"`
	ShowAuthors         bool   `json:"show_authors"`
}

func (h *CatalogHandler) CreateRoom(c *gin.Context) {
	var input CreateRoomInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room, err := h.catalog.CreateRoom(service.RoomInput{
		Name:        input.Name,
		Password:    input.Password,
		WorkspaceID: input.WorkspaceID,
		Sequence:    input.Sequence,
	}, actorID(c))
	if err != nil {
		c.JSON(catalogErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, room)
}

func (h *CatalogHandler) GetRoom(c *gin.Context) {
	room, err := h.catalog.GetRoom(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load room"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":           room.ID,
		"name":         room.Name,
		"sequence":     room.Sequence,
		"protected":    room.PasswordHash != "",
		"workspace_id": room.WorkspaceID,
		"created_at":   room.CreatedAt,
	})
}

func (h *CatalogHandler) CreateBoard(c *gin.Context) {
	var input CreateBoardInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	board, err := h.catalog.CreateBoard(service.BoardInput{
		Name:                input.Name,
		Password:            input.Password,
		WorkspaceID:         input.WorkspaceID,
		DefaultTimerSeconds: input.DefaultTimerSeconds,
		CardsVisible:        input.CardsVisible,
		ShowAuthors:         input.ShowAuthors,
	}, actorID(c))
	if err != nil {
		c.JSON(catalogErrorStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, board)
}

func (h *CatalogHandler) GetBoard(c *gin.Context) {
	board, err := h.catalog.GetBoard(c.Param("id"))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load board"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"id":                    board.ID,
		"name":                  board.Name,
		"protected":             board.PasswordHash != "",
		"workspace_id":          board.WorkspaceID,
		"default_timer_seconds": board.DefaultTimerSeconds,
		"cards_visible":         board.CardsVisible,
		"show_authors":          board.ShowAuthors,
		"created_at":            board.CreatedAt,
	})
}

// actorID pulls the authenticated user id set by the auth middleware,
// when there is one.
func actorID(c *gin.Context) *uint {
	if v, exists := c.Get("userID"); exists {
		if id, ok := v.(uint); ok {
			return &id
		}
	}
	return nil
}

func catalogErrorStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrWorkspacePassword):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAuthRequired):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrNotMember):
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
