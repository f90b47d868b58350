package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/presence-relay/internal/core"
	"github.com/vovakirdan/presence-relay/internal/proto"
)

// APIHandlers provides read-only REST mirrors of the query events for
// non-socket consumers.
type APIHandlers struct {
	router *core.Router
	log    *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(router *core.Router, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		router: router,
		log:    logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListUsers returns all registered display names.
// GET /api/users
func (h *APIHandlers) ListUsers(c *gin.Context) {
	c.JSON(http.StatusOK, proto.UsersAck{Users: h.router.Users()})
}

// ListGroups returns all groups with member counts, empty groups included.
// GET /api/groups
func (h *APIHandlers) ListGroups(c *gin.Context) {
	c.JSON(http.StatusOK, proto.GroupsAck{Groups: groupSummaries(h.router.Groups())})
}

// GroupDetails returns one group's member list.
// GET /api/groups/:name
func (h *APIHandlers) GroupDetails(c *gin.Context) {
	name := c.Param("name")

	members, err := h.router.GroupMembers(name)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, proto.GroupDetailsAck{
		Success: true,
		Group:   proto.GroupDetails{Name: name, Members: members},
	})
}
