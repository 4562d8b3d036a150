package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/askweb/askweb/internal/domain"
	"github.com/askweb/askweb/internal/service"
	"go.uber.org/zap"
)

// Handler handles chat API requests
type Handler struct {
	chatService *service.ChatService
	logger      *zap.Logger
}

// NewHandler creates a new chat handler
func NewHandler(chatService *service.ChatService, logger *zap.Logger) *Handler {
	return &Handler{chatService: chatService, logger: logger}
}

// RegisterRoutes registers chat routes
func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("/chat", h.Chat)
}

// Chat answers a question as an SSE event stream. Setup failures (bad input,
// search failure, no results) are reported as a JSON error body with the
// matching status code before any streaming begins; once the stream is open
// every outcome, including failure, is delivered as an in-stream event and the
// terminal event is always the last thing written.
func (h *Handler) Chat(c *gin.Context) {
	var req domain.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
		return
	}

	events, err := h.chatService.Stream(c.Request.Context(), &req)
	if err != nil {
		var se *domain.StatusError
		if errors.As(err, &se) {
			c.JSON(se.Status, se)
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error", "details": err.Error()})
		return
	}

	// Set SSE headers
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	for event := range events {
		data, err := json.Marshal(event)
		if err != nil {
			h.logger.Error("failed to marshal event", zap.Error(err))
			continue
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		c.Writer.Flush()
	}
}
