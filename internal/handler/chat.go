package handler

import (
	"net/http"
	"strings"
	"time"

	"pagechat-backend/internal/model"
	"pagechat-backend/internal/service"
	"pagechat-backend/internal/utils"
	"pagechat-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

type ChatHandler struct {
	chatService *service.ChatService
	pageService *service.PageService
}

func NewChatHandler(chatService *service.ChatService, pageService *service.PageService) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		pageService: pageService,
	}
}

// Submit accepts a question. The answer arrives later in the transcript.
func (h *ChatHandler) Submit(c *gin.Context) {
	var req model.SubmitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.chatService.Submit(req.Question); err != nil {
		c.JSON(http.StatusUnprocessableEntity, model.SubmitResponse{
			Accepted: false,
			State:    string(h.chatService.State()),
			Reason:   err.Error(),
		})
		return
	}

	logger.Debugf("question accepted: %s", trimmed(req.Question, 60))
	c.JSON(http.StatusAccepted, model.SubmitResponse{
		Accepted: true,
		State:    string(h.chatService.State()),
	})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	c.JSON(http.StatusOK, model.MessagesResponse{
		Messages: h.chatService.Messages(),
	})
}

func (h *ChatHandler) Suggestions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"suggestions": h.pageService.Suggestions()})
}

func (h *ChatHandler) Reset(c *gin.Context) {
	h.pageService.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

// Stream replays the transcript and then pushes every new entry as a
// "message" event until the client goes away.
func (h *ChatHandler) Stream(c *gin.Context) {
	updates, unsubscribe := h.chatService.Subscribe()
	defer unsubscribe()

	sseWriter := utils.NewSSEWriter(c.Writer)
	c.Status(http.StatusOK)
	c.Writer.Flush()

	// subscribed before the snapshot, so an entry may arrive twice
	seen := make(map[string]struct{})
	for _, msg := range h.chatService.Messages() {
		seen[msg.ID] = struct{}{}
		if err := sseWriter.WriteJSON("message", msg); err != nil {
			logger.Warnf("write sse snapshot: %v", err)
			return
		}
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if err := sseWriter.Ping(); err != nil {
				return
			}
		case msg, ok := <-updates:
			if !ok {
				_ = sseWriter.Close()
				return
			}
			if _, dup := seen[msg.ID]; dup {
				continue
			}
			seen[msg.ID] = struct{}{}
			if err := sseWriter.WriteJSON("message", msg); err != nil {
				logger.Warnf("write sse message: %v", err)
				return
			}
		}
	}
}

func trimmed(s string, n int) string {
	s = strings.TrimSpace(s)
	if len([]rune(s)) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
