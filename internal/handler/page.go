package handler

import (
	"errors"
	"net/http"

	"pagechat-backend/internal/extractor"
	"pagechat-backend/internal/model"
	"pagechat-backend/internal/service"
	"pagechat-backend/pkg/logger"

	"github.com/gin-gonic/gin"
)

type PageHandler struct {
	pageService *service.PageService
	chatService *service.ChatService
}

func NewPageHandler(pageService *service.PageService, chatService *service.ChatService) *PageHandler {
	return &PageHandler{
		pageService: pageService,
		chatService: chatService,
	}
}

// Open loads a page into the tab and starts a new conversation about it.
// A page that loads but cannot be analyzed is still a 200; the failure is
// in the status and the transcript.
func (h *PageHandler) Open(c *gin.Context) {
	var req model.OpenPageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	_, err := h.pageService.Open(c.Request.Context(), req.URL)
	if err != nil {
		var extractionErr *extractor.ExtractionError
		if !errors.As(err, &extractionErr) {
			logger.Errorf("open page %s: %v", req.URL, err)
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
	}

	c.JSON(http.StatusOK, model.OpenPageResponse{
		Status:   h.pageService.Status(),
		Messages: h.chatService.Messages(),
	})
}

func (h *PageHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.pageService.Status())
}
