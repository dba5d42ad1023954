package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"tutor_room/internal/service"
)

// ChatHandler 處理聊天記錄相關的請求
type ChatHandler struct {
	chatService *service.ChatService
	access      *service.RoomAccessValidator
}

// NewChatHandler 創建一個新的 ChatHandler 實例
func NewChatHandler(chatService *service.ChatService, access *service.RoomAccessValidator) *ChatHandler {
	return &ChatHandler{
		chatService: chatService,
		access:      access,
	}
}

// GetMessages 處理分頁查詢聊天記錄的請求，由新到舊
// 房間不存在回 404，房間存在但沒有訊息回空列表，兩者明確區分
func (h *ChatHandler) GetMessages(c *gin.Context) {
	roomID := c.Param("id")
	userID := c.GetUint("userID")

	if err := h.access.Authorize(roomID, userID); err != nil {
		switch {
		case errors.Is(err, service.ErrRoomNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRoomAccessDenied):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "授權檢查失敗"})
		}
		return
	}

	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = 1
	}
	pageSize, err := strconv.Atoi(c.DefaultQuery("page_size", "0"))
	if err != nil {
		pageSize = 0
	}

	messages, err := h.chatService.History(roomID, page, pageSize)
	if err != nil {
		if errors.Is(err, service.ErrRoomNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢聊天記錄失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"page":     page,
		"messages": messages,
	})
}
