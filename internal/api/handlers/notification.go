package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tutor_room/internal/service"
)

// NotificationHandler 處理通知查詢與推播通道的連線
type NotificationHandler struct {
	notificationService *service.NotificationService
}

// NewNotificationHandler 創建一個新的 NotificationHandler 實例
func NewNotificationHandler(notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

// ListNotifications 查詢自己的通知，由新到舊
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID := c.GetUint("userID")

	notifications, err := h.notificationService.List(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "查詢通知失敗"})
		return
	}

	c.JSON(http.StatusOK, notifications)
}

// MarkRead 將通知標記為已讀
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetUint("userID")

	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "無效的通知 ID"})
		return
	}

	if err := h.notificationService.MarkRead(uint(id), userID); err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "更新通知失敗"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "通知已標記為已讀"})
}

// HandleNotificationSocket 處理用戶推播通道的 WebSocket 連接
// 每位用戶最多一條通道，正常結束、逾時或出錯都會自動註銷
func (h *NotificationHandler) HandleNotificationSocket(c *gin.Context) {
	userID := c.GetUint("userID")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}
	defer conn.Close()

	ch := h.notificationService.Register(userID)
	defer h.notificationService.Deregister(userID, ch)

	// 讀取迴圈只為偵測客戶端關閉，推播通道不接收客戶端訊息
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case payload, ok := <-ch.Send:
			if !ok {
				// 通道已被註銷（阻塞被清除或被新連線取代）
				return
			}
			conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
