package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"tutor_room/internal/models"
	"tutor_room/internal/service"
)

// 定義 WebSocket 升級器
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // 注意：在生產環境中，應該檢查 origin
	},
}

// WebSocketHandler 即時連線的入口（Connection Gateway）
// 在握手階段以房間憑證驗證身分，取代應用程式層的 session 驗證
type WebSocketHandler struct {
	wsManager    *service.WebSocketManager
	tokenService *service.RoomTokenService
	access       *service.RoomAccessValidator
}

// NewWebSocketHandler 創建一個新的 WebSocketHandler 實例
func NewWebSocketHandler(wsManager *service.WebSocketManager, tokenService *service.RoomTokenService, access *service.RoomAccessValidator) *WebSocketHandler {
	return &WebSocketHandler{
		wsManager:    wsManager,
		tokenService: tokenService,
		access:       access,
	}
}

// HandleRoomSocket 處理教室的 WebSocket 連接請求
// 憑證缺失或無效不會讓握手失敗：連線以未驗證狀態建立，
// 後續操作會在授權檢查被拒絕，而不是在傳輸層被默默斷開
func (h *WebSocketHandler) HandleRoomSocket(c *gin.Context) {
	roomID := c.Param("id")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "升級WebSocket失敗"})
		return
	}

	client := &service.Client{
		Conn:   conn,
		RoomID: roomID,
	}

	// 驗證通過才綁定主體，之後所有訊息處理都以綁定的身分為準
	if token := h.bearerToken(c); token != "" {
		claims, err := h.tokenService.ValidateFor(token, roomID)
		if err == nil {
			// 縱深防禦：憑證之外再核對持久化的參與者身分，
			// 已被移出房間的用戶即使持有仍有效的憑證也會被擋下
			if aerr := h.access.Authorize(roomID, claims.UserID); aerr == nil {
				client.UserID = claims.UserID
				client.Role = models.UserRole(claims.Role)
				client.Authenticated = true
			}
		}
	}

	// 處理客戶端連接，阻塞直到連線結束
	h.wsManager.HandleClient(client)
}

// bearerToken 從 query string 或 Authorization 頭中取出房間憑證
func (h *WebSocketHandler) bearerToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	authHeader := c.GetHeader("Authorization")
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}
