package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"tutor_room/internal/api/handlers"
	"tutor_room/internal/middleware"
	"tutor_room/internal/service"
)

func SetupRoutes(r *gin.Engine, services *service.Services) {
	// 初始化 handlers
	roomHandler := handlers.NewRoomHandler(services.Room, services.Access, services.RoomToken)
	chatHandler := handlers.NewChatHandler(services.Chat, services.Access)
	notificationHandler := handlers.NewNotificationHandler(services.Notification)
	wsHandler := handlers.NewWebSocketHandler(services.WebSocketManager, services.RoomToken, services.Access)

	// API 路由群組
	api := r.Group("/api")

	// 處理 404 錯誤
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error": "找不到該路徑",
		})
	})

	// 公開路由
	{
		// 基本的健康檢查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status": "ok",
			})
		})

		// 教室的 WebSocket 連接點
		// 不走應用程式層的 session 驗證，由 Connection Gateway 以房間憑證驗證
		api.GET("/rooms/:id/ws", wsHandler.HandleRoomSocket)
	}

	// 需要驗證的路由
	authorized := api.Group("/")
	authorized.Use(middleware.AuthMiddleware())
	{
		// 教室相關
		rooms := authorized.Group("/rooms")
		{
			rooms.GET("", roomHandler.ListRooms)   // 獲取教室列表
			rooms.POST("", roomHandler.CreateRoom) // 排課方建立教室
			rooms.GET("/:id", roomHandler.GetRoom) // 獲取教室信息

			rooms.POST("/:id/join", roomHandler.JoinRoom) // 加入教室並取得房間憑證
			rooms.POST("/:id/end", roomHandler.EndRoom)   // 明確結束課程

			rooms.POST("/:id/recording/start", roomHandler.StartRecording) // 開始錄影
			rooms.POST("/:id/recording/stop", roomHandler.StopRecording)   // 停止錄影

			rooms.GET("/:id/messages", chatHandler.GetMessages) // 分頁查詢聊天記錄
		}

		// 通知相關
		notifications := authorized.Group("/notifications")
		{
			notifications.GET("", notificationHandler.ListNotifications)
			notifications.POST("/:id/read", notificationHandler.MarkRead)
		}

		// 用戶推播通道的 WebSocket 連接點
		authorized.GET("/ws/notifications", notificationHandler.HandleNotificationSocket)
	}
}
