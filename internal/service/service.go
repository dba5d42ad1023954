package service

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
	"tutor_room/pkg/config"
)

type Services struct {
	RoomToken        *RoomTokenService
	Access           *RoomAccessValidator
	Room             *RoomService
	Whiteboard       *WhiteboardService
	Chat             *ChatService
	Notification     *NotificationService
	Heartbeat        *HeartbeatMonitor
	WebSocketManager *WebSocketManager
	Events           *EventBus
}

func NewServices(repos *repository.Repositories, cfg *config.Config) *Services {
	bus := NewEventBus()
	wsManager := NewWebSocketManager(time.Duration(cfg.Room.HeartbeatGraceSeconds) * time.Second)

	roomService := NewRoomService(repos.Room, repos.User, wsManager, bus)
	whiteboardService := NewWhiteboardService(repos.Stroke, repos.Room, wsManager)
	chatService := NewChatService(repos.ChatMessage, repos.Room, repos.User, wsManager)
	notificationService := NewNotificationService(repos.Notification, repos.User)
	heartbeatMonitor := NewHeartbeatMonitor(roomService, repos.Room, notificationService,
		cfg.Room.HeartbeatGraceSeconds, cfg.Room.ChannelHeartbeatSeconds)

	services := &Services{
		RoomToken:        NewRoomTokenService(cfg.Room.TokenSecret, cfg.Room.TokenTTLMinutes),
		Access:           NewRoomAccessValidator(repos.Room, repos.User),
		Room:             roomService,
		Whiteboard:       whiteboardService,
		Chat:             chatService,
		Notification:     notificationService,
		Heartbeat:        heartbeatMonitor,
		WebSocketManager: wsManager,
		Events:           bus,
	}

	// 同一個結課事件觸發多個互不相干的反應：通知雙方、釋放白板暫存
	bus.Subscribe(EventSessionEnded, notificationService.HandleSessionEnded)
	bus.Subscribe(EventSessionEnded, func(event Event) error {
		whiteboardService.ReleaseRoom(event.RoomID)
		return nil
	})
	bus.Subscribe(EventRecordingStopped, notificationService.HandleRecordingStopped)

	wsManager.SetCallbacks(services.handleClientJoin, services.dispatchRoomMessage)

	return services
}

// handleClientJoin 連線註冊完成後重播白板記錄，讓晚加入者重建畫布
func (s *Services) handleClientJoin(client *Client) {
	if !client.Authenticated {
		return
	}

	messages, err := s.Whiteboard.ReplayMessages(client.RoomID)
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"component": "dispatcher",
			"room_id":   client.RoomID,
		}).WithError(err).Error("重播白板記錄失敗")
		return
	}
	for _, msg := range messages {
		s.WebSocketManager.SendToClient(client, msg)
	}
}

// dispatchRoomMessage 依訊息種類分發給對應的服務
// 身分一律取自連線綁定的主體，未通過憑證驗證的連線所有操作都被拒絕
func (s *Services) dispatchRoomMessage(client *Client, msg *models.RoomMessage) {
	if !client.Authenticated {
		s.sendError(client, "未授權的連線")
		return
	}

	var err error
	switch msg.Type {
	case models.MessageTypeHeartbeat:
		err = s.Heartbeat.Beat(client.RoomID, client.UserID)

	case models.MessageTypeChat:
		var payload models.ChatPayload
		if err = json.Unmarshal(msg.Payload, &payload); err == nil {
			_, err = s.Chat.Send(client.RoomID, client.UserID, payload.Content)
		}

	case models.MessageTypeStroke:
		var payload models.StrokePayload
		if err = json.Unmarshal(msg.Payload, &payload); err == nil {
			_, err = s.Whiteboard.AddStroke(client.RoomID, client.UserID, client.Role, payload)
		}

	case models.MessageTypeStrokeDelta:
		var payload models.DeltaPayload
		if err = json.Unmarshal(msg.Payload, &payload); err == nil {
			err = s.Whiteboard.AddDelta(client.RoomID, client.UserID, client.Role, payload)
		}

	case models.MessageTypeUndo:
		var payload models.UndoPayload
		if err = json.Unmarshal(msg.Payload, &payload); err == nil {
			err = s.Whiteboard.Undo(client.RoomID, client.UserID, client.Role, payload)
		}

	case models.MessageTypeClear:
		var payload models.ClearPayload
		if err = json.Unmarshal(msg.Payload, &payload); err == nil {
			err = s.Whiteboard.Clear(client.RoomID, client.UserID, client.Role, payload)
		}

	default:
		s.sendError(client, "未知的訊息種類")
		return
	}

	if err != nil {
		s.sendError(client, err.Error())
	}
}

func (s *Services) sendError(client *Client, message string) {
	payload, _ := json.Marshal(map[string]string{"error": message})
	s.WebSocketManager.SendToClient(client, &models.RoomMessage{
		Type:      models.MessageTypeError,
		RoomID:    client.RoomID,
		Payload:   payload,
		Timestamp: time.Now(),
	})
}
