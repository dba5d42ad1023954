package service

import (
	"encoding/json"
	"errors"
	"time"

	"gorm.io/gorm"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
)

// 聊天記錄分頁的預設大小
const defaultChatPageSize = 50

// ChatService 處理房間內的聊天訊息：持久化、分頁查詢與即時廣播
type ChatService struct {
	chatRepo  repository.ChatMessageRepository
	roomRepo  repository.RoomRepository
	userRepo  repository.UserRepository
	wsManager *WebSocketManager
}

func NewChatService(chatRepo repository.ChatMessageRepository, roomRepo repository.RoomRepository, userRepo repository.UserRepository, wsManager *WebSocketManager) *ChatService {
	return &ChatService{
		chatRepo:  chatRepo,
		roomRepo:  roomRepo,
		userRepo:  userRepo,
		wsManager: wsManager,
	}
}

// Send 持久化並廣播一條聊天訊息
// 發送者的名稱與角色在此刻解析並隨訊息保存，日後用戶資料變更不影響歷史記錄
// 房間結束後遲到的訊息仍然入庫供稽核，但不再即時廣播
func (s *ChatService) Send(roomID string, senderID uint, content string) (*models.ChatMessage, error) {
	room, err := s.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	sender, err := s.userRepo.FindByID(senderID)
	if err != nil {
		return nil, err
	}

	message := &models.ChatMessage{
		RoomID:     roomID,
		SenderID:   senderID,
		SenderName: sender.DisplayName,
		SenderRole: sender.Role,
		Content:    content,
		SentAt:     time.Now(),
	}

	if err := s.chatRepo.Create(message); err != nil {
		return nil, err
	}

	if room.Status != models.RoomStatusEnded {
		payload, err := json.Marshal(message)
		if err == nil {
			s.wsManager.BroadcastToRoom(roomID, &models.RoomMessage{
				Type:      models.MessageTypeChat,
				RoomID:    roomID,
				UserID:    senderID,
				Role:      string(sender.Role),
				Payload:   payload,
				Timestamp: message.SentAt,
			})
		}
	}

	return message, nil
}

// History 依發送時間由新到舊分頁查詢聊天記錄
// 房間不存在回傳 ErrRoomNotFound；房間存在但沒有訊息回傳空頁，兩者必須可區分
func (s *ChatService) History(roomID string, page, pageSize int) ([]models.ChatMessage, error) {
	if _, err := s.roomRepo.FindByRoomID(roomID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	if pageSize <= 0 {
		pageSize = defaultChatPageSize
	}
	return s.chatRepo.FindPageByRoomID(roomID, page, pageSize)
}
