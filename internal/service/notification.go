package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
)

// 單一推播通道的緩衝大小，寫滿即視為通道失聯
const pushChannelBuffer = 16

// PushChannel 一個用戶當前唯一的即時推播通道
// 通道只是延遲上的優化，通知記錄本身先落庫，才是事件是否發生的依據
type PushChannel struct {
	UserID uint
	Send   chan []byte
}

// NotificationService 管理通知記錄與每用戶的推播通道註冊表
// 註冊表只存在於記憶體，程序重啟後由客戶端重連重建
type NotificationService struct {
	repo     repository.NotificationRepository
	userRepo repository.UserRepository

	mu       sync.Mutex
	channels map[uint]*PushChannel
	log      *logrus.Entry
}

func NewNotificationService(repo repository.NotificationRepository, userRepo repository.UserRepository) *NotificationService {
	return &NotificationService{
		repo:     repo,
		userRepo: userRepo,
		channels: make(map[uint]*PushChannel),
		log:      logrus.WithField("component", "notification_service"),
	}
}

// Register 註冊用戶的推播通道，同一用戶最多一條，新連線取代舊連線
func (s *NotificationService) Register(userID uint) *PushChannel {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.channels[userID]; ok {
		close(old.Send)
	}
	ch := &PushChannel{
		UserID: userID,
		Send:   make(chan []byte, pushChannelBuffer),
	}
	s.channels[userID] = ch

	s.log.WithField("user_id", userID).Info("推播通道已註冊")
	return ch
}

// Deregister 註銷推播通道
// 只有仍然是當前通道時才動作，避免新連線被舊連線的收尾誤關
func (s *NotificationService) Deregister(userID uint, ch *PushChannel) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.channels[userID] == ch {
		delete(s.channels, userID)
		close(ch.Send)
		s.log.WithField("user_id", userID).Info("推播通道已註銷")
	}
}

// trySend 盡力而為地推送：沒有通道就靜默略過，通道寫滿就註銷它
// 任何情況都不阻塞呼叫者，也不把失敗傳回觸發通知的領域操作
func (s *NotificationService) trySend(userID uint, payload []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.channels[userID]
	if !ok {
		return
	}
	select {
	case ch.Send <- payload:
	default:
		delete(s.channels, userID)
		close(ch.Send)
		s.log.WithField("user_id", userID).Warn("推播通道阻塞，已註銷")
	}
}

// Notify 寫入一則通知並盡力推播
// 記錄一定先寫，推播成敗不影響回傳結果
func (s *NotificationService) Notify(userID uint, title, body, notifType string) (*models.Notification, error) {
	notification := &models.Notification{
		UserID: userID,
		Title:  title,
		Body:   body,
		Type:   notifType,
	}
	if err := s.repo.Create(notification); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(notification)
	if err == nil {
		data, err := json.Marshal(&models.RoomMessage{
			Type:      models.MessageTypeNotification,
			UserID:    userID,
			Payload:   payload,
			Timestamp: time.Now(),
		})
		if err == nil {
			s.trySend(userID, data)
		}
	}

	return notification, nil
}

// HeartbeatChannels 向所有推播通道發送心跳，清除已失聯的通道
// 先取快照再逐一發送，不在發送期間持有整張表的鎖
// 這個心跳只維護通道存活，與房間的參與者心跳完全無關
func (s *NotificationService) HeartbeatChannels() {
	ping, err := json.Marshal(&models.RoomMessage{
		Type:      models.MessageTypeHeartbeat,
		Timestamp: time.Now(),
	})
	if err != nil {
		return
	}

	s.mu.Lock()
	userIDs := make([]uint, 0, len(s.channels))
	for userID := range s.channels {
		userIDs = append(userIDs, userID)
	}
	s.mu.Unlock()

	for _, userID := range userIDs {
		s.trySend(userID, ping)
	}
}

// List 查詢用戶的通知，由新到舊
func (s *NotificationService) List(userID uint) ([]models.Notification, error) {
	return s.repo.FindByUserID(userID)
}

// MarkRead 將通知標記為已讀
func (s *NotificationService) MarkRead(id, userID uint) error {
	if err := s.repo.MarkRead(id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		return err
	}
	return nil
}

// HandleSessionEnded 課程結束事件的通知處理器，雙方各收到一則
// 參與者由領域身分反查，不依賴當下是否還有連線
func (s *NotificationService) HandleSessionEnded(event Event) error {
	body := fmt.Sprintf("課程已結束，計費時長 %d 分鐘", event.DurationMinutes)

	var firstErr error
	if tutor, err := s.userRepo.FindByTutorID(event.TutorID); err == nil {
		if _, err := s.Notify(tutor.ID, "課程結束", body, "session_ended"); err != nil && firstErr == nil {
			firstErr = err
		}
	} else if firstErr == nil {
		firstErr = err
	}

	if student, err := s.userRepo.FindByStudentID(event.StudentID); err == nil {
		if _, err := s.Notify(student.ID, "課程結束", body, "session_ended"); err != nil && firstErr == nil {
			firstErr = err
		}
	} else if firstErr == nil {
		firstErr = err
	}

	return firstErr
}

// HandleRecordingStopped 錄影停止事件的通知處理器，只通知家教
func (s *NotificationService) HandleRecordingStopped(event Event) error {
	tutor, err := s.userRepo.FindByTutorID(event.TutorID)
	if err != nil {
		return err
	}
	_, err = s.Notify(tutor.ID, "錄影已停止", "本堂課的錄影已停止並完成保存", "recording_stopped")
	return err
}
