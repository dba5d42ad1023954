package service

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
)

// RoomService 擁有教室的狀態機：waiting -> active -> ended，不允許回退
// 同一個房間的所有狀態轉換都以房間級互斥鎖串行化，房間之間互不影響
type RoomService struct {
	roomRepo  repository.RoomRepository
	userRepo  repository.UserRepository
	wsManager *WebSocketManager
	bus       *EventBus
	roomLocks sync.Map // roomID -> *sync.Mutex
	log       *logrus.Entry
}

func NewRoomService(roomRepo repository.RoomRepository, userRepo repository.UserRepository, wsManager *WebSocketManager, bus *EventBus) *RoomService {
	return &RoomService{
		roomRepo:  roomRepo,
		userRepo:  userRepo,
		wsManager: wsManager,
		bus:       bus,
		log:       logrus.WithField("component", "room_service"),
	}
}

// lockRoom 取得房間級互斥鎖並上鎖，回傳解鎖函數
func (s *RoomService) lockRoom(roomID string) func() {
	v, _ := s.roomLocks.LoadOrStore(roomID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// loadRoom 讀取房間並將查無資料轉換為 ErrRoomNotFound
func (s *RoomService) loadRoom(roomID string) (*models.Room, error) {
	room, err := s.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}
	return room, nil
}

// CreateRoom 由排課方建立教室，帶入雙方的領域身分與排定時間
func (s *RoomService) CreateRoom(tutorID, studentID uint, scheduledStart, scheduledEnd time.Time) (*models.Room, error) {
	room := &models.Room{
		RoomID:         newRoomID(),
		Status:         models.RoomStatusWaiting,
		TutorID:        tutorID,
		StudentID:      studentID,
		ScheduledStart: scheduledStart,
		ScheduledEnd:   scheduledEnd,
		LastActivityAt: time.Now(),
	}

	if err := s.roomRepo.Create(room); err != nil {
		return nil, err
	}
	return room, nil
}

func (s *RoomService) GetRoom(roomID string) (*models.Room, error) {
	return s.loadRoom(roomID)
}

func (s *RoomService) ListRooms() ([]models.Room, error) {
	return s.roomRepo.FindAll()
}

// JoinRoom 記錄加入
// 第一位課程參與者（家教或學生）加入時房間轉為 active 並記錄實際開始時間
// 首次加入時間一旦記下，重連不覆寫，計費以首次加入為準
func (s *RoomService) JoinRoom(roomID string, userID uint) (*models.Room, error) {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == models.RoomStatusEnded {
		return nil, ErrRoomAlreadyEnded
	}

	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()

	participant := false
	switch user.Role {
	case models.RoleTutor:
		participant = true
		if room.TutorJoinedAt == nil {
			room.TutorJoinedAt = &now
		}
	case models.RoleStudent:
		participant = true
		if room.StudentJoinedAt == nil {
			room.StudentJoinedAt = &now
		}
	}

	// 只有課程參與者能開課；管理員旁聽不觸發開始，也不影響計費時間戳
	if participant && room.Status == models.RoomStatusWaiting {
		room.Status = models.RoomStatusActive
		room.ActualStart = &now
	}
	room.LastActivityAt = now

	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
		"role":    user.Role,
	}).Info("參與者加入房間")

	s.wsManager.BroadcastSystemMessage(roomID, fmt.Sprintf("用戶 %s 加入房間", user.DisplayName))

	return room, nil
}

// EndRoom 由參與者或管理員明確結束課程
func (s *RoomService) EndRoom(roomID string) (*models.Room, error) {
	return s.endRoom(roomID, "participant request")
}

// endRoom 執行結束轉換
// 對已結束的房間回傳 ErrRoomAlreadyEnded，不重算時長、不重發事件
func (s *RoomService) endRoom(roomID, reason string) (*models.Room, error) {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.Status == models.RoomStatusEnded {
		return nil, ErrRoomAlreadyEnded
	}

	now := time.Now()

	// 補上離開時間：沒有明確的離開訊號，結束當下即視為離開
	if room.TutorJoinedAt != nil && room.TutorLeftAt == nil {
		room.TutorLeftAt = &now
	}
	if room.StudentJoinedAt != nil && room.StudentLeftAt == nil {
		room.StudentLeftAt = &now
	}

	room.DurationMinutes = s.computeDuration(room)
	room.Status = models.RoomStatusEnded
	room.ActualEnd = &now

	// 錄影還在進行就順帶收尾
	if room.RecordingStartedAt != nil && room.RecordingStoppedAt == nil {
		room.RecordingStoppedAt = &now
		room.RecordingSeconds = int(now.Sub(*room.RecordingStartedAt).Seconds())
	}

	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"room_id":          roomID,
		"reason":           reason,
		"duration_minutes": room.DurationMinutes,
	}).Info("房間已結束")

	s.wsManager.BroadcastSystemMessage(roomID, "課程已結束")

	s.bus.Publish(Event{
		Type:            EventSessionEnded,
		RoomID:          room.RoomID,
		TutorID:         room.TutorID,
		StudentID:       room.StudentID,
		DurationMinutes: room.DurationMinutes,
	})

	return room, nil
}

// computeDuration 計算計費時長（分鐘）
// 取雙方在場的重疊區間：較晚加入者的首次加入時間，到較早離開者的離開時間
// 任一方從未加入則為零；多次重連只取單一區間，首次加入到結束為止
// （隱性斷線模型下沒有可靠的中途離開訊號，無法誠實地累加多段區間）
func (s *RoomService) computeDuration(room *models.Room) int {
	if room.TutorJoinedAt == nil || room.StudentJoinedAt == nil {
		return 0
	}
	if room.TutorLeftAt == nil || room.StudentLeftAt == nil {
		return 0
	}

	start := *room.TutorJoinedAt
	if room.StudentJoinedAt.After(start) {
		start = *room.StudentJoinedAt
	}
	end := *room.TutorLeftAt
	if room.StudentLeftAt.Before(end) {
		end = *room.StudentLeftAt
	}

	overlap := end.Sub(start)
	if overlap < 0 {
		return 0
	}
	return int(overlap.Minutes())
}

// TouchActivity 更新房間的最後活動時間，參與者心跳時呼叫
func (s *RoomService) TouchActivity(roomID string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	if room.Status != models.RoomStatusActive {
		return ErrRoomNotActive
	}

	room.LastActivityAt = time.Now()
	return s.roomRepo.Update(room)
}

// StartRecording 開始錄影，只允許在課程進行中操作
func (s *RoomService) StartRecording(roomID string) (*models.Room, error) {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.Status != models.RoomStatusActive {
		return nil, ErrRoomNotActive
	}
	if room.RecordingStartedAt != nil && room.RecordingStoppedAt == nil {
		return nil, errors.New("錄影已在進行中")
	}

	now := time.Now()
	room.RecordingEnabled = true
	room.RecordingStartedAt = &now
	room.RecordingStoppedAt = nil

	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}
	return room, nil
}

// StopRecording 停止錄影並記錄時長
func (s *RoomService) StopRecording(roomID string) (*models.Room, error) {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return nil, err
	}
	if room.RecordingStartedAt == nil || room.RecordingStoppedAt != nil {
		return nil, errors.New("目前沒有進行中的錄影")
	}

	now := time.Now()
	room.RecordingStoppedAt = &now
	room.RecordingSeconds = int(now.Sub(*room.RecordingStartedAt).Seconds())

	if err := s.roomRepo.Update(room); err != nil {
		return nil, err
	}

	s.bus.Publish(Event{
		Type:      EventRecordingStopped,
		RoomID:    room.RoomID,
		TutorID:   room.TutorID,
		StudentID: room.StudentID,
	})

	return room, nil
}

// MarkRecordingDownloaded 標記錄影檔已被下載
func (s *RoomService) MarkRecordingDownloaded(roomID string) error {
	unlock := s.lockRoom(roomID)
	defer unlock()

	room, err := s.loadRoom(roomID)
	if err != nil {
		return err
	}
	room.RecordingDownloaded = true
	return s.roomRepo.Update(room)
}

// newRoomID 產生對外使用的房間識別碼
func newRoomID() string {
	b := make([]byte, 8)
	rand.Read(b)
	return hex.EncodeToString(b)
}
