package service

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
)

// WhiteboardService 維護每個房間只增不改的筆劃記錄
// 筆劃以伺服器接收序號排序，客戶端時鐘偏差不影響共享記錄的順序
// 廣播一律排除作者本人（回音消除）
type WhiteboardService struct {
	strokeRepo repository.StrokeRepository
	roomRepo   repository.RoomRepository
	wsManager  *WebSocketManager

	mu      sync.Mutex
	seqs    map[string]uint64                     // roomID -> 最近配發的接收序號
	pending map[string]map[string][]models.Point  // roomID -> strokeID -> 繪製中筆劃的暫存點
	log     *logrus.Entry
}

func NewWhiteboardService(strokeRepo repository.StrokeRepository, roomRepo repository.RoomRepository, wsManager *WebSocketManager) *WhiteboardService {
	return &WhiteboardService{
		strokeRepo: strokeRepo,
		roomRepo:   roomRepo,
		wsManager:  wsManager,
		seqs:       make(map[string]uint64),
		pending:    make(map[string]map[string][]models.Point),
		log:        logrus.WithField("component", "whiteboard_service"),
	}
}

// activeRoom 確認房間存在且進行中，結束後的白板操作一律拒絕
func (s *WhiteboardService) activeRoom(roomID string) error {
	room, err := s.roomRepo.FindByRoomID(roomID)
	if err != nil {
		return ErrRoomNotFound
	}
	if room.Status != models.RoomStatusActive {
		return ErrRoomNotActive
	}
	return nil
}

// AddStroke 持久化一筆完成的筆劃並廣播給房間內的其他參與者
// 筆劃自帶完整點列表，先前為同一 strokeID 暫存的增量點直接丟棄，
// 確保一筆筆劃只落一筆記錄
func (s *WhiteboardService) AddStroke(roomID string, userID uint, role models.UserRole, payload models.StrokePayload) (*models.WhiteboardStroke, error) {
	if err := s.activeRoom(roomID); err != nil {
		return nil, err
	}

	points, err := json.Marshal(payload.Points)
	if err != nil {
		return nil, err
	}

	stroke := &models.WhiteboardStroke{
		StrokeID:   payload.StrokeID,
		RoomID:     roomID,
		UserID:     userID,
		Points:     string(points),
		Color:      payload.Color,
		Width:      payload.Width,
		Tool:       payload.Tool,
		ClientTime: payload.ClientTime,
		Seq:        s.nextSeq(roomID),
	}

	if err := s.strokeRepo.Create(stroke); err != nil {
		return nil, err
	}

	// 清掉這筆筆劃累積的增量暫存
	s.mu.Lock()
	if buf, ok := s.pending[roomID]; ok {
		delete(buf, payload.StrokeID)
	}
	s.mu.Unlock()

	s.broadcastExcept(roomID, userID, role, models.MessageTypeStroke, payload)
	return stroke, nil
}

// AddDelta 轉發繪製中筆劃的新增點
// 增量不獨立持久化，只暫存；落庫只發生在之後的完整筆劃訊息
// 每個繪製週期只傳新點是頻寬上的考量，否則累計流量是點數的平方
func (s *WhiteboardService) AddDelta(roomID string, userID uint, role models.UserRole, payload models.DeltaPayload) error {
	if err := s.activeRoom(roomID); err != nil {
		return err
	}

	s.mu.Lock()
	if s.pending[roomID] == nil {
		s.pending[roomID] = make(map[string][]models.Point)
	}
	s.pending[roomID][payload.StrokeID] = append(s.pending[roomID][payload.StrokeID], payload.Points...)
	s.mu.Unlock()

	s.broadcastExcept(roomID, userID, role, models.MessageTypeStrokeDelta, payload)
	return nil
}

// Undo 撤銷指定的筆劃並廣播，記錄以標記方式撤銷，不物理刪除
func (s *WhiteboardService) Undo(roomID string, userID uint, role models.UserRole, payload models.UndoPayload) error {
	if err := s.activeRoom(roomID); err != nil {
		return err
	}

	if err := s.strokeRepo.Revoke(roomID, payload.StrokeID, userID); err != nil {
		return err
	}

	s.broadcastExcept(roomID, userID, role, models.MessageTypeUndo, payload)
	return nil
}

// Clear 撤銷指定用戶的所有筆劃並廣播，目標為 0 時清除發起者自己的筆劃
func (s *WhiteboardService) Clear(roomID string, userID uint, role models.UserRole, payload models.ClearPayload) error {
	if err := s.activeRoom(roomID); err != nil {
		return err
	}

	target := payload.UserID
	if target == 0 {
		target = userID
	}
	payload.UserID = target

	if err := s.strokeRepo.RevokeByUser(roomID, target, userID); err != nil {
		return err
	}

	s.broadcastExcept(roomID, userID, role, models.MessageTypeClear, payload)
	return nil
}

// Replay 回傳房間至今的完整有序筆劃記錄
// （重新）加入的參與者以此重建畫布，不需要另外的狀態同步協議
func (s *WhiteboardService) Replay(roomID string) ([]models.WhiteboardStroke, error) {
	if _, err := s.roomRepo.FindByRoomID(roomID); err != nil {
		return nil, ErrRoomNotFound
	}
	return s.strokeRepo.FindByRoomID(roomID)
}

// ReplayMessages 將重播記錄包裝成即時訊息封包，連線建立後逐筆送出
func (s *WhiteboardService) ReplayMessages(roomID string) ([]*models.RoomMessage, error) {
	strokes, err := s.Replay(roomID)
	if err != nil {
		return nil, err
	}

	messages := make([]*models.RoomMessage, 0, len(strokes))
	for _, stroke := range strokes {
		var points []models.Point
		if err := json.Unmarshal([]byte(stroke.Points), &points); err != nil {
			s.log.WithFields(logrus.Fields{
				"room_id":   roomID,
				"stroke_id": stroke.StrokeID,
			}).WithError(err).Warn("重播時解析筆劃座標失敗，跳過該筆")
			continue
		}
		payload, err := json.Marshal(models.StrokePayload{
			StrokeID:   stroke.StrokeID,
			Points:     points,
			Color:      stroke.Color,
			Width:      stroke.Width,
			Tool:       stroke.Tool,
			ClientTime: stroke.ClientTime,
		})
		if err != nil {
			continue
		}
		messages = append(messages, &models.RoomMessage{
			Type:      models.MessageTypeStroke,
			RoomID:    roomID,
			UserID:    stroke.UserID,
			Payload:   payload,
			Timestamp: stroke.CreatedAt,
		})
	}
	return messages, nil
}

// ReleaseRoom 釋放房間的暫存狀態，課程結束後由事件處理器呼叫
func (s *WhiteboardService) ReleaseRoom(roomID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seqs, roomID)
	delete(s.pending, roomID)
}

// nextSeq 配發房間內單調遞增的接收序號，首次使用時從資料庫接續
func (s *WhiteboardService) nextSeq(roomID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.seqs[roomID]; !ok {
		maxSeq, err := s.strokeRepo.MaxSeq(roomID)
		if err != nil {
			s.log.WithField("room_id", roomID).WithError(err).Error("讀取接收序號失敗，從 0 接續")
		}
		s.seqs[roomID] = maxSeq
	}
	s.seqs[roomID]++
	return s.seqs[roomID]
}

func (s *WhiteboardService) broadcastExcept(roomID string, userID uint, role models.UserRole, msgType string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	s.wsManager.BroadcastToRoomExcept(roomID, userID, &models.RoomMessage{
		Type:      msgType,
		RoomID:    roomID,
		UserID:    userID,
		Role:      string(role),
		Payload:   data,
		Timestamp: time.Now(),
	})
}
