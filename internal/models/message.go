package models

import (
	"encoding/json"
	"time"
)

// RoomMessage 代表一個統一的即時訊息封包，以 Type 欄位區分訊息種類
// UserID 與 Role 一律由伺服器依連線綁定的身分填入，不信任客戶端傳來的值
type RoomMessage struct {
	Type      string          `json:"type"` // stroke / stroke_delta / undo / clear / chat / heartbeat / system / notification
	RoomID    string          `json:"room_id,omitempty"`
	UserID    uint            `json:"user_id,omitempty"`
	Role      string          `json:"role,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// 即時訊息的種類
const (
	MessageTypeStroke       = "stroke"       // 一筆完成的筆劃
	MessageTypeStrokeDelta  = "stroke_delta" // 繪製中筆劃的增量點
	MessageTypeUndo         = "undo"         // 撤銷指定筆劃
	MessageTypeClear        = "clear"        // 清除指定用戶的所有筆劃
	MessageTypeChat         = "chat"         // 聊天訊息
	MessageTypeHeartbeat    = "heartbeat"    // 參與者心跳，無內容
	MessageTypeSystem       = "system"       // 系統訊息
	MessageTypeNotification = "notification" // 推播通知
	MessageTypeError        = "error"        // 錯誤回報給單一客戶端
)

// Point 白板上的一個座標點
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// StrokePayload 完整筆劃的內容
type StrokePayload struct {
	StrokeID   string    `json:"stroke_id"`
	Points     []Point   `json:"points"`
	Color      string    `json:"color"`
	Width      float64   `json:"width"`
	Tool       string    `json:"tool"`
	ClientTime time.Time `json:"client_time"`
}

// DeltaPayload 繪製中筆劃的新增點，StartIndex 表示這批點在整筆筆劃中的起始位置
// 只傳新增的點以避免每個繪製週期重送整個點列表
type DeltaPayload struct {
	StrokeID   string  `json:"stroke_id"`
	StartIndex int     `json:"start_index"`
	Points     []Point `json:"points"`
}

// UndoPayload 撤銷操作引用的筆劃
type UndoPayload struct {
	StrokeID string `json:"stroke_id"`
}

// ClearPayload 清除操作的目標用戶，為 0 時表示清除發送者自己的筆劃
type ClearPayload struct {
	UserID uint `json:"user_id"`
}

// ChatPayload 聊天訊息的內容
type ChatPayload struct {
	Content string `json:"content"`
}

// NewSystemMessage 創建一個新的系統訊息封包
func NewSystemMessage(roomID, content string) *RoomMessage {
	payload, _ := json.Marshal(map[string]string{"content": content})
	return &RoomMessage{
		Type:      MessageTypeSystem,
		RoomID:    roomID,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
