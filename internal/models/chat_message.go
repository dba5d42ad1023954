package models

import (
	"time"

	"gorm.io/gorm"
)

// ChatMessage 表示一條已持久化的聊天訊息
// 發送者名稱與角色在發送當下快照，之後即使用戶資料變更也不回頭重查
type ChatMessage struct {
	gorm.Model
	RoomID     string   `gorm:"index" json:"room_id"`
	SenderID   uint     `json:"sender_id"`
	SenderName string   `gorm:"type:varchar(100)" json:"sender_name"`
	SenderRole UserRole `gorm:"type:varchar(20)" json:"sender_role"`
	Content    string   `gorm:"type:text" json:"content"`
	SentAt     time.Time `json:"sent_at"` // 伺服器時間
}
