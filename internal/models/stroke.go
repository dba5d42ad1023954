package models

import (
	"time"

	"gorm.io/gorm"
)

// WhiteboardStroke 表示白板上一筆已完成的筆劃，寫入後不可變更
// 「擦除」以 tool=eraser 的新筆劃或 undo/clear 操作表示，不做原地修改
type WhiteboardStroke struct {
	gorm.Model
	StrokeID string `gorm:"index" json:"stroke_id"`               // 客戶端產生的筆劃識別碼
	RoomID   string `gorm:"index:idx_room_seq" json:"room_id"`
	UserID   uint   `json:"user_id"`
	Points   string `gorm:"type:jsonb" json:"points"`             // 座標點列表的 JSON 表示
	Color    string `gorm:"type:varchar(20)" json:"color"`
	Width    float64 `json:"width"`
	Tool     string `gorm:"type:varchar(20)" json:"tool"`
	ClientTime time.Time `json:"client_time"`                     // 客戶端時間，僅供參考，排序以 Seq 為準
	Seq        uint64    `gorm:"index:idx_room_seq" json:"seq"`   // 伺服器接收序號，房間內單調遞增
	Revoked    bool      `json:"revoked"`                          // undo/clear 以標記撤銷表示，不物理刪除
	RevokedBy  uint      `json:"revoked_by"`
}
