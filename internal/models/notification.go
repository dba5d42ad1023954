package models

import (
	"gorm.io/gorm"
)

// Notification 表示一則持久化的用戶通知
// 記錄先於推播寫入，是「事件是否發生」的唯一依據；推播只是延遲上的優化
type Notification struct {
	gorm.Model
	UserID uint   `gorm:"index" json:"user_id"`
	Title  string `gorm:"type:varchar(100)" json:"title"`
	Body   string `gorm:"type:text" json:"body"`
	Type   string `gorm:"type:varchar(50)" json:"type"`
	Read   bool   `json:"read"` // 唯一允許變更的欄位
}
