package models

import (
	"gorm.io/gorm"
)

// User 表示系統中的用戶，作為即時教室子系統的身分來源
type User struct {
	gorm.Model          // 內嵌 gorm.Model，提供 ID、CreatedAt、UpdatedAt 和 DeletedAt 字段
	Username    string   `gorm:"uniqueIndex;not null" json:"username"` // 用戶名，必須唯一
	DisplayName string   `json:"display_name"`                        // 顯示名稱，聊天訊息會在發送當下快照這個值
	Role        UserRole `gorm:"not null" json:"role"`                // 用戶角色
	TutorID     uint     `json:"tutor_id"`                            // 家教角色對應的家教編號，非家教為 0
	StudentID   uint     `json:"student_id"`                          // 學生角色對應的學生編號，非學生為 0
}

// UserRole 定義用戶角色的類型
type UserRole string

const (
	RoleAdmin   UserRole = "admin"   // 管理員角色
	RoleTutor   UserRole = "tutor"   // 家教角色
	RoleStudent UserRole = "student" // 學生角色
)
