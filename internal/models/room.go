package models

import (
	"time"

	"gorm.io/gorm"
)

// Room 表示一堂線上課程的教室
type Room struct {
	gorm.Model
	RoomID  string     `gorm:"uniqueIndex;not null" json:"room_id"` // 對外的穩定識別碼
	Status  RoomStatus `json:"status"`
	TutorID   uint `json:"tutor_id"`   // 指派的家教編號
	StudentID uint `json:"student_id"` // 指派的學生編號

	ScheduledStart time.Time  `json:"scheduled_start"` // 排定的開始時間
	ScheduledEnd   time.Time  `json:"scheduled_end"`   // 排定的結束時間
	ActualStart    *time.Time `json:"actual_start"`    // 實際開始時間，第一位參與者加入時記錄
	ActualEnd      *time.Time `json:"actual_end"`      // 實際結束時間，只會被設定一次

	TutorJoinedAt   *time.Time `json:"tutor_joined_at"`   // 家教首次加入時間，重連不覆寫
	StudentJoinedAt *time.Time `json:"student_joined_at"` // 學生首次加入時間，重連不覆寫
	TutorLeftAt     *time.Time `json:"tutor_left_at"`
	StudentLeftAt   *time.Time `json:"student_left_at"`

	LastActivityAt  time.Time `json:"last_activity_at"` // 最近一次心跳或加入的時間
	DurationMinutes int       `json:"duration_minutes"` // 計費時長（分鐘），結束時由重疊區間推導，不可直接設定

	SnapshotRef string `json:"snapshot_ref"` // 白板快照的引用

	// 錄影相關資料
	RecordingEnabled    bool       `json:"recording_enabled"`
	RecordingStartedAt  *time.Time `json:"recording_started_at"`
	RecordingStoppedAt  *time.Time `json:"recording_stopped_at"`
	RecordingSeconds    int        `json:"recording_seconds"`
	RecordingBytes      int64      `json:"recording_bytes"`
	RecordingDownloaded bool       `json:"recording_downloaded"`

	BillingRecordID uint `json:"billing_record_id"` // 對應帳務記錄的外部連結
}

// RoomStatus 定義教室狀態的類型，狀態只會單向前進：waiting -> active -> ended
type RoomStatus string

const (
	RoomStatusWaiting RoomStatus = "waiting" // 已排定，等待第一位參與者加入
	RoomStatusActive  RoomStatus = "active"  // 課程進行中
	RoomStatusEnded   RoomStatus = "ended"   // 已結束，終態，保留供帳務與稽核
)
