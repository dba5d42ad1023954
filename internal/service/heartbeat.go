package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"tutor_room/internal/repository"
)

// HeartbeatMonitor 負責兩條互相獨立的心跳迴圈：
//   - 參與者心跳：更新房間活動時間，寬限期內沒有任何心跳即自動結束房間。
//     沒有心跳是推斷靜默斷線的唯一訊號，傳輸層不保證有乾淨的關閉訊號。
//   - 推播通道心跳：固定間隔探測所有推播通道並清除失聯者，與房間狀態無關。
//
// 兩者刻意解耦：推播通道斷了不能結束進行中的課程，
// 房間逾時也不能波及無關用戶的通知通道。
type HeartbeatMonitor struct {
	roomService         *RoomService
	roomRepo            repository.RoomRepository
	notificationService *NotificationService

	grace           time.Duration // 參與者心跳寬限期
	channelInterval time.Duration // 推播通道心跳間隔
	log             *logrus.Entry
}

func NewHeartbeatMonitor(roomService *RoomService, roomRepo repository.RoomRepository, notificationService *NotificationService, graceSeconds, channelHeartbeatSeconds int) *HeartbeatMonitor {
	return &HeartbeatMonitor{
		roomService:         roomService,
		roomRepo:            roomRepo,
		notificationService: notificationService,
		grace:               time.Duration(graceSeconds) * time.Second,
		channelInterval:     time.Duration(channelHeartbeatSeconds) * time.Second,
		log:                 logrus.WithField("component", "heartbeat_monitor"),
	}
}

// Beat 處理一次參與者心跳，更新房間的最後活動時間
func (m *HeartbeatMonitor) Beat(roomID string, userID uint) error {
	if err := m.roomService.TouchActivity(roomID); err != nil {
		return err
	}
	m.log.WithFields(logrus.Fields{
		"room_id": roomID,
		"user_id": userID,
	}).Debug("收到參與者心跳")
	return nil
}

// Run 啟動兩條心跳迴圈，ctx 取消時停止
func (m *HeartbeatMonitor) Run(ctx context.Context) {
	go m.runParticipantLoop(ctx)
	go m.runChannelLoop(ctx)
}

func (m *HeartbeatMonitor) runParticipantLoop(ctx context.Context) {
	// 掃描間隔取寬限期的三分之一，確保逾時在一個寬限期左右被發現
	interval := m.grace / 3
	if interval < time.Second {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.log.WithField("grace", m.grace).Info("參與者心跳監控已啟動")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SweepInactiveRooms()
		}
	}
}

// SweepInactiveRooms 掃描所有進行中的房間，超過寬限期沒有活動者自動結束
// 單一房間的失敗不影響其他房間的掃描
// 房間級鎖保證並發掃描下結束轉換與事件發布各只發生一次
func (m *HeartbeatMonitor) SweepInactiveRooms() {
	rooms, err := m.roomRepo.FindActive()
	if err != nil {
		m.log.WithError(err).Error("掃描進行中的房間失敗")
		return
	}

	now := time.Now()
	for _, room := range rooms {
		if now.Sub(room.LastActivityAt) <= m.grace {
			continue
		}
		if _, err := m.roomService.endRoom(room.RoomID, "heartbeat timeout"); err != nil {
			if errors.Is(err, ErrRoomAlreadyEnded) {
				continue // 別的路徑剛結束了它，沒事可做
			}
			m.log.WithField("room_id", room.RoomID).WithError(err).Error("自動結束房間失敗")
		}
	}
}

func (m *HeartbeatMonitor) runChannelLoop(ctx context.Context) {
	ticker := time.NewTicker(m.channelInterval)
	defer ticker.Stop()

	m.log.WithField("interval", m.channelInterval).Info("推播通道心跳已啟動")

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.notificationService.HeartbeatChannels()
		}
	}
}
