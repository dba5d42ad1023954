package service

import (
	"sync"

	"github.com/sirupsen/logrus"
)

// EventType 定義領域事件的種類
type EventType string

const (
	EventSessionEnded     EventType = "session_ended"     // 課程結束，帶有計費時長
	EventRecordingStopped EventType = "recording_stopped" // 錄影停止
)

// Event 一個領域事件，參與者以領域身分（家教編號、學生編號）表示，
// 而不是暫時性的連線身分
type Event struct {
	Type            EventType
	RoomID          string
	TutorID         uint
	StudentID       uint
	DurationMinutes int
}

// EventHandler 單一事件處理器
type EventHandler func(event Event) error

// EventBus 依事件種類分發給已註冊的處理器
// 同一個事件可能觸發多個互不相干的反應（通知、帳務連結），
// 單一處理器失敗只記錄，不影響其他處理器
type EventBus struct {
	mu       sync.RWMutex
	handlers map[EventType][]EventHandler
}

func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]EventHandler),
	}
}

// Subscribe 註冊一個事件處理器
func (b *EventBus) Subscribe(eventType EventType, handler EventHandler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
}

// Publish 同步分發事件給該種類的所有處理器
func (b *EventBus) Publish(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		if err := handler(event); err != nil {
			logrus.WithFields(logrus.Fields{
				"component":  "event_bus",
				"event_type": event.Type,
				"room_id":    event.RoomID,
			}).WithError(err).Error("事件處理器執行失敗")
		}
	}
}
