package service

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventBusDispatchByType(t *testing.T) {
	bus := NewEventBus()

	var got []EventType
	bus.Subscribe(EventSessionEnded, func(event Event) error {
		got = append(got, event.Type)
		return nil
	})

	bus.Publish(Event{Type: EventSessionEnded, RoomID: "r1"})
	bus.Publish(Event{Type: EventRecordingStopped, RoomID: "r1"}) // 沒有訂閱者，靜默略過

	require.Equal(t, []EventType{EventSessionEnded}, got)
}

func TestEventBusHandlerFailureIsolated(t *testing.T) {
	bus := NewEventBus()

	var called bool
	bus.Subscribe(EventSessionEnded, func(event Event) error {
		return errors.New("故意失敗")
	})
	bus.Subscribe(EventSessionEnded, func(event Event) error {
		called = true
		return nil
	})

	// 第一個處理器失敗不影響後續處理器
	bus.Publish(Event{Type: EventSessionEnded})
	require.True(t, called)
}
