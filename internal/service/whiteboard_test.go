package service

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tutor_room/internal/models"
)

func activeWhiteboardRoom(t *testing.T) (*Services, *models.Room, *models.User) {
	t.Helper()

	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)
	room := seedRoom(t, services, 1, 2)

	_, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)

	return services, room, tutor
}

func TestDeltaThenFinalizePersistsOneStroke(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	// 繪製中的增量只轉發不落庫
	err := services.Whiteboard.AddDelta(room.RoomID, tutor.ID, tutor.Role, models.DeltaPayload{
		StrokeID:   "s1",
		StartIndex: 0,
		Points:     []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
	})
	require.NoError(t, err)

	err = services.Whiteboard.AddDelta(room.RoomID, tutor.ID, tutor.Role, models.DeltaPayload{
		StrokeID:   "s1",
		StartIndex: 2,
		Points:     []models.Point{{X: 3, Y: 3}},
	})
	require.NoError(t, err)

	// 完整筆劃自帶全部點，落庫時不得混入增量暫存的點
	full := []models.Point{{X: 1, Y: 1}, {X: 2, Y: 2}, {X: 3, Y: 3}, {X: 4, Y: 4}}
	stroke, err := services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
		StrokeID: "s1",
		Points:   full,
		Color:    "#000000",
		Width:    2,
		Tool:     "pen",
	})
	require.NoError(t, err)

	strokes, err := services.Whiteboard.Replay(room.RoomID)
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	require.Equal(t, stroke.StrokeID, strokes[0].StrokeID)

	var persisted []models.Point
	require.NoError(t, json.Unmarshal([]byte(strokes[0].Points), &persisted))
	require.Equal(t, full, persisted)
}

func TestReplayOrderedByServerReceipt(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	// 客戶端時鐘刻意倒著走，伺服器接收順序不受影響
	base := time.Now()
	for i := 0; i < 10; i++ {
		_, err := services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
			StrokeID:   fmt.Sprintf("s%d", i),
			Points:     []models.Point{{X: float64(i), Y: float64(i)}},
			Tool:       "pen",
			ClientTime: base.Add(-time.Duration(i) * time.Minute),
		})
		require.NoError(t, err)
	}

	strokes, err := services.Whiteboard.Replay(room.RoomID)
	require.NoError(t, err)
	require.Len(t, strokes, 10)

	for i, stroke := range strokes {
		require.Equal(t, fmt.Sprintf("s%d", i), stroke.StrokeID)
		require.Equal(t, uint64(i+1), stroke.Seq)
	}
}

func TestUndoExcludesStrokeFromReplay(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	for _, id := range []string{"s1", "s2", "s3"} {
		_, err := services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
			StrokeID: id,
			Points:   []models.Point{{X: 1, Y: 1}},
			Tool:     "pen",
		})
		require.NoError(t, err)
	}

	err := services.Whiteboard.Undo(room.RoomID, tutor.ID, tutor.Role, models.UndoPayload{StrokeID: "s2"})
	require.NoError(t, err)

	strokes, err := services.Whiteboard.Replay(room.RoomID)
	require.NoError(t, err)
	require.Len(t, strokes, 2)
	require.Equal(t, "s1", strokes[0].StrokeID)
	require.Equal(t, "s3", strokes[1].StrokeID)
}

func TestClearRemovesOnlyTargetUserStrokes(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	_, err := services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
		StrokeID: "tutor-stroke",
		Points:   []models.Point{{X: 1, Y: 1}},
		Tool:     "pen",
	})
	require.NoError(t, err)

	otherID := tutor.ID + 100
	_, err = services.Whiteboard.AddStroke(room.RoomID, otherID, models.RoleStudent, models.StrokePayload{
		StrokeID: "student-stroke",
		Points:   []models.Point{{X: 2, Y: 2}},
		Tool:     "pen",
	})
	require.NoError(t, err)

	// 目標為 0 時清除發起者自己的筆劃
	err = services.Whiteboard.Clear(room.RoomID, tutor.ID, tutor.Role, models.ClearPayload{})
	require.NoError(t, err)

	strokes, err := services.Whiteboard.Replay(room.RoomID)
	require.NoError(t, err)
	require.Len(t, strokes, 1)
	require.Equal(t, "student-stroke", strokes[0].StrokeID)
}

func TestWhiteboardRejectedAfterRoomEnded(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	_, err := services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)

	_, err = services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
		StrokeID: "late",
		Points:   []models.Point{{X: 1, Y: 1}},
		Tool:     "pen",
	})
	require.ErrorIs(t, err, ErrRoomNotActive)

	err = services.Whiteboard.AddDelta(room.RoomID, tutor.ID, tutor.Role, models.DeltaPayload{StrokeID: "late"})
	require.ErrorIs(t, err, ErrRoomNotActive)
}

func TestReplayMessagesRebuildEnvelopes(t *testing.T) {
	services, room, tutor := activeWhiteboardRoom(t)

	points := []models.Point{{X: 1, Y: 2}, {X: 3, Y: 4}}
	_, err := services.Whiteboard.AddStroke(room.RoomID, tutor.ID, tutor.Role, models.StrokePayload{
		StrokeID: "s1",
		Points:   points,
		Color:    "#ff0000",
		Width:    3,
		Tool:     "pen",
	})
	require.NoError(t, err)

	messages, err := services.Whiteboard.ReplayMessages(room.RoomID)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, models.MessageTypeStroke, messages[0].Type)
	require.Equal(t, tutor.ID, messages[0].UserID)

	var payload models.StrokePayload
	require.NoError(t, json.Unmarshal(messages[0].Payload, &payload))
	require.Equal(t, "s1", payload.StrokeID)
	require.Equal(t, points, payload.Points)
}

func TestReplayUnknownRoom(t *testing.T) {
	services, _, _ := newTestServices(t)

	_, err := services.Whiteboard.Replay("no-such-room")
	require.ErrorIs(t, err, ErrRoomNotFound)
}
