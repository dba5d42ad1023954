package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"tutor_room/internal/models"
)

func TestRoomLifecycleTransitions(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)
	student := seedUser(t, repos, "student", models.RoleStudent, 0, 2)

	room := seedRoom(t, services, 1, 2)
	require.Equal(t, models.RoomStatusWaiting, room.Status)
	require.Nil(t, room.ActualStart)

	// 第一位參與者加入：waiting -> active，記錄實際開始時間與首次加入時間
	room, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusActive, room.Status)
	require.NotNil(t, room.ActualStart)
	require.NotNil(t, room.TutorJoinedAt)
	require.Nil(t, room.StudentJoinedAt)

	// 第二位加入不改變狀態
	room, err = services.Room.JoinRoom(room.RoomID, student.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusActive, room.Status)
	require.NotNil(t, room.StudentJoinedAt)

	// 結束：active -> ended，終態
	room, err = services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusEnded, room.Status)
	require.NotNil(t, room.ActualEnd)

	// 已結束的房間不接受加入，狀態不回退
	_, err = services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.ErrorIs(t, err, ErrRoomAlreadyEnded)

	reloaded, err := services.Room.GetRoom(room.RoomID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusEnded, reloaded.Status)
}

func TestAdminJoinDoesNotStartSession(t *testing.T) {
	services, repos, _ := newTestServices(t)
	admin := seedUser(t, repos, "admin", models.RoleAdmin, 0, 0)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	room := seedRoom(t, services, 1, 2)

	// 管理員旁聽不是開課：房間維持 waiting，不記實際開始時間
	room, err := services.Room.JoinRoom(room.RoomID, admin.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusWaiting, room.Status)
	require.Nil(t, room.ActualStart)
	require.Nil(t, room.TutorJoinedAt)
	require.Nil(t, room.StudentJoinedAt)

	// 第一位課程參與者加入才開課
	room, err = services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)
	require.Equal(t, models.RoomStatusActive, room.Status)
	require.NotNil(t, room.ActualStart)
}

func TestRejoinDoesNotOverwriteFirstJoin(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	room := seedRoom(t, services, 1, 2)

	room, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)
	firstJoin := *room.TutorJoinedAt

	time.Sleep(5 * time.Millisecond)

	room, err = services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)
	require.True(t, room.TutorJoinedAt.Equal(firstJoin), "重連不覆寫首次加入時間")
}

func TestEndRoomIdempotent(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	room := seedRoom(t, services, 1, 2)
	_, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)

	ended, err := services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)
	firstEnd := *ended.ActualEnd
	firstDuration := ended.DurationMinutes

	// 第二次結束回報 already ended，不重算時長、不重設結束時間
	_, err = services.Room.EndRoom(room.RoomID)
	require.ErrorIs(t, err, ErrRoomAlreadyEnded)

	reloaded, err := services.Room.GetRoom(room.RoomID)
	require.NoError(t, err)
	require.True(t, reloaded.ActualEnd.Equal(firstEnd))
	require.Equal(t, firstDuration, reloaded.DurationMinutes)
}

func TestComputeDurationOverlapWindow(t *testing.T) {
	services, _, _ := newTestServices(t)

	base := time.Now()
	tutorJoin := base
	studentJoin := base.Add(5 * time.Minute)
	end := base.Add(45 * time.Minute)

	room := &models.Room{
		TutorJoinedAt:   &tutorJoin,
		StudentJoinedAt: &studentJoin,
		TutorLeftAt:     &end,
		StudentLeftAt:   &end,
	}

	// 家教 T+0 加入、學生 T+5 加入、T+45 結束：計費 40 分鐘，不是 45
	require.Equal(t, 40, services.Room.computeDuration(room))
}

func TestDurationZeroWhenParticipantNeverJoined(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	room := seedRoom(t, services, 1, 2)
	_, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)

	// 學生從未加入，沒有重疊區間
	ended, err := services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)
	require.Equal(t, 0, ended.DurationMinutes)
}

func TestBillableDurationFromRecordedJoins(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)
	student := seedUser(t, repos, "student", models.RoleStudent, 0, 2)

	room := seedRoom(t, services, 1, 2)
	_, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)
	_, err = services.Room.JoinRoom(room.RoomID, student.ID)
	require.NoError(t, err)

	// 把加入時間倒推，模擬一堂已經進行了一段時間的課
	stored, err := services.Room.GetRoom(room.RoomID)
	require.NoError(t, err)
	tutorJoin := time.Now().Add(-45 * time.Minute)
	studentJoin := time.Now().Add(-40 * time.Minute)
	stored.TutorJoinedAt = &tutorJoin
	stored.StudentJoinedAt = &studentJoin
	require.NoError(t, repos.Room.Update(stored))

	// 時長來自記錄的加入時間與結束時刻的重疊，不是房間建立以來的牆鐘時間
	ended, err := services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)
	require.Equal(t, 40, ended.DurationMinutes)
}

func TestSessionEndedNotifiesBothParticipants(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)
	student := seedUser(t, repos, "student", models.RoleStudent, 0, 2)

	room := seedRoom(t, services, 1, 2)
	_, err := services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)

	_, err = services.Room.EndRoom(room.RoomID)
	require.NoError(t, err)

	// 結課事件以領域身分尋址雙方，不依賴當下是否有連線
	tutorNotifs, err := services.Notification.List(tutor.ID)
	require.NoError(t, err)
	require.Len(t, tutorNotifs, 1)
	require.Equal(t, "session_ended", tutorNotifs[0].Type)

	studentNotifs, err := services.Notification.List(student.ID)
	require.NoError(t, err)
	require.Len(t, studentNotifs, 1)
}

func TestRecordingLifecycle(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	room := seedRoom(t, services, 1, 2)

	// 尚未開課不能錄影
	_, err := services.Room.StartRecording(room.RoomID)
	require.ErrorIs(t, err, ErrRoomNotActive)

	_, err = services.Room.JoinRoom(room.RoomID, tutor.ID)
	require.NoError(t, err)

	started, err := services.Room.StartRecording(room.RoomID)
	require.NoError(t, err)
	require.True(t, started.RecordingEnabled)
	require.NotNil(t, started.RecordingStartedAt)

	stopped, err := services.Room.StopRecording(room.RoomID)
	require.NoError(t, err)
	require.NotNil(t, stopped.RecordingStoppedAt)

	// 沒有進行中的錄影就不能再停止
	_, err = services.Room.StopRecording(room.RoomID)
	require.Error(t, err)

	require.NoError(t, services.Room.MarkRecordingDownloaded(room.RoomID))
	reloaded, err := services.Room.GetRoom(room.RoomID)
	require.NoError(t, err)
	require.True(t, reloaded.RecordingDownloaded)
}
