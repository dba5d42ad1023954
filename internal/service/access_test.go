package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tutor_room/internal/models"
)

func TestAuthorizeRoomNotFound(t *testing.T) {
	services, repos, _ := newTestServices(t)
	admin := seedUser(t, repos, "admin", models.RoleAdmin, 0, 0)

	err := services.Access.Authorize("no-such-room", admin.ID)
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestAuthorizeAdminAlwaysAllowed(t *testing.T) {
	services, repos, _ := newTestServices(t)
	admin := seedUser(t, repos, "admin", models.RoleAdmin, 0, 0)
	room := seedRoom(t, services, 1, 2)

	require.NoError(t, services.Access.Authorize(room.RoomID, admin.ID))
}

func TestAuthorizeTutorMatching(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)
	otherTutor := seedUser(t, repos, "other_tutor", models.RoleTutor, 9, 0)
	room := seedRoom(t, services, 1, 2)

	require.NoError(t, services.Access.Authorize(room.RoomID, tutor.ID))
	require.ErrorIs(t, services.Access.Authorize(room.RoomID, otherTutor.ID), ErrRoomAccessDenied)
}

func TestAuthorizeStudentMismatchDenied(t *testing.T) {
	services, repos, _ := newTestServices(t)
	student := seedUser(t, repos, "student", models.RoleStudent, 0, 2)
	otherStudent := seedUser(t, repos, "other_student", models.RoleStudent, 0, 7)
	room := seedRoom(t, services, 1, 2)

	require.NoError(t, services.Access.Authorize(room.RoomID, student.ID))

	// 連結的學生編號與房間指派不符，即使持有該房間的有效憑證也必須拒絕
	require.ErrorIs(t, services.Access.Authorize(room.RoomID, otherStudent.ID), ErrRoomAccessDenied)
}

func TestAuthorizeUnassignedSlotIsIntegrityFault(t *testing.T) {
	services, repos, _ := newTestServices(t)
	tutor := seedUser(t, repos, "tutor", models.RoleTutor, 1, 0)

	// 沒有指派家教的房間是資料完整性問題，必須拒絕而非默默放行
	room := seedRoom(t, services, 0, 2)
	require.ErrorIs(t, services.Access.Authorize(room.RoomID, tutor.ID), ErrRoomAccessDenied)
}

func TestAuthorizeUnknownUserDenied(t *testing.T) {
	services, _, _ := newTestServices(t)
	room := seedRoom(t, services, 1, 2)

	require.ErrorIs(t, services.Access.Authorize(room.RoomID, 999), ErrRoomAccessDenied)
}
