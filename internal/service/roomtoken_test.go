package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"tutor_room/internal/models"
)

func TestRoomTokenIssueAndValidate(t *testing.T) {
	svc := NewRoomTokenService("secret", 5)

	token, err := svc.Issue("room-a", 42, models.RoleTutor)
	require.NoError(t, err)

	claims, err := svc.Validate(token)
	require.NoError(t, err)
	require.Equal(t, "room-a", claims.RoomID)
	require.Equal(t, uint(42), claims.UserID)
	require.Equal(t, string(models.RoleTutor), claims.Role)
}

func TestRoomTokenExpired(t *testing.T) {
	// 負的有效期讓憑證一簽發就過期
	svc := NewRoomTokenService("secret", -1)

	token, err := svc.Issue("room-a", 42, models.RoleTutor)
	require.NoError(t, err)

	_, err = svc.Validate(token)
	require.ErrorIs(t, err, ErrTokenExpired)
}

func TestRoomTokenMalformed(t *testing.T) {
	svc := NewRoomTokenService("secret", 5)

	_, err := svc.Validate("這不是一個憑證")
	require.ErrorIs(t, err, ErrTokenMalformed)
}

func TestRoomTokenForged(t *testing.T) {
	issuer := NewRoomTokenService("attacker_secret", 5)
	verifier := NewRoomTokenService("secret", 5)

	token, err := issuer.Issue("room-a", 42, models.RoleTutor)
	require.NoError(t, err)

	// 簽章不符必須硬性拒絕，且不能被誤報為過期
	_, err = verifier.Validate(token)
	require.ErrorIs(t, err, ErrTokenInvalid)
	require.NotErrorIs(t, err, ErrTokenExpired)
}

func TestRoomTokenRejectedForOtherRoom(t *testing.T) {
	svc := NewRoomTokenService("secret", 5)

	token, err := svc.Issue("room-a", 42, models.RoleTutor)
	require.NoError(t, err)

	// 尚未過期的憑證拿到別的房間也必須被拒絕
	_, err = svc.ValidateFor(token, "room-b")
	require.ErrorIs(t, err, ErrTokenRoomMismatch)
	require.ErrorIs(t, err, ErrTokenInvalid)

	claims, err := svc.ValidateFor(token, "room-a")
	require.NoError(t, err)
	require.Equal(t, uint(42), claims.UserID)
}
