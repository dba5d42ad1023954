package service

import (
	"time"

	"github.com/golang-jwt/jwt"

	"tutor_room/internal/models"
)

// RoomTokenClaims 房間憑證的內容，範圍限定在（房間、用戶、角色）三元組
type RoomTokenClaims struct {
	RoomID string `json:"room_id"`
	UserID uint   `json:"user_id"`
	Role   string `json:"role"`
	jwt.StandardClaims
}

// RoomTokenService 簽發與驗證短效的房間憑證
// 與應用程式層的 session token 完全分開，不提供更新機制：
// 過期後必須重新走授權的加入流程取得新憑證
type RoomTokenService struct {
	secret []byte
	ttl    time.Duration
}

func NewRoomTokenService(secret string, ttlMinutes int) *RoomTokenService {
	return &RoomTokenService{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
	}
}

// Issue 簽發一個綁定（房間、用戶、角色）的短效憑證
func (s *RoomTokenService) Issue(roomID string, userID uint, role models.UserRole) (string, error) {
	nowTime := time.Now()

	claims := RoomTokenClaims{
		RoomID: roomID,
		UserID: userID,
		Role:   string(role),
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: nowTime.Add(s.ttl).Unix(),
			IssuedAt:  nowTime.Unix(),
		},
	}

	tokenClaims := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return tokenClaims.SignedString(s.secret)
}

// Validate 驗證憑證的簽章與效期
// 三種失敗情況分開回報：格式錯誤、已過期、簽章無效，
// 讓呼叫端能區分「重新取得憑證再試」與「直接拒絕」
func (s *RoomTokenService) Validate(tokenStr string) (*RoomTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &RoomTokenClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if ve, ok := err.(*jwt.ValidationError); ok {
			switch {
			case ve.Errors&jwt.ValidationErrorMalformed != 0:
				return nil, ErrTokenMalformed
			case ve.Errors&jwt.ValidationErrorExpired != 0:
				return nil, ErrTokenExpired
			}
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*RoomTokenClaims)
	if !ok || !token.Valid {
		return nil, ErrTokenInvalid
	}
	return claims, nil
}

// ValidateFor 在 Validate 之上額外檢查憑證是否屬於目標房間
func (s *RoomTokenService) ValidateFor(tokenStr, roomID string) (*RoomTokenClaims, error) {
	claims, err := s.Validate(tokenStr)
	if err != nil {
		return nil, err
	}
	if claims.RoomID != roomID {
		return nil, ErrTokenRoomMismatch
	}
	return claims, nil
}
