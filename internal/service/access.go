package service

import (
	"errors"

	"gorm.io/gorm"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
)

// RoomAccessValidator 依持久化的參與者身分授權（房間、用戶）組合
// 獨立於憑證驗證之外：已被移出房間的用戶即使持有仍有效的憑證也必須被拒絕
type RoomAccessValidator struct {
	roomRepo repository.RoomRepository
	userRepo repository.UserRepository
}

func NewRoomAccessValidator(roomRepo repository.RoomRepository, userRepo repository.UserRepository) *RoomAccessValidator {
	return &RoomAccessValidator{
		roomRepo: roomRepo,
		userRepo: userRepo,
	}
}

// Authorize 檢查用戶是否有權存取指定房間
// 這個檢查擋在每一個需要授權的即時操作前，只做兩次索引查詢
func (v *RoomAccessValidator) Authorize(roomID string, userID uint) error {
	room, err := v.roomRepo.FindByRoomID(roomID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomNotFound
		}
		return err
	}

	user, err := v.userRepo.FindByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrRoomAccessDenied
		}
		return err
	}

	switch user.Role {
	case models.RoleAdmin:
		// 管理員一律允許
		return nil
	case models.RoleTutor:
		// 房間沒有指派家教屬於資料完整性問題，必須拒絕而非放行
		if room.TutorID == 0 || user.TutorID == 0 || room.TutorID != user.TutorID {
			return ErrRoomAccessDenied
		}
		return nil
	case models.RoleStudent:
		if room.StudentID == 0 || user.StudentID == 0 || room.StudentID != user.StudentID {
			return ErrRoomAccessDenied
		}
		return nil
	default:
		return ErrRoomAccessDenied
	}
}
