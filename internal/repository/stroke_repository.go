package repository

import (
	"tutor_room/internal/models"
	"tutor_room/internal/storage"
)

type StrokeRepository interface {
	Create(stroke *models.WhiteboardStroke) error
	FindByRoomID(roomID string) ([]models.WhiteboardStroke, error)
	MaxSeq(roomID string) (uint64, error)
	Revoke(roomID, strokeID string, revokedBy uint) error
	RevokeByUser(roomID string, userID, revokedBy uint) error
}

type strokeRepository struct {
	db *storage.PostgresDB
}

func NewStrokeRepository(db *storage.PostgresDB) StrokeRepository {
	return &strokeRepository{db: db}
}

func (r *strokeRepository) Create(stroke *models.WhiteboardStroke) error {
	return r.db.Create(stroke).Error
}

// FindByRoomID 依伺服器接收序號回傳房間內所有未撤銷的筆劃，供重播使用
func (r *strokeRepository) FindByRoomID(roomID string) ([]models.WhiteboardStroke, error) {
	var strokes []models.WhiteboardStroke
	err := r.db.Where("room_id = ? AND revoked = ?", roomID, false).
		Order("seq asc").Find(&strokes).Error
	return strokes, err
}

// MaxSeq 回傳房間目前最大的接收序號，沒有筆劃時為 0
func (r *strokeRepository) MaxSeq(roomID string) (uint64, error) {
	var maxSeq uint64
	err := r.db.Model(&models.WhiteboardStroke{}).
		Where("room_id = ?", roomID).
		Select("COALESCE(MAX(seq), 0)").Scan(&maxSeq).Error
	return maxSeq, err
}

// Revoke 標記單一筆劃為已撤銷，筆劃本身不物理刪除
func (r *strokeRepository) Revoke(roomID, strokeID string, revokedBy uint) error {
	return r.db.Model(&models.WhiteboardStroke{}).
		Where("room_id = ? AND stroke_id = ?", roomID, strokeID).
		Updates(map[string]interface{}{"revoked": true, "revoked_by": revokedBy}).Error
}

// RevokeByUser 標記某用戶在房間內的所有筆劃為已撤銷
func (r *strokeRepository) RevokeByUser(roomID string, userID, revokedBy uint) error {
	return r.db.Model(&models.WhiteboardStroke{}).
		Where("room_id = ? AND user_id = ?", roomID, userID).
		Updates(map[string]interface{}{"revoked": true, "revoked_by": revokedBy}).Error
}
