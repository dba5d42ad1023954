package repository

import (
	"tutor_room/internal/models"
	"tutor_room/internal/storage"
)

type ChatMessageRepository interface {
	Create(message *models.ChatMessage) error
	FindPageByRoomID(roomID string, page, pageSize int) ([]models.ChatMessage, error)
}

type chatMessageRepository struct {
	db *storage.PostgresDB
}

func NewChatMessageRepository(db *storage.PostgresDB) ChatMessageRepository {
	return &chatMessageRepository{db: db}
}

func (r *chatMessageRepository) Create(message *models.ChatMessage) error {
	return r.db.Create(message).Error
}

// FindPageByRoomID 依發送時間由新到舊分頁查詢，page 從 1 開始
func (r *chatMessageRepository) FindPageByRoomID(roomID string, page, pageSize int) ([]models.ChatMessage, error) {
	if page < 1 {
		page = 1
	}
	var messages []models.ChatMessage
	err := r.db.Where("room_id = ?", roomID).
		Order("sent_at desc").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&messages).Error
	return messages, err
}
