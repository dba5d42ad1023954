package repository

import (
	"tutor_room/internal/models"
	"tutor_room/internal/storage"
)

type RoomRepository interface {
	Create(room *models.Room) error
	FindByRoomID(roomID string) (*models.Room, error)
	Update(room *models.Room) error
	FindAll() ([]models.Room, error)
	FindActive() ([]models.Room, error)
}

type roomRepository struct {
	db *storage.PostgresDB
}

func NewRoomRepository(db *storage.PostgresDB) RoomRepository {
	return &roomRepository{db: db}
}

func (r *roomRepository) Create(room *models.Room) error {
	return r.db.Create(room).Error
}

func (r *roomRepository) FindByRoomID(roomID string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("room_id = ?", roomID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *roomRepository) Update(room *models.Room) error {
	return r.db.Save(room).Error
}

// FindAll 查詢所有教室
func (r *roomRepository) FindAll() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Order("created_at DESC").Find(&rooms).Error
	return rooms, err
}

// FindActive 查詢所有進行中的教室，心跳監控掃描用
func (r *roomRepository) FindActive() ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Where("status = ?", models.RoomStatusActive).Find(&rooms).Error
	return rooms, err
}
