package repository

import "tutor_room/internal/storage"

type Repositories struct {
	User         UserRepository
	Room         RoomRepository
	Stroke       StrokeRepository
	ChatMessage  ChatMessageRepository
	Notification NotificationRepository
}

func NewRepositories(db *storage.PostgresDB) *Repositories {
	return &Repositories{
		User:         NewUserRepository(db),
		Room:         NewRoomRepository(db),
		Stroke:       NewStrokeRepository(db),
		ChatMessage:  NewChatMessageRepository(db),
		Notification: NewNotificationRepository(db),
	}
}
