package service

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"tutor_room/internal/models"
	"tutor_room/internal/repository"
	"tutor_room/internal/storage"
	"tutor_room/pkg/config"
)

// newTestDB 建立一個測試專用的記憶體資料庫，以測試名稱隔離
func newTestDB(t *testing.T) *storage.PostgresDB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	store := &storage.PostgresDB{DB: db}
	require.NoError(t, store.Migrate())
	return store
}

// newTestServices 以測試配置組裝完整的服務集合
func newTestServices(t *testing.T) (*Services, *repository.Repositories, *storage.PostgresDB) {
	t.Helper()

	db := newTestDB(t)
	repos := repository.NewRepositories(db)

	cfg := &config.Config{}
	cfg.Room.TokenSecret = "test_room_secret"
	cfg.Room.TokenTTLMinutes = 5
	cfg.Room.HeartbeatGraceSeconds = 1
	cfg.Room.ChannelHeartbeatSeconds = 1

	return NewServices(repos, cfg), repos, db
}

func seedUser(t *testing.T, repos *repository.Repositories, username string, role models.UserRole, tutorID, studentID uint) *models.User {
	t.Helper()

	user := &models.User{
		Username:    username,
		DisplayName: username,
		Role:        role,
		TutorID:     tutorID,
		StudentID:   studentID,
	}
	require.NoError(t, repos.User.Create(user))
	return user
}

func seedRoom(t *testing.T, services *Services, tutorID, studentID uint) *models.Room {
	t.Helper()

	now := time.Now()
	room, err := services.Room.CreateRoom(tutorID, studentID, now, now.Add(time.Hour))
	require.NoError(t, err)
	return room
}
