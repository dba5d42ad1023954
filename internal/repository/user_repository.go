package repository

import (
	"tutor_room/internal/models"
	"tutor_room/internal/storage"
)

type UserRepository interface {
	Create(user *models.User) error
	FindByID(id uint) (*models.User, error)
	FindByTutorID(tutorID uint) (*models.User, error)
	FindByStudentID(studentID uint) (*models.User, error)
}

type userRepository struct {
	db *storage.PostgresDB
}

func NewUserRepository(db *storage.PostgresDB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(user *models.User) error {
	return r.db.Create(user).Error
}

func (r *userRepository) FindByID(id uint) (*models.User, error) {
	var user models.User
	err := r.db.First(&user, id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByTutorID 依家教編號反查用戶，結課事件尋址參與者用
func (r *userRepository) FindByTutorID(tutorID uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("tutor_id = ?", tutorID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByStudentID 依學生編號反查用戶
func (r *userRepository) FindByStudentID(studentID uint) (*models.User, error) {
	var user models.User
	err := r.db.Where("student_id = ?", studentID).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}
