package store

import (
	"errors"

	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/example/velo/internal/models"
	"github.com/example/velo/internal/utils"
)

// UsersStore performs user lookups and inserts against the users table.
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore constructs a UsersStore.
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

// Authenticate looks up a user by phone and verifies the password against the
// stored bcrypt hash. Unknown phone and wrong password both return
// ErrAuthFailure.
func (s *UsersStore) Authenticate(phone, password string) (*models.User, error) {
	var user models.User
	if err := s.db.Where("phone = ?", phone).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAuthFailure
		}
		return nil, wrapUnavailable(err)
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrAuthFailure
	}

	return &user, nil
}

// Exists reports whether any user already holds the given email or phone.
func (s *UsersStore) Exists(email, phone string) (bool, error) {
	var count int64
	err := s.db.Model(&models.User{}).
		Where("email = ? OR phone = ?", email, phone).
		Count(&count).Error
	if err != nil {
		return false, wrapUnavailable(err)
	}
	return count > 0, nil
}

// Commit inserts a verified user. The database unique indexes are the source
// of truth for uniqueness: a race with a concurrent registration surfaces as
// ErrDuplicateUser here even if an earlier Exists check passed.
func (s *UsersStore) Commit(user *models.User) error {
	if err := s.db.Create(user).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		}
		return wrapUnavailable(err)
	}
	return nil
}

// FindByID returns the user with the given id.
func (s *UsersStore) FindByID(id uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		return nil, wrapUnavailable(err)
	}
	return &user, nil
}

// Search returns users whose username starts with prefix, excluding the
// requesting user, capped at limit results.
func (s *UsersStore) Search(prefix string, excludeID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := s.db.
		Select("id", "username").
		Where("username LIKE ? AND id <> ?", prefix+"%", excludeID).
		Order("username asc").
		Limit(limit).
		Find(&users).Error
	if err != nil {
		return nil, wrapUnavailable(err)
	}
	return users, nil
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
