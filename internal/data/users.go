package data

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/herniaclinic/clinic-chat/internal/normalize"
)

// UsersStore provides user database operations. The user set is small and
// seeded; there is no self-service registration.
type UsersStore struct {
	db *gorm.DB
}

// NewUsersStore returns a UsersStore using the given DB handle.
func NewUsersStore(db *gorm.DB) *UsersStore {
	return &UsersStore{db: db}
}

// CreateUser inserts a user with the given id, profile fields and bcrypt
// password hash. Used by the seeder.
func (s *UsersStore) CreateUser(ctx context.Context, id, name, email, passwordHash, role string) (*User, error) {
	user := &User{
		ID:           id,
		Name:         name,
		Email:        normalize.Email(email),
		PasswordHash: passwordHash,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// GetUserByEmail looks a user up by normalized email, or ErrNotFound.
func (s *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User
	err := s.db.WithContext(ctx).
		First(&user, "email = ?", normalize.Email(email)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserExists reports whether a user with the given id exists.
func (s *UsersStore) UserExists(ctx context.Context, id string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Count(&n).Error
	return n > 0, err
}

// CountUsers returns the number of user rows. The seeder uses it to
// detect an already-seeded database.
func (s *UsersStore) CountUsers(ctx context.Context) (int64, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&User{}).Count(&n).Error
	return n, err
}
