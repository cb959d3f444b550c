package repository

import (
	"context"                  // Request-scoped deadlines
	"errors"                   // Error inspection
	"minibank/internal/domain" // Importing domain models

	"gorm.io/gorm" // GORM ORM library
)

// UserRepository stores and loads User records
type UserRepository interface {
	Create(ctx context.Context, username, passwordHash string) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id uint) (*domain.User, error)
	Save(ctx context.Context, user *domain.User) error
}

type gormUserRepository struct {
	db *gorm.DB
}

// NewUserRepository returns a UserRepository backed by GORM
func NewUserRepository(db *gorm.DB) UserRepository {
	return &gormUserRepository{db: db}
}

// Create inserts a new user after checking that the username is free.
// The check and the insert are separate statements; a concurrent signup that
// wins the race trips the unique index and is reported the same way.
func (r *gormUserRepository) Create(ctx context.Context, username, passwordHash string) (*domain.User, error) {
	existing, err := r.FindByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrDuplicateUsername
	}
	user := &domain.User{Username: username, Password: passwordHash} // Balance starts at 0
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrDuplicateUsername
		}
		return nil, &domain.StorageError{Op: "create user", Err: err}
	}
	return user, nil
}

// FindByUsername returns nil, nil when no user has that username
func (r *gormUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("username = ?", username).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "find user by username", Err: err}
	}
	return &user, nil
}

// FindByID returns nil, nil when the id is unknown
func (r *gormUserRepository) FindByID(ctx context.Context, id uint) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Take(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.StorageError{Op: "find user by id", Err: err}
	}
	return &user, nil
}

// Save writes the user's balance back in a single statement.
// No version check is made: concurrent saves of one row keep the last write.
func (r *gormUserRepository) Save(ctx context.Context, user *domain.User) error {
	res := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", user.ID).
		Update("balance", user.Balance)
	if res.Error != nil {
		return &domain.StorageError{Op: "save user", Err: res.Error}
	}
	return nil
}
