package repository

import (
	"context"

	"docflow/internal/core/ports"
	"docflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type directoryRepository struct {
	db *gorm.DB
}

// NewDirectoryRepository creates a new instance of Directory
func NewDirectoryRepository(db *gorm.DB) ports.Directory {
	return &directoryRepository{db: db}
}

func (r *directoryRepository) FindUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *directoryRepository) RoleExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Role{}).
		Where("id = ?", id).
		Count(&count).Error

	return count > 0, err
}
