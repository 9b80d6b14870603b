package repositories

import (
	"context"

	"github.com/anonto42/socialnet/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PasswordResetRepository stores single-use password reset tokens
type PasswordResetRepository interface {
	WithTx(tx *gorm.DB) PasswordResetRepository
	Create(ctx context.Context, reset *models.PasswordReset) error
	GetByToken(ctx context.Context, token string) (*models.PasswordReset, error)
	DeleteByUserID(ctx context.Context, userID uint) error
}

type postgresPasswordResetRepository struct {
	db *gorm.DB
}

func NewPostgresPasswordResetRepository(db *gorm.DB) PasswordResetRepository {
	return &postgresPasswordResetRepository{db: db}
}

func (r *postgresPasswordResetRepository) WithTx(tx *gorm.DB) PasswordResetRepository {
	return &postgresPasswordResetRepository{db: tx}
}

func (r *postgresPasswordResetRepository) Create(ctx context.Context, reset *models.PasswordReset) error {
	return translate(r.db.WithContext(ctx).Omit(clause.Associations).Create(reset).Error, ErrAlreadyExists)
}

func (r *postgresPasswordResetRepository) GetByToken(ctx context.Context, token string) (*models.PasswordReset, error) {
	var reset models.PasswordReset
	if err := r.db.WithContext(ctx).Where("token = ?", token).First(&reset).Error; err != nil {
		return nil, translate(err, ErrAlreadyExists)
	}
	return &reset, nil
}

// DeleteByUserID drops every outstanding token of a user
func (r *postgresPasswordResetRepository) DeleteByUserID(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.PasswordReset{}).Error
}
