package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/openshop/storefront/internal/models"
)

func (r *GormRepo) CreateUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&models.User{}).Where("email = ?", user.Email).Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrConflict
		}
		return tx.Create(user).Error
	})
}

func (r *GormRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) SaveUser(ctx context.Context, user *models.User) error {
	return r.DB.WithContext(ctx).Save(user).Error
}

func (r *GormRepo) UpdateUserPassword(ctx context.Context, id uint, passwordHash string) error {
	return r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("password_hash", passwordHash).Error
}

func (r *GormRepo) AddRefreshToken(ctx context.Context, jti string, userID uint, expiresAt time.Time) error {
	token := models.RefreshToken{Token: jti, UserID: userID, ExpiresAt: expiresAt}
	return r.DB.WithContext(ctx).Create(&token).Error
}

// RefreshTokenValid reports whether the JTI is known, unrevoked and unexpired.
func (r *GormRepo) RefreshTokenValid(ctx context.Context, jti string) (bool, error) {
	var token models.RefreshToken
	err := r.DB.WithContext(ctx).Where("token = ?", jti).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return !token.Revoked && token.ExpiresAt.After(time.Now()), nil
}

func (r *GormRepo) RevokeRefreshToken(ctx context.Context, jti string) error {
	return r.DB.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("token = ?", jti).
		Update("revoked", true).Error
}

func (r *GormRepo) CreatePasswordResetToken(ctx context.Context, token *models.PasswordResetToken) error {
	return r.DB.WithContext(ctx).Create(token).Error
}

// ConsumePasswordResetToken validates and burns a reset token in one
// transaction, returning the owning user id.
func (r *GormRepo) ConsumePasswordResetToken(ctx context.Context, token string) (uint, error) {
	var userID uint
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var prt models.PasswordResetToken
		if err := tx.Where("token = ?", token).First(&prt).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if prt.Used || prt.ExpiresAt.Before(time.Now()) {
			return ErrInvalidState
		}
		if err := tx.Model(&prt).Update("used", true).Error; err != nil {
			return err
		}
		userID = prt.UserID
		return nil
	})
	if err != nil {
		return 0, err
	}
	return userID, nil
}
