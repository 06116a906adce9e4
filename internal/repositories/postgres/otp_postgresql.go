package postgres

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type OTPPostgreSQL struct {
	base
}

func NewOTPPostgreSQL(db *gorm.DB) *OTPPostgreSQL {
	return &OTPPostgreSQL{base: base{db: db}}
}

func (r *OTPPostgreSQL) Create(ctx context.Context, tx *gorm.DB, otp *models.OTPCode) error {
	if err := r.getDB(tx).WithContext(ctx).Create(otp).Error; err != nil {
		return fmt.Errorf("failed to create otp: %w", err)
	}
	return nil
}

func (r *OTPPostgreSQL) GetLatestActive(ctx context.Context, tx *gorm.DB, email, purpose string, now time.Time) (*models.OTPCode, error) {
	var otp models.OTPCode
	err := r.getDB(tx).WithContext(ctx).
		Where("email = ? AND purpose = ? AND used_at IS NULL AND expires_at > ?", email, purpose, now).
		Order("created_at DESC").Order("id DESC").
		First(&otp).Error
	if err != nil {
		return nil, err
	}
	return &otp, nil
}

func (r *OTPPostgreSQL) MarkUsed(ctx context.Context, tx *gorm.DB, id uint, at time.Time) error {
	result := r.getDB(tx).WithContext(ctx).
		Model(&models.OTPCode{}).
		Where("id = ? AND used_at IS NULL", id).
		Update("used_at", at)
	if result.Error != nil {
		return fmt.Errorf("failed to mark otp used: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *OTPPostgreSQL) InvalidateActive(ctx context.Context, tx *gorm.DB, email, purpose string, at time.Time) error {
	err := r.getDB(tx).WithContext(ctx).
		Model(&models.OTPCode{}).
		Where("email = ? AND purpose = ? AND used_at IS NULL", email, purpose).
		Update("used_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to invalidate otp codes: %w", err)
	}
	return nil
}

func (r *OTPPostgreSQL) DeleteExpired(ctx context.Context, tx *gorm.DB, before time.Time) (int64, error) {
	result := r.getDB(tx).WithContext(ctx).
		Where("expires_at < ? OR used_at IS NOT NULL", before).
		Delete(&models.OTPCode{})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete expired otp codes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
