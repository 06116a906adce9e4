package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/SAP-F-2025/lms-service/internal/models"
)

type AuditPostgreSQL struct {
	base
}

func NewAuditPostgreSQL(db *gorm.DB) *AuditPostgreSQL {
	return &AuditPostgreSQL{base: base{db: db}}
}

func (r *AuditPostgreSQL) Create(ctx context.Context, tx *gorm.DB, entry *models.AdminAuditLog) error {
	if err := r.getDB(tx).WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

func (r *AuditPostgreSQL) ListByActor(ctx context.Context, tx *gorm.DB, actorID string, limit int) ([]models.AdminAuditLog, error) {
	query := r.getDB(tx).WithContext(ctx).Model(&models.AdminAuditLog{})
	if actorID != "" {
		query = query.Where("actor_id = ?", actorID)
	}

	var entries []models.AdminAuditLog
	if err := ApplyPaginationAndSort(query, "created_at", "desc", limit, 0).Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return entries, nil
}
