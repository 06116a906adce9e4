package services

import (
	"context"
	"log/slog"

	"github.com/SAP-F-2025/lms-service/internal/models"
	"github.com/SAP-F-2025/lms-service/internal/repositories"
)

type auditService struct {
	repo   repositories.Repository
	logger *slog.Logger
}

func NewAuditService(repo repositories.Repository, logger *slog.Logger) AuditService {
	return &auditService{repo: repo, logger: logger}
}

func (s *auditService) Record(ctx context.Context, entry *models.AdminAuditLog) error {
	if err := s.repo.Audit().Create(ctx, nil, entry); err != nil {
		s.logger.Error("Failed to record audit entry", "error", err, "actor_id", entry.ActorID, "path", entry.Path)
		return err
	}
	return nil
}

// ListByActor returns the newest entries first. An empty actorID lists everyone.
func (s *auditService) ListByActor(ctx context.Context, actorID string, limit int) ([]models.AdminAuditLog, error) {
	return s.repo.Audit().ListByActor(ctx, nil, actorID, clampLimit(limit))
}
