package service

import (
	"context"
	"encoding/json"

	"edu_platform_backend/internal/model"
	"edu_platform_backend/internal/repository"
	"edu_platform_backend/pkg/logger"

	"go.uber.org/zap"
)

// NotificationService 消费通知任务，落站内通知表
type NotificationService struct {
	Repo repository.CertificateStore
}

func NewNotificationService(repo repository.CertificateStore) *NotificationService {
	return &NotificationService{Repo: repo}
}

func (s *NotificationService) HandleNotify(_ context.Context, payload json.RawMessage) error {
	var p NotifyPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return err
	}
	if err := s.Repo.CreateNotification(&model.Notification{
		UserID:  p.UserID,
		Title:   p.Title,
		Content: p.Content,
	}); err != nil {
		return err
	}
	logger.Log.Debug("站内通知已写入", zap.Uint("user_id", p.UserID), zap.String("title", p.Title))
	return nil
}
