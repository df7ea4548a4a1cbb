package service

import (
	"context"
	"encoding/json"

	"lms_backend/internal/model"
	"lms_backend/internal/repository"
	"lms_backend/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// NotificationSink 事件通知投递口。fire-and-forget：调用方在状态提交之后
// 调用，返回的错误只记日志，绝不回滚已提交的状态。
type NotificationSink interface {
	Send(userID uint, title, message, ntype string, metadata map[string]string) error
}

type NotificationService struct {
	Repo    *repository.NotificationRepository
	Redis   *redis.Client
	Channel string
}

func NewNotificationService(repo *repository.NotificationRepository, rdb *redis.Client, channel string) *NotificationService {
	return &NotificationService{Repo: repo, Redis: rdb, Channel: channel}
}

// Send 落库一条站内通知并发布到Redis频道，外部投递方（邮件/推送/HRM同步）
// 订阅消费。至少一次语义：发布失败不影响落库，落库失败也只向上抛给日志。
func (s *NotificationService) Send(userID uint, title, message, ntype string, metadata map[string]string) error {
	n := &model.Notification{
		UserID:   userID,
		Title:    title,
		Message:  message,
		Type:     ntype,
		Metadata: metadata,
	}
	if err := s.Repo.Create(n); err != nil {
		return err
	}

	if s.Redis != nil {
		payload, err := json.Marshal(n)
		if err == nil {
			if err := s.Redis.Publish(context.Background(), s.Channel, payload).Err(); err != nil {
				logger.Log.Warn("notification publish failed",
					zap.Uint("userId", userID), zap.String("type", ntype), zap.Error(err))
			}
		}
	}
	return nil
}

func (s *NotificationService) ListForUser(userID uint, page, limit int) ([]model.Notification, int64, error) {
	return s.Repo.ListByUser(userID, page, limit)
}

func (s *NotificationService) MarkRead(userID, id uint) error {
	return s.Repo.MarkRead(userID, id)
}
