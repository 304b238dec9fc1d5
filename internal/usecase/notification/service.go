package notification

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/inceCheng/GigaLike/domain"
)

type Service struct {
	notificationRepo domain.NotificationRepository
	userRepo         domain.UserRepository
	registry         domain.ConnectionRegistry
}

var _ domain.NotificationUsecase = (*Service)(nil)

func NewService(nr domain.NotificationRepository, ur domain.UserRepository, reg domain.ConnectionRegistry) *Service {
	return &Service{
		notificationRepo: nr,
		userRepo:         ur,
		registry:         reg,
	}
}

func (s *Service) CreateFromEvent(ctx context.Context, event domain.NotificationEvent) error {
	// 不给自己发通知
	if event.SenderID != 0 && event.SenderID == event.UserID {
		logrus.Debugf("skip self notification, userID: %d", event.UserID)
		return nil
	}

	title, content := s.renderContent(ctx, event)

	n := domain.Notification{
		UserID:      event.UserID,
		SenderID:    event.SenderID,
		Type:        event.Type,
		Title:       title,
		Content:     content,
		RelatedID:   event.RelatedID,
		RelatedType: event.RelatedType,
		IsRead:      domain.NotificationUnread,
		ExtraData:   event.ExtraData,
	}
	if err := s.notificationRepo.Store(ctx, &n); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}

	// 实时推送尽力而为; 行已经落库, 离线用户走拉取接口
	if err := s.registry.SendToUser(ctx, n.UserID, "NOTIFICATION", n); err != nil {
		logrus.Debugf("realtime push skipped, userID: %d, err: %v", n.UserID, err)
	}

	logrus.Infof("notification created, userID: %d, type: %s, relatedID: %d",
		n.UserID, n.Type, n.RelatedID)
	return nil
}

// renderContent 按通知类型渲染标题和内容, 未知类型用默认模板
func (s *Service) renderContent(ctx context.Context, event domain.NotificationEvent) (string, string) {
	senderName := "系统"
	if event.SenderID != 0 {
		if sender, err := s.userRepo.GetByID(ctx, event.SenderID); err == nil {
			senderName = sender.DisplayName
			if senderName == "" {
				senderName = sender.Username
			}
		}
	}

	switch event.Type {
	case domain.NotificationTypeLike:
		blogTitle := extraString(event.ExtraData, "blogTitle", "你的文章")
		return "收到新的点赞", fmt.Sprintf("%s 点赞了你的文章《%s》", senderName, blogTitle)
	case domain.NotificationTypeComment:
		blogTitle := extraString(event.ExtraData, "blogTitle", "你的文章")
		return "收到新的评论", fmt.Sprintf("%s 评论了你的文章《%s》", senderName, blogTitle)
	case domain.NotificationTypeFollow:
		return "收到新的关注", fmt.Sprintf("%s 关注了你", senderName)
	case domain.NotificationTypeSystem:
		return "系统通知", extraString(event.ExtraData, "content", "系统消息")
	default:
		return "新通知", "您有一条新通知"
	}
}

func extraString(extra map[string]any, key, fallback string) string {
	if extra == nil {
		return fallback
	}
	if v, ok := extra[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

func (s *Service) Fetch(ctx context.Context, q domain.NotificationQuery) ([]domain.Notification, int64, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PageSize < 1 || q.PageSize > 100 {
		q.PageSize = 10
	}

	res, total, err := s.notificationRepo.Fetch(ctx, q)
	if err != nil {
		return nil, 0, err
	}

	res, err = s.fillSenderDetails(ctx, res)
	if err != nil {
		logrus.Warnf("failed to fill sender details: %v", err)
	}
	return res, total, nil
}

// fillSenderDetails 并发补齐发送者信息
func (s *Service) fillSenderDetails(ctx context.Context, data []domain.Notification) ([]domain.Notification, error) {
	g, ctx := errgroup.WithContext(ctx)

	mapUsers := map[int64]domain.User{}
	for i := range data {
		if data[i].SenderID != 0 {
			mapUsers[data[i].SenderID] = domain.User{}
		}
	}

	chanUser := make(chan domain.User)
	for senderID := range mapUsers {
		g.Go(func() error {
			res, err := s.userRepo.GetByID(ctx, senderID)
			if err != nil {
				return err
			}
			chanUser <- res
			return nil
		})
	}

	go func() {
		defer close(chanUser)
		if err := g.Wait(); err != nil {
			logrus.Error(err)
		}
	}()

	for user := range chanUser {
		mapUsers[user.ID] = user
	}

	if err := g.Wait(); err != nil {
		return data, err
	}

	for i := range data {
		if u, ok := mapUsers[data[i].SenderID]; ok && u.ID != 0 {
			sender := u
			data[i].Sender = &sender
		}
	}
	return data, nil
}

func (s *Service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *Service) MarkRead(ctx context.Context, notificationID, userID int64) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return domain.ErrNotFound
	}
	if n.UserID != userID {
		return domain.ErrNoPermission
	}
	if n.IsRead == domain.NotificationRead {
		return nil
	}
	return s.notificationRepo.MarkRead(ctx, notificationID)
}

func (s *Service) MarkAllRead(ctx context.Context, userID int64) (int64, error) {
	return s.notificationRepo.MarkAllRead(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, notificationID, userID int64) error {
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return domain.ErrNotFound
	}
	if n.UserID != userID {
		return domain.ErrNoPermission
	}
	return s.notificationRepo.Delete(ctx, notificationID)
}

func (s *Service) CleanOld(ctx context.Context, userID int64) (int64, error) {
	deleted, err := s.notificationRepo.DeleteOld(ctx, userID, domain.NotificationKeepCount)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		logrus.Infof("cleaned %d old notifications for user %d", deleted, userID)
	}
	return deleted, nil
}
