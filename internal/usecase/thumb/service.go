package thumb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/pkg/keylock"
)

// Service is the MQ toggle strategy: the Redis Lua script is the single
// serialization point, the durable record and the counter column follow
// asynchronously through the broker.
type Service struct {
	thumbCache domain.ThumbCache
	blogRepo   domain.BlogRepository
	bloomRepo  domain.BloomRepository
	broker     domain.EventBroker
	locks      *keylock.KeyLock
	now        func() time.Time
}

var _ domain.ThumbService = (*Service)(nil)

func NewService(tc domain.ThumbCache, br domain.BlogRepository, bl domain.BloomRepository, eb domain.EventBroker) *Service {
	return &Service{
		thumbCache: tc,
		blogRepo:   br,
		bloomRepo:  bl,
		broker:     eb,
		locks:      keylock.New(0),
		now:        time.Now,
	}
}

func (s *Service) mustExists(ctx context.Context, blogID int64) error {
	exists, err := s.bloomRepo.Exists(ctx, blogID)
	if err == nil && !exists {
		logrus.Warnf("bloom filter says blog %d does not exist", blogID)
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) DoThumb(ctx context.Context, userID, blogID int64) error {
	if userID <= 0 || blogID <= 0 {
		return domain.ErrBadParamInput
	}
	if err := s.mustExists(ctx, blogID); err != nil {
		return err
	}

	// 同一用户的操作在进程内先串行化, 减少对同一 key 的无谓脚本调用
	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if err := s.thumbCache.AddThumb(ctx, userID, blogID); err != nil {
		if errors.Is(err, domain.ErrAlreadyThumbed) {
			return err
		}
		logrus.Errorf("failed to AddThumb in redis: %v", err)
		return domain.ErrUnavailable
	}

	event := domain.ThumbEvent{
		BlogID:    blogID,
		UserID:    userID,
		Type:      domain.ThumbEventIncr,
		EventTime: s.now(),
	}
	if err := s.publishThumbEvent(ctx, event); err != nil {
		// 事件发不出去, 回滚缓存写入, 快读视图不能领先于持久侧
		if rbErr := s.thumbCache.RollbackAdd(ctx, userID, blogID); rbErr != nil {
			logrus.Errorf("failed to rollback thumb add, userID: %d, blogID: %d, err: %v", userID, blogID, rbErr)
		}
		logrus.Errorf("failed to publish thumb event: %v", err)
		return domain.ErrUnavailable
	}

	s.sendLikeNotification(ctx, userID, blogID)
	return nil
}

func (s *Service) UndoThumb(ctx context.Context, userID, blogID int64) error {
	if userID <= 0 || blogID <= 0 {
		return domain.ErrBadParamInput
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if err := s.thumbCache.RemoveThumb(ctx, userID, blogID); err != nil {
		if errors.Is(err, domain.ErrNotThumbed) {
			return err
		}
		logrus.Errorf("failed to RemoveThumb in redis: %v", err)
		return domain.ErrUnavailable
	}

	event := domain.ThumbEvent{
		BlogID:    blogID,
		UserID:    userID,
		Type:      domain.ThumbEventDecr,
		EventTime: s.now(),
	}
	if err := s.publishThumbEvent(ctx, event); err != nil {
		if rbErr := s.thumbCache.RollbackRemove(ctx, userID, blogID); rbErr != nil {
			logrus.Errorf("failed to rollback thumb remove, userID: %d, blogID: %d, err: %v", userID, blogID, rbErr)
		}
		logrus.Errorf("failed to publish unthumb event: %v", err)
		return domain.ErrUnavailable
	}
	return nil
}

func (s *Service) HasThumb(ctx context.Context, blogID, userID int64) (bool, error) {
	return s.thumbCache.HasThumb(ctx, userID, blogID)
}

func (s *Service) publishThumbEvent(ctx context.Context, event domain.ThumbEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return s.broker.Publish(ctx, domain.TopicThumb, payload)
}

// sendLikeNotification 发布点赞通知事件, 失败只记日志, 不影响点赞本身
func (s *Service) sendLikeNotification(ctx context.Context, likerID, blogID int64) {
	blog, err := s.blogRepo.GetByID(ctx, blogID)
	if err != nil {
		logrus.Warnf("blog %d not found, skip like notification: %v", blogID, err)
		return
	}
	if blog.UserID == likerID {
		// 不给自己发通知
		return
	}

	event := domain.NotificationEvent{
		UserID:      blog.UserID,
		SenderID:    likerID,
		Type:        domain.NotificationTypeLike,
		RelatedID:   blogID,
		RelatedType: domain.RelatedTypeBlog,
		ExtraData: map[string]any{
			"blogTitle": blog.Title,
			"blogId":    blogID,
		},
		EventTime: s.now(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		logrus.Errorf("failed to marshal notification event: %v", err)
		return
	}
	if err := s.broker.Publish(ctx, domain.TopicNotification, payload); err != nil {
		logrus.Errorf("failed to publish like notification, likerID: %d, blogID: %d, err: %v", likerID, blogID, err)
	}
}
