package thumb

import (
	"context"
	"errors"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/pkg/keylock"
)

// DBService is the database-first toggle strategy: the durable record is
// written on the synchronous path and the unique (user_id, blog_id) index
// is the idempotency guard. Counter writes still go through the
// write-behind aggregator. Used where no broker is available.
type DBService struct {
	thumbRepo  domain.ThumbRepository
	thumbCache domain.ThumbCache
	bloomRepo  domain.BloomRepository
	aggregator domain.ThumbAggregator
	locks      *keylock.KeyLock
	warmGroup  singleflight.Group
}

var _ domain.ThumbService = (*DBService)(nil)

func NewDBService(tr domain.ThumbRepository, tc domain.ThumbCache, bl domain.BloomRepository, agg domain.ThumbAggregator) *DBService {
	return &DBService{
		thumbRepo:  tr,
		thumbCache: tc,
		bloomRepo:  bl,
		aggregator: agg,
		locks:      keylock.New(0),
	}
}

func (s *DBService) mustExists(ctx context.Context, blogID int64) error {
	exists, err := s.bloomRepo.Exists(ctx, blogID)
	if err == nil && !exists {
		logrus.Warnf("bloom filter says blog %d does not exist", blogID)
		return domain.ErrNotFound
	}
	return nil
}

func (s *DBService) DoThumb(ctx context.Context, userID, blogID int64) error {
	if userID <= 0 || blogID <= 0 {
		return domain.ErrBadParamInput
	}
	if err := s.mustExists(ctx, blogID); err != nil {
		return err
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	if _, err := s.thumbRepo.Find(ctx, userID, blogID); err == nil {
		return domain.ErrAlreadyThumbed
	}

	record := domain.Thumb{UserID: userID, BlogID: blogID}
	if err := s.thumbRepo.Insert(ctx, &record); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			// 并发点赞落在唯一索引上
			return domain.ErrAlreadyThumbed
		}
		logrus.Errorf("failed to insert thumb record: %v", err)
		return domain.ErrUnavailable
	}

	// 缓存视图尽力而为地跟上, 数据库才是这条策略的权威
	if err := s.thumbCache.SetUserThumbs(ctx, userID, []domain.Thumb{record}); err != nil {
		logrus.Warnf("failed to update thumb cache: %v", err)
	}

	s.aggregator.RecordDelta(blogID, 1)
	return nil
}

func (s *DBService) UndoThumb(ctx context.Context, userID, blogID int64) error {
	if userID <= 0 || blogID <= 0 {
		return domain.ErrBadParamInput
	}

	s.locks.Lock(userID)
	defer s.locks.Unlock(userID)

	record, err := s.thumbRepo.Find(ctx, userID, blogID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotThumbed
		}
		logrus.Errorf("failed to look up thumb record: %v", err)
		return domain.ErrUnavailable
	}
	if err := s.thumbRepo.Delete(ctx, record.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.ErrNotThumbed
		}
		logrus.Errorf("failed to delete thumb record: %v", err)
		return domain.ErrUnavailable
	}

	// 缓存没这个字段说明本来就是冷的, 不算错误
	if err := s.thumbCache.RemoveThumb(ctx, userID, blogID); err != nil && !errors.Is(err, domain.ErrNotThumbed) {
		logrus.Warnf("failed to update thumb cache: %v", err)
	}

	s.aggregator.RecordDelta(blogID, -1)
	return nil
}

func (s *DBService) HasThumb(ctx context.Context, blogID, userID int64) (bool, error) {
	// 缓存命中为真时直接返回, 否则以数据库为准
	if liked, err := s.thumbCache.HasThumb(ctx, userID, blogID); err == nil && liked {
		return true, nil
	}
	_, err := s.thumbRepo.Find(ctx, userID, blogID)
	if err == nil {
		// 数据库有记录但缓存没有, 说明缓存是冷的, 异步预热该用户的点赞列表
		go s.warmUserThumbs(context.Background(), userID)
		return true, nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	return false, err
}

// warmUserThumbs 把用户最近的点赞记录灌进缓存, singleflight 防止同一用户并发预热.
func (s *DBService) warmUserThumbs(ctx context.Context, userID int64) {
	_, _, _ = s.warmGroup.Do(strconv.FormatInt(userID, 10), func() (interface{}, error) {
		thumbs, err := s.thumbRepo.FetchUserThumbs(ctx, userID, domain.ThumbRecordLimit)
		if err != nil {
			logrus.Warnf("failed to fetch thumbs for user %d: %v", userID, err)
			return nil, err
		}
		if len(thumbs) == 0 {
			return nil, nil
		}
		if err := s.thumbCache.SetUserThumbs(ctx, userID, thumbs); err != nil {
			logrus.Warnf("failed to warm thumb cache for user %d: %v", userID, err)
			return nil, err
		}
		return nil, nil
	})
}
