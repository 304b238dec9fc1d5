package blog

import (
	"context"
	"strconv"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/inceCheng/GigaLike/domain"
)

const bloomInitBatch = 1000

// Service serves the blog read path the core needs: the blog row with its
// write-behind counter plus the viewer's like status from the fast view.
type Service struct {
	blogRepo     domain.BlogRepository
	bloomRepo    domain.BloomRepository
	thumbService domain.ThumbService
	group        singleflight.Group
}

func NewService(br domain.BlogRepository, bl domain.BloomRepository, ts domain.ThumbService) *Service {
	return &Service{
		blogRepo:     br,
		bloomRepo:    bl,
		thumbService: ts,
	}
}

// GetByID returns the blog with HasThumb filled for the viewer.
// viewerID == 0 means an anonymous read.
func (s *Service) GetByID(ctx context.Context, id, viewerID int64) (domain.Blog, error) {
	exists, bloomErr := s.bloomRepo.Exists(ctx, id)
	if bloomErr == nil && !exists {
		return domain.Blog{}, domain.ErrNotFound
	}

	// 热点博客的并发读合并成一次数据库查询
	res, err, _ := s.group.Do(strconv.FormatInt(id, 10), func() (any, error) {
		return s.blogRepo.GetByID(ctx, id)
	})
	if err != nil {
		return domain.Blog{}, err
	}
	blog := res.(domain.Blog)

	// 过滤器不可用时读到的 ID 补回去, 自愈
	if bloomErr != nil {
		if err := s.bloomRepo.Add(ctx, id); err != nil {
			logrus.Warnf("failed to add blog %d to bloom filter: %v", id, err)
		}
	}

	if viewerID > 0 {
		liked, err := s.thumbService.HasThumb(ctx, id, viewerID)
		if err != nil {
			logrus.Warnf("failed to read thumb status, blogID: %d, userID: %d, err: %v", id, viewerID, err)
		} else {
			blog.HasThumb = liked
		}
	}
	return blog, nil
}

// InitBloomFilter 启动时把已有博客ID灌进布隆过滤器
func (s *Service) InitBloomFilter(ctx context.Context) error {
	var cursor int64
	for {
		ids, err := s.blogRepo.FetchIDs(ctx, cursor, bloomInitBatch)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}
		if err := s.bloomRepo.BulkAdd(ctx, ids); err != nil {
			return err
		}
		cursor = ids[len(ids)-1]
	}
}
