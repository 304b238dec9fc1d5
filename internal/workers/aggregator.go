package workers

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	// DefaultSliceWidth 时间片宽度: 同一片内对同一篇博客的并发点赞
	// 合并成一次内存自增, 而不是每次一条数据库 UPDATE
	DefaultSliceWidth = 10 * time.Second

	DefaultFlushInterval = 10 * time.Second
)

// thumbAggregator buckets count deltas by (time slice, blog) and flushes
// closed slices to the thumb_count column on a fixed schedule. A slice is
// detached from the map before writing and merged back on failure, so a
// delta is applied exactly once and never lost.
type thumbAggregator struct {
	blogRepo      domain.BlogRepository
	sliceWidth    time.Duration
	flushInterval time.Duration

	mu     sync.Mutex
	slices map[int64]map[int64]int64 // sliceStart(unix) -> blogID -> delta

	now func() time.Time
}

var _ domain.ThumbAggregator = (*thumbAggregator)(nil)

func NewThumbAggregator(blogRepo domain.BlogRepository) *thumbAggregator {
	return &thumbAggregator{
		blogRepo:      blogRepo,
		sliceWidth:    DefaultSliceWidth,
		flushInterval: DefaultFlushInterval,
		slices:        make(map[int64]map[int64]int64),
		now:           time.Now,
	}
}

// RecordDelta adds the delta into the current time slice. Lock is held
// only for the map update, toggle callers never wait on a flush.
func (a *thumbAggregator) RecordDelta(blogID int64, delta int64) {
	slice := a.now().Truncate(a.sliceWidth).Unix()

	a.mu.Lock()
	bucket, ok := a.slices[slice]
	if !ok {
		bucket = make(map[int64]int64)
		a.slices[slice] = bucket
	}
	bucket[blogID] += delta
	a.mu.Unlock()
}

func (a *thumbAggregator) Start(ctx context.Context) {
	ticker := time.NewTicker(a.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.flush(ctx, false)
		case <-ctx.Done():
			logrus.Info("shutting down ThumbAggregator, flushing remaining slices...")
			a.flush(context.Background(), true)
			return
		}
	}
}

// flush applies every closed slice in one batched repository call.
// includeOpen 仅在停机时为 true, 把当前未关闭的片也一并落库
func (a *thumbAggregator) flush(ctx context.Context, includeOpen bool) {
	cutoff := a.now().Add(-a.sliceWidth).Truncate(a.sliceWidth).Unix()

	a.mu.Lock()
	detached := make(map[int64]map[int64]int64)
	for slice, bucket := range a.slices {
		if includeOpen || slice <= cutoff {
			detached[slice] = bucket
			delete(a.slices, slice)
		}
	}
	a.mu.Unlock()

	if len(detached) == 0 {
		return
	}

	deltas := make(map[int64]int64)
	for _, bucket := range detached {
		for blogID, delta := range bucket {
			if delta != 0 {
				deltas[blogID] += delta
			}
		}
	}
	if len(deltas) == 0 {
		return
	}

	if err := a.blogRepo.ApplyThumbDeltas(ctx, deltas); err != nil {
		logrus.Errorf("failed to flush thumb deltas, retaining %d slices: %v", len(detached), err)
		// 写失败则放回去, 下个周期重试 (增量可加, 不会重复应用)
		a.mu.Lock()
		for slice, bucket := range detached {
			existing, ok := a.slices[slice]
			if !ok {
				a.slices[slice] = bucket
				continue
			}
			for blogID, delta := range bucket {
				existing[blogID] += delta
			}
		}
		a.mu.Unlock()
		return
	}

	logrus.Infof("flushed thumb deltas for %d blogs across %d slices", len(deltas), len(detached))
}
