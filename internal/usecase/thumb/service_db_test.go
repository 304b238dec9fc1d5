package thumb

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inceCheng/GigaLike/domain"
)

type fakeThumbRepo struct {
	mu      sync.Mutex
	nextID  int64
	records map[int64]domain.Thumb // id -> record
	findErr error
}

func newFakeThumbRepo() *fakeThumbRepo {
	return &fakeThumbRepo{nextID: 100, records: make(map[int64]domain.Thumb)}
}

func (f *fakeThumbRepo) Insert(ctx context.Context, t *domain.Thumb) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.records {
		if r.UserID == t.UserID && r.BlogID == t.BlogID {
			return domain.ErrConflict
		}
	}
	f.nextID++
	t.ID = f.nextID
	f.records[t.ID] = *t
	return nil
}

func (f *fakeThumbRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.records[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.records, id)
	return nil
}

func (f *fakeThumbRepo) Find(ctx context.Context, userID, blogID int64) (domain.Thumb, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return domain.Thumb{}, f.findErr
	}
	for _, r := range f.records {
		if r.UserID == userID && r.BlogID == blogID {
			return r, nil
		}
	}
	return domain.Thumb{}, domain.ErrNotFound
}

func (f *fakeThumbRepo) FetchUserThumbs(ctx context.Context, userID int64, limit int64) ([]domain.Thumb, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Thumb, 0)
	for _, r := range f.records {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeAggregator struct {
	mu     sync.Mutex
	deltas map[int64]int64
}

func newFakeAggregator() *fakeAggregator {
	return &fakeAggregator{deltas: make(map[int64]int64)}
}

func (f *fakeAggregator) Start(ctx context.Context) {}

func (f *fakeAggregator) RecordDelta(blogID int64, delta int64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deltas[blogID] += delta
}

func (f *fakeAggregator) total(blogID int64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.deltas[blogID]
}

func newDBService(repo domain.ThumbRepository, cache domain.ThumbCache, agg domain.ThumbAggregator) *DBService {
	return NewDBService(repo, cache, &fakeBloomRepo{}, agg)
}

func TestDBService_DoThumb(t *testing.T) {
	repo := newFakeThumbRepo()
	agg := newFakeAggregator()
	svc := newDBService(repo, newFakeThumbCache(), agg)

	require.NoError(t, svc.DoThumb(context.Background(), 1, 5))

	record, err := repo.Find(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.NotZero(t, record.ID)
	assert.Equal(t, int64(1), agg.total(5))
}

func TestDBService_DoThumb_Twice(t *testing.T) {
	repo := newFakeThumbRepo()
	agg := newFakeAggregator()
	svc := newDBService(repo, newFakeThumbCache(), agg)

	require.NoError(t, svc.DoThumb(context.Background(), 1, 5))
	err := svc.DoThumb(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrAlreadyThumbed)

	// duplicate must not inflate the counter
	assert.Equal(t, int64(1), agg.total(5))
}

func TestDBService_UndoThumb(t *testing.T) {
	repo := newFakeThumbRepo()
	cache := newFakeThumbCache()
	agg := newFakeAggregator()
	svc := newDBService(repo, cache, agg)

	ctx := context.Background()
	require.NoError(t, svc.DoThumb(ctx, 1, 5))
	require.NoError(t, svc.UndoThumb(ctx, 1, 5))

	_, err := repo.Find(ctx, 1, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(0), agg.total(5))

	// 缓存里的点赞字段也被清掉
	liked, err := cache.HasThumb(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, liked)

	assert.ErrorIs(t, svc.UndoThumb(ctx, 1, 5), domain.ErrNotThumbed)
}

func TestDBService_UndoThumb_ColdCache(t *testing.T) {
	repo := newFakeThumbRepo()
	agg := newFakeAggregator()
	svc := newDBService(repo, newFakeThumbCache(), agg)

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.Thumb{UserID: 1, BlogID: 5}))

	// 缓存是冷的也不影响取消点赞
	require.NoError(t, svc.UndoThumb(ctx, 1, 5))
	_, err := repo.Find(ctx, 1, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Equal(t, int64(-1), agg.total(5))
}

func TestDBService_UndoThumb_TransientFindError(t *testing.T) {
	repo := newFakeThumbRepo()
	svc := newDBService(repo, newFakeThumbCache(), newFakeAggregator())

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.Thumb{UserID: 1, BlogID: 5}))

	// 查询瞬时失败不能报告成"没点过赞"
	repo.findErr = errors.New("driver: bad connection")
	assert.ErrorIs(t, svc.UndoThumb(ctx, 1, 5), domain.ErrUnavailable)

	repo.findErr = nil
	_, err := repo.Find(ctx, 1, 5)
	assert.NoError(t, err)
}

func TestDBService_HasThumb_FallsBackToRepo(t *testing.T) {
	repo := newFakeThumbRepo()
	cache := newFakeThumbCache()
	svc := newDBService(repo, cache, newFakeAggregator())

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.Thumb{UserID: 1, BlogID: 5}))

	// cache is cold, the repo record still answers true
	liked, err := svc.HasThumb(ctx, 5, 1)
	require.NoError(t, err)
	assert.True(t, liked)

	liked, err = svc.HasThumb(ctx, 6, 1)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestDBService_HasThumb_WarmsColdCache(t *testing.T) {
	repo := newFakeThumbRepo()
	cache := newFakeThumbCache()
	svc := newDBService(repo, cache, newFakeAggregator())

	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, &domain.Thumb{UserID: 1, BlogID: 5}))
	require.NoError(t, repo.Insert(ctx, &domain.Thumb{UserID: 1, BlogID: 7}))

	liked, err := svc.HasThumb(ctx, 5, 1)
	require.NoError(t, err)
	require.True(t, liked)

	// the cold-cache hit triggers an async warm-load of the whole membership
	require.Eventually(t, func() bool {
		a, _ := cache.HasThumb(ctx, 1, 5)
		b, _ := cache.HasThumb(ctx, 1, 7)
		return a && b
	}, time.Second, 10*time.Millisecond)
}

func TestDBService_ExactlyOneRecordAfterToggleStorm(t *testing.T) {
	repo := newFakeThumbRepo()
	agg := newFakeAggregator()
	svc := newDBService(repo, newFakeThumbCache(), agg)

	ctx := context.Background()
	const rounds = 10
	for range rounds {
		require.NoError(t, svc.DoThumb(ctx, 1, 5))
		require.NoError(t, svc.UndoThumb(ctx, 1, 5))
	}
	require.NoError(t, svc.DoThumb(ctx, 1, 5))

	count := 0
	for _, r := range repo.records {
		if r.UserID == 1 && r.BlogID == 5 {
			count++
		}
	}
	assert.Equal(t, 1, count)
	assert.Equal(t, int64(1), agg.total(5))
}
