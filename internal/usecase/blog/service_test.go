package blog

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inceCheng/GigaLike/domain"
)

type fakeBlogRepo struct {
	mu      sync.Mutex
	blogs   map[int64]domain.Blog
	ids     []int64
	calls   atomic.Int64
	getWait time.Duration
}

func (f *fakeBlogRepo) GetByID(ctx context.Context, id int64) (domain.Blog, error) {
	f.calls.Add(1)
	if f.getWait > 0 {
		time.Sleep(f.getWait)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.blogs[id]
	if !ok {
		return domain.Blog{}, domain.ErrNotFound
	}
	return b, nil
}

func (f *fakeBlogRepo) ApplyThumbDeltas(ctx context.Context, deltas map[int64]int64) error {
	return nil
}

func (f *fakeBlogRepo) FetchIDs(ctx context.Context, cursor, limit int64) ([]int64, error) {
	out := make([]int64, 0)
	for _, id := range f.ids {
		if id > cursor {
			out = append(out, id)
		}
		if int64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

type fakeBloomRepo struct {
	mu        sync.Mutex
	added     map[int64]bool
	existsErr error
}

func newFakeBloomRepo() *fakeBloomRepo {
	return &fakeBloomRepo{added: make(map[int64]bool)}
}

func (f *fakeBloomRepo) Add(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.added[id] = true
	return nil
}

func (f *fakeBloomRepo) Exists(ctx context.Context, id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.existsErr != nil {
		return false, f.existsErr
	}
	return f.added[id], nil
}

func (f *fakeBloomRepo) BulkAdd(ctx context.Context, ids []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range ids {
		f.added[id] = true
	}
	return nil
}

type fakeThumbService struct {
	liked map[int64]map[int64]bool // userID -> blogID
}

func (f *fakeThumbService) DoThumb(ctx context.Context, userID, blogID int64) error   { return nil }
func (f *fakeThumbService) UndoThumb(ctx context.Context, userID, blogID int64) error { return nil }

func (f *fakeThumbService) HasThumb(ctx context.Context, blogID, userID int64) (bool, error) {
	return f.liked[userID][blogID], nil
}

func TestBlogService_GetByID(t *testing.T) {
	repo := &fakeBlogRepo{blogs: map[int64]domain.Blog{5: {ID: 5, Title: "hello", ThumbCount: 3}}}
	bloom := newFakeBloomRepo()
	require.NoError(t, bloom.Add(context.Background(), 5))
	thumbs := &fakeThumbService{liked: map[int64]map[int64]bool{1: {5: true}}}
	svc := NewService(repo, bloom, thumbs)

	// viewer who liked it
	blog, err := svc.GetByID(context.Background(), 5, 1)
	require.NoError(t, err)
	assert.True(t, blog.HasThumb)
	assert.Equal(t, int64(3), blog.ThumbCount)

	// a different viewer
	blog, err = svc.GetByID(context.Background(), 5, 2)
	require.NoError(t, err)
	assert.False(t, blog.HasThumb)

	// anonymous read skips the status fill
	blog, err = svc.GetByID(context.Background(), 5, 0)
	require.NoError(t, err)
	assert.False(t, blog.HasThumb)
}

func TestBlogService_GetByID_BloomRejects(t *testing.T) {
	repo := &fakeBlogRepo{blogs: map[int64]domain.Blog{}}
	svc := NewService(repo, newFakeBloomRepo(), &fakeThumbService{})

	_, err := svc.GetByID(context.Background(), 404, 1)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// the database is never touched
	assert.Equal(t, int64(0), repo.calls.Load())
}

func TestBlogService_GetByID_BloomDownSelfHeals(t *testing.T) {
	repo := &fakeBlogRepo{blogs: map[int64]domain.Blog{5: {ID: 5}}}
	bloom := newFakeBloomRepo()
	bloom.existsErr = errors.New("redis down")
	svc := NewService(repo, bloom, &fakeThumbService{})

	// 过滤器不可用不拦截读, 成功读到的 ID 被补回过滤器
	_, err := svc.GetByID(context.Background(), 5, 0)
	require.NoError(t, err)

	bloom.mu.Lock()
	defer bloom.mu.Unlock()
	assert.True(t, bloom.added[5])
}

func TestBlogService_GetByID_ConcurrentReadsCollapse(t *testing.T) {
	repo := &fakeBlogRepo{
		blogs:   map[int64]domain.Blog{5: {ID: 5}},
		getWait: 50 * time.Millisecond,
	}
	bloom := newFakeBloomRepo()
	require.NoError(t, bloom.Add(context.Background(), 5))
	svc := NewService(repo, bloom, &fakeThumbService{})

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GetByID(context.Background(), 5, 0)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	// 并发读被合并, 不可能放大到 20 次库查询
	assert.Less(t, repo.calls.Load(), int64(20))
}

func TestBlogService_InitBloomFilter(t *testing.T) {
	ids := make([]int64, 0, 2500)
	for i := int64(1); i <= 2500; i++ {
		ids = append(ids, i)
	}
	repo := &fakeBlogRepo{ids: ids}
	bloom := newFakeBloomRepo()
	svc := NewService(repo, bloom, &fakeThumbService{})

	require.NoError(t, svc.InitBloomFilter(context.Background()))

	// paging covered every ID
	for _, id := range []int64{1, 1000, 1001, 2500} {
		exists, err := bloom.Exists(context.Background(), id)
		require.NoError(t, err)
		assert.True(t, exists, "id %d missing from filter", id)
	}
}
