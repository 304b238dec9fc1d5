package redis

import (
	"context"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inceCheng/GigaLike/domain"
)

func TestThumbCache_AddThumb(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectEvalSha(addThumbScript.Hash(),
		[]string{"thumb:1"}, int64(5), domain.PendingThumbID).SetVal(int64(1))

	err := cache.AddThumb(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbCache_AddThumb_Duplicate(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectEvalSha(addThumbScript.Hash(),
		[]string{"thumb:1"}, int64(5), domain.PendingThumbID).SetVal(int64(0))

	err := cache.AddThumb(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrAlreadyThumbed)
}

func TestThumbCache_RemoveThumb(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectEvalSha(removeThumbScript.Hash(),
		[]string{"thumb:1"}, int64(5)).SetVal(int64(1))

	require.NoError(t, cache.RemoveThumb(context.Background(), 1, 5))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbCache_RemoveThumb_NotThumbed(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectEvalSha(removeThumbScript.Hash(),
		[]string{"thumb:1"}, int64(5)).SetVal(int64(0))

	err := cache.RemoveThumb(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrNotThumbed)
}

func TestThumbCache_HasThumb(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectHGet("thumb:1", "5").SetVal("123")
	liked, err := cache.HasThumb(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.True(t, liked)

	// 字段缺失代表未点赞
	mock.ExpectHGet("thumb:1", "6").RedisNil()
	liked, err = cache.HasThumb(context.Background(), 1, 6)
	require.NoError(t, err)
	assert.False(t, liked)

	// 0 值同样代表未点赞
	mock.ExpectHGet("thumb:1", "7").SetVal("0")
	liked, err = cache.HasThumb(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.False(t, liked)
}

func TestThumbCache_Rollbacks(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectHDel("thumb:1", "5").SetVal(1)
	require.NoError(t, cache.RollbackAdd(context.Background(), 1, 5))

	mock.ExpectHSet("thumb:1", "5", domain.PendingThumbID).SetVal(1)
	require.NoError(t, cache.RollbackRemove(context.Background(), 1, 5))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbCache_SetThumbRecordID(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	mock.ExpectEvalSha(backfillScript.Hash(),
		[]string{"thumb:1"}, int64(5), int64(123), domain.PendingThumbID).SetVal(int64(1))

	require.NoError(t, cache.SetThumbRecordID(context.Background(), 1, 5, 123))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbCache_SetUserThumbs(t *testing.T) {
	client, mock := redismock.NewClientMock()
	cache := NewThumbCache(client)

	thumbs := []domain.Thumb{
		{ID: 101, UserID: 1, BlogID: 5},
		{ID: 102, UserID: 1, BlogID: 7},
	}
	mock.ExpectHSet("thumb:1", "5", int64(101), "7", int64(102)).SetVal(2)

	require.NoError(t, cache.SetUserThumbs(context.Background(), 1, thumbs))
	assert.NoError(t, mock.ExpectationsWereMet())

	// 空列表不触发任何命令
	require.NoError(t, cache.SetUserThumbs(context.Background(), 1, nil))
}
