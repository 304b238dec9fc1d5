package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/inceCheng/GigaLike/domain"
)

const (
	// KeyUserThumbs hash: field = blogID, value = thumb record ID.
	// 值为 0 或字段缺失代表未点赞
	KeyUserThumbs = "thumb:%d"
)

// Lua 状态码, 与脚本返回值对应
const (
	luaStatusNoOp    = 0
	luaStatusSuccess = 1
)

type thumbCache struct {
	client *redis.Client
}

var _ domain.ThumbCache = (*thumbCache)(nil)

func NewThumbCache(client *redis.Client) *thumbCache {
	return &thumbCache{client}
}

// addThumbScript 检查并写入点赞占位记录, 单个原子步骤。
// KEYS[1] = 用户点赞 hash, ARGV[1] = blogID, ARGV[2] = 占位记录ID
var addThumbScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], ARGV[1])
	if v and tonumber(v) ~= 0 then
		return 0 -- 已点赞
	end
	redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
	return 1 -- 点赞成功
`)

// removeThumbScript 检查并删除点赞记录, 单个原子步骤
var removeThumbScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], ARGV[1])
	if not v or tonumber(v) == 0 then
		return 0 -- 未点赞
	end
	redis.call('HDEL', KEYS[1], ARGV[1])
	return 1 -- 取消赞成功
`)

// backfillScript 仅当字段仍是占位值时回填真实记录ID, 避免覆盖并发的取消赞
var backfillScript = redis.NewScript(`
	local v = redis.call('HGET', KEYS[1], ARGV[1])
	if v and tonumber(v) == tonumber(ARGV[3]) then
		redis.call('HSET', KEYS[1], ARGV[1], ARGV[2])
		return 1
	end
	return 0
`)

func userThumbKey(userID int64) string {
	return fmt.Sprintf(KeyUserThumbs, userID)
}

func (c *thumbCache) AddThumb(ctx context.Context, userID, blogID int64) error {
	res, err := addThumbScript.Run(ctx, c.client,
		[]string{userThumbKey(userID)},
		blogID, domain.PendingThumbID,
	).Int()
	if err != nil {
		return err
	}
	if res == luaStatusNoOp {
		return domain.ErrAlreadyThumbed
	}
	return nil
}

func (c *thumbCache) RemoveThumb(ctx context.Context, userID, blogID int64) error {
	res, err := removeThumbScript.Run(ctx, c.client,
		[]string{userThumbKey(userID)},
		blogID,
	).Int()
	if err != nil {
		return err
	}
	if res == luaStatusNoOp {
		return domain.ErrNotThumbed
	}
	return nil
}

// RollbackAdd 撤销一次点赞写入, 用于事件发布失败后的补偿
func (c *thumbCache) RollbackAdd(ctx context.Context, userID, blogID int64) error {
	return c.client.HDel(ctx, userThumbKey(userID), strconv.FormatInt(blogID, 10)).Err()
}

// RollbackRemove 恢复一次被取消的点赞, 用于事件发布失败后的补偿
func (c *thumbCache) RollbackRemove(ctx context.Context, userID, blogID int64) error {
	return c.client.HSet(ctx, userThumbKey(userID),
		strconv.FormatInt(blogID, 10), domain.PendingThumbID).Err()
}

func (c *thumbCache) SetThumbRecordID(ctx context.Context, userID, blogID, thumbID int64) error {
	return backfillScript.Run(ctx, c.client,
		[]string{userThumbKey(userID)},
		blogID, thumbID, domain.PendingThumbID,
	).Err()
}

func (c *thumbCache) HasThumb(ctx context.Context, userID, blogID int64) (bool, error) {
	val, err := c.client.HGet(ctx, userThumbKey(userID), strconv.FormatInt(blogID, 10)).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	id, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return false, err
	}
	return id != 0, nil
}

func (c *thumbCache) SetUserThumbs(ctx context.Context, userID int64, thumbs []domain.Thumb) error {
	if len(thumbs) == 0 {
		return nil
	}
	fields := make([]any, 0, 2*len(thumbs))
	for i := range thumbs {
		fields = append(fields, strconv.FormatInt(thumbs[i].BlogID, 10), thumbs[i].ID)
	}
	return c.client.HSet(ctx, userThumbKey(userID), fields...).Err()
}
