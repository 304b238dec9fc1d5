package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/repository/mysql/model"
)

type blogRepository struct {
	DB *gorm.DB
}

var _ domain.BlogRepository = (*blogRepository)(nil)

func NewBlogRepository(db *gorm.DB) *blogRepository {
	return &blogRepository{db}
}

func (m *blogRepository) GetByID(ctx context.Context, id int64) (domain.Blog, error) {
	var blog model.Blog
	err := m.DB.WithContext(ctx).First(&blog, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Blog{}, domain.ErrNotFound
		}
		return domain.Blog{}, err
	}
	return blog.ToDomain(), nil
}

// ApplyThumbDeltas 在一个事务内按博客批量更新计数列,
// 一个时间片内的 N 次点赞合并成每篇博客一条 UPDATE
func (m *blogRepository) ApplyThumbDeltas(ctx context.Context, deltas map[int64]int64) error {
	if len(deltas) == 0 {
		return nil
	}
	return m.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for blogID, delta := range deltas {
			if delta == 0 {
				continue
			}
			err := tx.Model(&model.Blog{}).
				Where("id = ?", blogID).
				Update("thumb_count", gorm.Expr("thumb_count + ?", delta)).
				Error
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (m *blogRepository) FetchIDs(ctx context.Context, cursor, limit int64) (ids []int64, err error) {
	err = m.DB.WithContext(ctx).
		Model(&model.Blog{}).
		Select("id").
		Where("id > ?", cursor).
		Order("id").
		Limit(int(limit)).
		Find(&ids).Error
	return
}
