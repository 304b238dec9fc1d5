package mysql

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inceCheng/GigaLike/domain"
	"github.com/inceCheng/GigaLike/internal/repository/mysql/model"
)

type thumbRepository struct {
	DB *gorm.DB
}

var _ domain.ThumbRepository = (*thumbRepository)(nil)

func NewThumbRepository(db *gorm.DB) *thumbRepository {
	return &thumbRepository{db}
}

func (m *thumbRepository) Insert(ctx context.Context, t *domain.Thumb) error {
	thumbModel := model.NewThumbFromDomain(t)
	result := m.DB.WithContext(ctx).Create(thumbModel)
	if result.Error != nil {
		// 唯一索引 (user_id, blog_id) 挡住并发重复点赞
		if errors.Is(result.Error, gorm.ErrDuplicatedKey) {
			return domain.ErrConflict
		}
		return result.Error
	}
	t.ID = thumbModel.ID
	t.CreatedAt = thumbModel.CreatedAt
	return nil
}

func (m *thumbRepository) Delete(ctx context.Context, id int64) error {
	result := m.DB.WithContext(ctx).Delete(&model.Thumb{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (m *thumbRepository) Find(ctx context.Context, userID, blogID int64) (domain.Thumb, error) {
	var thumb model.Thumb
	err := m.DB.WithContext(ctx).
		First(&thumb, "user_id = ? AND blog_id = ?", userID, blogID).
		Error
	if err != nil {
		// 瞬时错误不能伪装成"记录不存在", 消费端靠这个区分重复投递
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.Thumb{}, domain.ErrNotFound
		}
		return domain.Thumb{}, err
	}
	return thumb.ToDomain(), nil
}

func (m *thumbRepository) FetchUserThumbs(ctx context.Context, userID int64, limit int64) ([]domain.Thumb, error) {
	var thumbs []model.Thumb
	err := m.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("blog_id desc").
		Limit(int(limit)).
		Find(&thumbs).Error
	if err != nil {
		return nil, err
	}

	res := make([]domain.Thumb, len(thumbs))
	for i := range thumbs {
		res[i] = thumbs[i].ToDomain()
	}
	return res, nil
}
