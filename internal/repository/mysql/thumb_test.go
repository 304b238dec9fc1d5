package mysql

import (
	"context"
	"testing"
	"time"

	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sqlmock "gopkg.in/DATA-DOG/go-sqlmock.v1"
	gormMysql "gorm.io/driver/mysql"
	"gorm.io/gorm"

	"github.com/inceCheng/GigaLike/domain"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(gormMysql.New(gormMysql.Config{
		Conn:                      sqlDB,
		SkipInitializeWithVersion: true,
	}), &gorm.Config{
		TranslateError:         true,
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	return db, mock
}

func TestThumbRepository_Find(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "user_id", "blog_id", "created_at"}).
		AddRow(101, 1, 5, created)
	mock.ExpectQuery("SELECT (.+) FROM `thumb`").WillReturnRows(rows)

	thumb, err := repo.Find(context.Background(), 1, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(101), thumb.ID)
	assert.Equal(t, int64(5), thumb.BlogID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbRepository_Find_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	mock.ExpectQuery("SELECT (.+) FROM `thumb`").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "blog_id", "created_at"}))

	_, err := repo.Find(context.Background(), 1, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestThumbRepository_Find_TransientErrorIsNotNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	// 连接抖动不能被当成"记录不存在"
	mock.ExpectQuery("SELECT (.+) FROM `thumb`").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1040, Message: "Too many connections"})

	_, err := repo.Find(context.Background(), 1, 5)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

func TestThumbRepository_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	mock.ExpectExec("INSERT INTO `thumb`").
		WillReturnResult(sqlmock.NewResult(101, 1))

	record := domain.Thumb{UserID: 1, BlogID: 5, CreatedAt: time.Now()}
	require.NoError(t, repo.Insert(context.Background(), &record))
	assert.Equal(t, int64(101), record.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestThumbRepository_Insert_DuplicateKey(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	// MySQL 1062: duplicate entry on the (user_id, blog_id) unique index
	mock.ExpectExec("INSERT INTO `thumb`").
		WillReturnError(&mysqlDriver.MySQLError{Number: 1062, Message: "Duplicate entry"})

	record := domain.Thumb{UserID: 1, BlogID: 5}
	err := repo.Insert(context.Background(), &record)
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestThumbRepository_Delete(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewThumbRepository(db)

	mock.ExpectExec("DELETE FROM `thumb`").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), 101))

	mock.ExpectExec("DELETE FROM `thumb`").
		WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), 101), domain.ErrNotFound)
}

func TestBlogRepository_ApplyThumbDeltas(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBlogRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE `blog` SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.ApplyThumbDeltas(context.Background(), map[int64]int64{5: 3})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	// empty and zero-delta maps must not touch the database
	require.NoError(t, repo.ApplyThumbDeltas(context.Background(), nil))
}

func TestBlogRepository_FetchIDs(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBlogRepository(db)

	rows := sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2).AddRow(3)
	mock.ExpectQuery("SELECT (.+) FROM `blog`").WillReturnRows(rows)

	ids, err := repo.FetchIDs(context.Background(), 0, 100)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 2, 3}, ids)
}

func TestNotificationRepository_CountUnread(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectQuery("SELECT count(.+) FROM `notifications`").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := repo.CountUnread(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(7), count)
}

func TestNotificationRepository_MarkAllRead(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db)

	mock.ExpectExec("UPDATE `notifications` SET").
		WillReturnResult(sqlmock.NewResult(0, 4))

	updated, err := repo.MarkAllRead(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, int64(4), updated)
}
