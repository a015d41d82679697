package repository

import (
	"context"
	"testing"

	"scribe/internal/database"
	"scribe/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	return gormDB, mock
}

func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), database.GormConfig())
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, database.ApplySchema(context.Background(), db))
	return db
}

func createUser(t *testing.T, db *gorm.DB, username string, private bool) *models.User {
	t.Helper()
	u := &models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, NewUserRepository(db).Create(context.Background(), u))
	if private {
		require.NoError(t, NewUserRepository(db).SetPrivate(context.Background(), u.ID, true))
		u.IsPrivate = true
	}
	return u
}

func createTag(t *testing.T, db *gorm.DB, title string) *models.Tag {
	t.Helper()
	tag := &models.Tag{Title: title}
	require.NoError(t, NewTagRepository(db).Create(context.Background(), tag))
	return tag
}

func createPost(t *testing.T, db *gorm.DB, author *models.User, title string) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Content: "content of " + title, AuthorID: author.ID}
	require.NoError(t, NewPostRepository(db).Create(context.Background(), p))
	return p
}
