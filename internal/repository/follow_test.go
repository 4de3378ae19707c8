package repository

import (
	"context"
	"testing"

	"quill/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFollowRepository_CreateUsesOnConflict(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewFollowRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "follows" .* ON CONFLICT DO NOTHING`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectCommit()

	require.NoError(t, repo.Create(context.Background(), 1, 2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFollowRepository_CreateIsIdempotent(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	u := mkUser(t, db, "reader")
	a := mkUser(t, db, "author")

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, u.ID, a.ID))
	}

	var n int64
	require.NoError(t, db.Model(&models.Follow{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)

	ok, err := repo.Exists(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, a.ID, u.ID)
	require.NoError(t, err)
	assert.False(t, ok, "edges are directed")
}

func TestFollowRepository_Delete(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	u := mkUser(t, db, "reader")
	a := mkUser(t, db, "author")
	require.NoError(t, repo.Create(ctx, u.ID, a.ID))

	removed, err := repo.Delete(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = repo.Delete(ctx, u.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestFollowRepository_ListAuthorsAndCounts(t *testing.T) {
	db := setupSQLiteDB(t)
	repo := NewFollowRepository(db)
	ctx := context.Background()
	u := mkUser(t, db, "reader")
	zed := mkUser(t, db, "zed")
	amy := mkUser(t, db, "amy")
	mkUser(t, db, "ignored")

	require.NoError(t, repo.Create(ctx, u.ID, zed.ID))
	require.NoError(t, repo.Create(ctx, u.ID, amy.ID))
	require.NoError(t, repo.Create(ctx, amy.ID, zed.ID))

	authors, err := repo.ListAuthors(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, authors, 2)
	assert.Equal(t, "amy", authors[0].Username)
	assert.Equal(t, "zed", authors[1].Username)

	followers, err := repo.CountFollowers(ctx, zed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), followers)

	following, err := repo.CountFollowing(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), following)
}
