package database

import (
	"context"
	"testing"

	"quill/internal/config"
	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sqliteConfig() *config.Config {
	return &config.Config{
		Env:      "test",
		DBDriver: "sqlite",
		DBPath:   ":memory:",
	}
}

func TestConnect_SQLiteAppliesSchema(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)

	for _, table := range []string{"users", "groups", "posts", "comments", "follows"} {
		assert.True(t, db.Migrator().HasTable(table), "missing table %s", table)
	}
	require.NoError(t, Ping(context.Background(), db))
}

func TestConnect_FollowRejectsSelfEdge(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)

	u := models.User{Username: "leo", Password: "x"}
	require.NoError(t, db.Create(&u).Error)

	err = db.Create(&models.Follow{UserID: u.ID, AuthorID: u.ID}).Error
	assert.Error(t, err)
}

func TestConnect_GroupDeleteClearsPostGroup(t *testing.T) {
	db, err := Connect(sqliteConfig())
	require.NoError(t, err)

	u := models.User{Username: "leo", Password: "x"}
	require.NoError(t, db.Create(&u).Error)
	g := models.Group{Title: "Cats", Slug: "cats"}
	require.NoError(t, db.Create(&g).Error)
	p := models.Post{Text: "hello", AuthorID: u.ID, GroupID: &g.ID}
	require.NoError(t, db.Create(&p).Error)

	require.NoError(t, db.Delete(&g).Error)

	var reloaded models.Post
	require.NoError(t, db.First(&reloaded, p.ID).Error)
	assert.Nil(t, reloaded.GroupID)
}

func TestPlanSchema(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		runSQL  bool
		runAuto bool
		wantErr bool
	}{
		{"sqlite always auto", config.Config{DBDriver: "sqlite", DBSchemaMode: "sql"}, false, true, false},
		{"hybrid in development", config.Config{DBDriver: "postgres", Env: "development"}, true, true, false},
		{"hybrid in production", config.Config{DBDriver: "postgres", Env: "production", DBSchemaMode: "hybrid"}, true, false, false},
		{"sql only", config.Config{DBDriver: "postgres", DBSchemaMode: "sql"}, true, false, false},
		{"auto refused in production", config.Config{DBDriver: "postgres", Env: "prod", DBSchemaMode: "auto"}, false, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := PlanSchema(&tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.runSQL, plan.SQL)
			assert.Equal(t, tt.runAuto, plan.AutoMigrate)
		})
	}
}

func TestGetSchemaStatus_SQLite(t *testing.T) {
	cfg := sqliteConfig()
	db, err := Connect(cfg)
	require.NoError(t, err)

	status, err := GetSchemaStatus(context.Background(), db, cfg)
	require.NoError(t, err)
	assert.Equal(t, SchemaModeHybrid, status.Mode)
	assert.True(t, status.AutoMigrate)
	assert.False(t, status.SQL)
	assert.Empty(t, status.PendingMigrations)
}
