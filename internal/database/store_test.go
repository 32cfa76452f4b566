package database_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"coaching-site-backend/internal/database"
	"coaching-site-backend/internal/database/databasetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLStore_InsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	store := databasetest.Store(t)

	row, err := store.Insert(ctx, "banners", map[string]any{"text": "Sale", "image_path": "banners/a.jpg"})
	require.NoError(t, err)
	id, ok := row["id"].(int64)
	require.True(t, ok, "id should scan as int64, got %T", row["id"])
	assert.Equal(t, "Sale", row["text"])
	assert.NotNil(t, row["created_at"])

	got, err := store.Get(ctx, "banners", id)
	require.NoError(t, err)
	assert.Equal(t, "banners/a.jpg", got["image_path"])

	updated, err := store.Update(ctx, "banners", id, map[string]any{"text": "Mega Sale"})
	require.NoError(t, err)
	assert.Equal(t, "Mega Sale", updated["text"])
	assert.Equal(t, "banners/a.jpg", updated["image_path"])

	deleted, err := store.Delete(ctx, "banners", id)
	require.NoError(t, err)
	assert.Equal(t, "banners/a.jpg", deleted["image_path"])

	_, err = store.Get(ctx, "banners", id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.Delete(ctx, "banners", id)
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, err = store.Update(ctx, "banners", id, map[string]any{"text": "x"})
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestSQLStore_ListFiltersAndPages(t *testing.T) {
	ctx := context.Background()
	store := databasetest.Store(t)

	for i := 1; i <= 5; i++ {
		category := "jee"
		if i%2 == 0 {
			category = "neet"
		}
		_, err := store.Insert(ctx, "courses", map[string]any{
			"title":      fmt.Sprintf("Course %d", i),
			"category":   category,
			"image_path": fmt.Sprintf("courses/%d.jpg", i),
		})
		require.NoError(t, err)
	}

	rows, err := store.List(ctx, "courses", database.ListQuery{
		Filters: map[string]any{"category": "jee"},
		OrderBy: "id DESC",
		Limit:   2,
	})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Course 5", rows[0]["title"])
	assert.Equal(t, "Course 3", rows[1]["title"])

	rows, err = store.List(ctx, "courses", database.ListQuery{OrderBy: "id ASC", Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Course 5", rows[0]["title"])

	rows, err = store.List(ctx, "courses", database.ListQuery{Limit: 10, Offset: 100})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestSQLStore_UpsertKeepsOneRow(t *testing.T) {
	ctx := context.Background()
	store := databasetest.Store(t)

	_, err := store.Upsert(ctx, "site_title", 1, map[string]any{"title": "First", "subtitle": "one"})
	require.NoError(t, err)
	row, err := store.Upsert(ctx, "site_title", 1, map[string]any{"title": "Second", "subtitle": nil})
	require.NoError(t, err)
	assert.Equal(t, "Second", row["title"])
	assert.Nil(t, row["subtitle"])

	rows, err := store.List(ctx, "site_title", database.ListQuery{})
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestSQLStore_Column(t *testing.T) {
	ctx := context.Background()
	store := databasetest.Store(t)

	_, err := store.Insert(ctx, "testimonials", map[string]any{"name": "A", "message": "m", "photo_path": "testimonials/a.jpg"})
	require.NoError(t, err)
	_, err = store.Insert(ctx, "testimonials", map[string]any{"name": "B", "message": "m"})
	require.NoError(t, err)

	refs, err := store.Column(ctx, "testimonials", "photo_path")
	require.NoError(t, err)
	assert.Equal(t, []string{"testimonials/a.jpg"}, refs)
}

func TestSQLStore_Duplicate(t *testing.T) {
	ctx := context.Background()
	store := databasetest.Store(t)

	values := map[string]any{"email": "a@example.com", "password_hash": "x"}
	_, err := store.Insert(ctx, "admins", values)
	require.NoError(t, err)

	_, err = store.Insert(ctx, "admins", values)
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDuplicate)
	assert.True(t, database.IsDuplicate(err))
}

func TestMigrate_Idempotent(t *testing.T) {
	db := databasetest.Open(t)
	assert.NoError(t, database.Migrate(db, database.DriverSQLite, discard()))
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
