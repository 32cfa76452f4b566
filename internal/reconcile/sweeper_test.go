package reconcile_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/reconcile"
	"coaching-site-backend/internal/storage/storagetest"
)

type staticSource struct {
	folder string
	refs   []string
	err    error
}

func (s staticSource) Folder() string { return s.folder }

func (s staticSource) References(context.Context) ([]string, error) {
	return s.refs, s.err
}

type countingRecorder struct {
	removed  map[string]int
	outcomes []string
}

func (r *countingRecorder) OrphansRemoved(folder string, n int) {
	if r.removed == nil {
		r.removed = map[string]int{}
	}
	r.removed[folder] += n
}

func (r *countingRecorder) Sweep(outcome string) {
	r.outcomes = append(r.outcomes, outcome)
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func seed(files *storagetest.Memory) {
	old := time.Now().Add(-2 * time.Hour)
	files.Put("banners/kept.png", []byte("a"), old)
	files.Put("banners/orphan.png", []byte("b"), old)
	files.Put("banners/fresh.png", []byte("c"), time.Now())
	files.Put("courses/orphan.png", []byte("d"), old)
	files.Put("unmanaged/other.png", []byte("e"), old)
}

func sources() []reconcile.Source {
	return []reconcile.Source{
		staticSource{folder: "banners", refs: []string{"banners/kept.png"}},
		staticSource{folder: "courses"},
	}
}

func TestSweep_RemovesOldOrphans(t *testing.T) {
	files := storagetest.NewMemory()
	seed(files)
	rec := &countingRecorder{}
	sw := reconcile.NewSweeper(files, sources(), reconcile.Options{GracePeriod: time.Hour}, discard, rec)

	report, err := sw.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 4, report.Scanned)
	assert.Equal(t, 2, report.Orphans)
	assert.Equal(t, 2, report.Removed)
	assert.Equal(t, []string{"banners/fresh.png", "banners/kept.png", "unmanaged/other.png"}, files.Keys())
	assert.Equal(t, map[string]int{"banners": 1, "courses": 1}, rec.removed)
	assert.Equal(t, []string{"ok"}, rec.outcomes)
}

func TestSweep_DryRun(t *testing.T) {
	files := storagetest.NewMemory()
	seed(files)
	sw := reconcile.NewSweeper(files, sources(), reconcile.Options{GracePeriod: time.Hour, DryRun: true}, discard, nil)

	report, err := sw.Sweep(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 2, report.Orphans)
	assert.Zero(t, report.Removed)
	assert.Equal(t, 5, files.Len())
	assert.Equal(t, []string{"banners/orphan.png"}, report.Folders[0].Orphans)
}

func TestSweep_SourceErrorIsReported(t *testing.T) {
	files := storagetest.NewMemory()
	seed(files)
	srcs := []reconcile.Source{
		staticSource{folder: "banners", err: errors.New("db down")},
		staticSource{folder: "courses"},
	}
	sw := reconcile.NewSweeper(files, srcs, reconcile.Options{GracePeriod: time.Hour}, discard, nil)

	report, err := sw.Sweep(context.Background())
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindStorage))
	assert.Equal(t, 1, report.Removed, "other folders are still swept")
	assert.True(t, files.Exists("banners/orphan.png"), "a folder without references is never swept")
}

func TestSweep_DeleteFailuresAreCounted(t *testing.T) {
	files := storagetest.NewMemory()
	seed(files)
	files.DeleteErr = errors.New("permission denied")
	sw := reconcile.NewSweeper(files, sources(), reconcile.Options{GracePeriod: time.Hour}, discard, nil)

	report, err := sw.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Failed)
	assert.Zero(t, report.Removed)
}

func TestStart_Schedule(t *testing.T) {
	sw := reconcile.NewSweeper(storagetest.NewMemory(), nil, reconcile.Options{}, discard, nil)

	assert.NoError(t, sw.Start(""))
	assert.Error(t, sw.Start("not a schedule"))

	require.NoError(t, sw.Start("@every 1h"))
	sw.Stop()
}
