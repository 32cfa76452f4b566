// Package reconcile removes stored files that no row references any more.
// Ordering in the lifecycle keeps rows from pointing at missing files; the
// sweep handles what ordering cannot, such as a crash between a file write
// and its row insert.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/storage"
)

// Source is one resource folder and the keys its table references.
type Source interface {
	Folder() string
	References(ctx context.Context) ([]string, error)
}

type Recorder interface {
	OrphansRemoved(folder string, n int)
	Sweep(outcome string)
}

type Options struct {
	// GracePeriod protects files younger than this, which may belong to a
	// create that has written its file but not yet its row.
	GracePeriod time.Duration
	DryRun      bool
	Timeout     time.Duration
}

type FolderReport struct {
	Folder  string   `json:"folder"`
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	Removed int      `json:"removed"`
	Failed  int      `json:"failed"`
}

type Report struct {
	DryRun  bool           `json:"dryRun"`
	Scanned int            `json:"scanned"`
	Orphans int            `json:"orphans"`
	Removed int            `json:"removed"`
	Failed  int            `json:"failed"`
	Folders []FolderReport `json:"folders"`
}

type Sweeper struct {
	files   storage.Storage
	sources []Source
	opts    Options
	logger  *slog.Logger
	metrics Recorder
	now     func() time.Time

	running sync.Mutex
	cron    *cron.Cron
}

func NewSweeper(files storage.Storage, sources []Source, opts Options, logger *slog.Logger, metrics Recorder) *Sweeper {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}
	return &Sweeper{
		files:   files,
		sources: sources,
		opts:    opts,
		logger:  logger.With("component", "orphan-sweep"),
		metrics: metrics,
		now:     time.Now,
	}
}

// Sweep compares every source folder against the keys its table references
// and removes unreferenced files older than the grace period. Only one sweep
// runs at a time.
func (s *Sweeper) Sweep(ctx context.Context) (*Report, error) {
	if !s.running.TryLock() {
		return nil, apperr.Conflict("orphan sweep already running")
	}
	defer s.running.Unlock()

	report := &Report{DryRun: s.opts.DryRun}
	threshold := s.now().Add(-s.opts.GracePeriod)

	var errs []error
	for _, src := range s.sources {
		fr, err := s.sweepFolder(ctx, src, threshold)
		if err != nil {
			errs = append(errs, err)
			s.logger.Error("sweep failed", "folder", src.Folder(), "error", err)
			continue
		}
		report.Folders = append(report.Folders, *fr)
		report.Scanned += fr.Scanned
		report.Orphans += len(fr.Orphans)
		report.Removed += fr.Removed
		report.Failed += fr.Failed
		if s.metrics != nil {
			s.metrics.OrphansRemoved(fr.Folder, fr.Removed)
		}
	}

	outcome := "ok"
	if len(errs) > 0 {
		outcome = "error"
	}
	if s.metrics != nil {
		s.metrics.Sweep(outcome)
	}
	s.logger.Info("sweep finished",
		"scanned", report.Scanned, "orphans", report.Orphans,
		"removed", report.Removed, "failed", report.Failed, "dry_run", report.DryRun)

	if len(errs) > 0 {
		return report, apperr.Storage("orphan sweep incomplete", errors.Join(errs...))
	}
	return report, nil
}

func (s *Sweeper) sweepFolder(ctx context.Context, src Source, threshold time.Time) (*FolderReport, error) {
	folder := src.Folder()
	fr := &FolderReport{Folder: folder, Orphans: []string{}}

	// References are read before listing so a file created in between is
	// either listed with a fresh mtime or not listed at all.
	refs, err := src.References(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read references for %s: %w", folder, err)
	}
	referenced := make(map[string]struct{}, len(refs))
	for _, ref := range refs {
		referenced[ref] = struct{}{}
	}

	objects, err := s.files.List(ctx, strings.TrimSuffix(folder, "/")+"/")
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", folder, err)
	}

	for _, obj := range objects {
		fr.Scanned++
		if _, ok := referenced[obj.Key]; ok {
			continue
		}
		// Unknown age is treated as too young to remove.
		if obj.ModTime.IsZero() || obj.ModTime.After(threshold) {
			continue
		}
		fr.Orphans = append(fr.Orphans, obj.Key)
		if s.opts.DryRun {
			continue
		}
		if err := s.files.Delete(ctx, obj.Key); err != nil && !errors.Is(err, storage.ErrNotExist) {
			fr.Failed++
			s.logger.Warn("failed to remove orphan", "key", obj.Key, "error", err)
			continue
		}
		fr.Removed++
	}
	return fr, nil
}

// Start runs Sweep on a cron schedule. An empty schedule disables it.
func (s *Sweeper) Start(schedule string) error {
	if schedule == "" {
		return nil
	}
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
		defer cancel()
		if _, err := s.Sweep(ctx); err != nil {
			s.logger.Error("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}
	s.cron = c
	c.Start()
	s.logger.Info("orphan sweep scheduled", "schedule", schedule,
		"grace_period", s.opts.GracePeriod.String(), "dry_run", s.opts.DryRun)
	return nil
}

// Stop halts the schedule and waits for a running sweep to finish.
func (s *Sweeper) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
}
