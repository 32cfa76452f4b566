package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/database"
	"coaching-site-backend/internal/media"
	"coaching-site-backend/internal/storage"
)

// Deps are the collaborators shared by every lifecycle.
type Deps struct {
	Store     Store
	Files     storage.Storage
	FileBase  string // public URL prefix for stored keys
	Processor *media.Processor
	Logger    *slog.Logger
	Metrics   Recorder
}

// Lifecycle runs create, read, update, delete and list for one collection
// resource. File writes always precede the row write; a replaced or deleted
// file is removed only after the row change succeeded.
type Lifecycle struct {
	desc      *Descriptor
	store     Store
	files     storage.Storage
	fileBase  string
	processor *media.Processor
	logger    *slog.Logger
	metrics   Recorder

	// rowLocks serializes file-replacing writes to the same row.
	rowLocks [32]sync.Mutex
}

func NewLifecycle(desc *Descriptor, deps Deps) *Lifecycle {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	var metrics Recorder = nopRecorder{}
	if deps.Metrics != nil {
		metrics = deps.Metrics
	}
	return &Lifecycle{
		desc:      desc,
		store:     deps.Store,
		files:     deps.Files,
		fileBase:  deps.FileBase,
		processor: deps.Processor,
		logger:    logger.With("resource", desc.Path),
		metrics:   metrics,
	}
}

func (l *Lifecycle) Descriptor() *Descriptor {
	return l.desc
}

func (l *Lifecycle) lockRow(id int64) func() {
	mu := &l.rowLocks[uint64(id)%uint64(len(l.rowLocks))]
	mu.Lock()
	return mu.Unlock
}

func (l *Lifecycle) Create(ctx context.Context, in Input) (rec *Record, err error) {
	defer func() { l.observe("create", err) }()

	values, err := l.desc.parseValues(in, modeCreate)
	if err != nil {
		return nil, err
	}

	var key string
	if l.desc.File != nil && in.File != nil {
		key, err = l.storeFile(ctx, in.File)
		if err != nil {
			return nil, err
		}
		values[l.desc.File.Column] = key
	}

	row, err := l.store.Insert(ctx, l.desc.Table, values)
	if err != nil {
		if key != "" {
			l.removeFile(ctx, key, "compensate")
		}
		return nil, l.storeError("create", 0, err)
	}

	rec = l.desc.record(row, l.fileBase)
	l.logger.Info("resource created", "id", rec.ID, "file", key)
	return rec, nil
}

func (l *Lifecycle) Get(ctx context.Context, id int64) (*Record, error) {
	row, err := l.store.Get(ctx, l.desc.Table, id)
	if err != nil {
		return nil, l.storeError("get", id, err)
	}
	return l.desc.record(row, l.fileBase), nil
}

// Update applies a partial change. When a new file is supplied, the old file
// is removed only after the row points at the new one.
func (l *Lifecycle) Update(ctx context.Context, id int64, in Input) (rec *Record, err error) {
	defer func() { l.observe("update", err) }()

	values, err := l.desc.parseValues(in, modePatch)
	if err != nil {
		return nil, err
	}
	replacing := l.desc.File != nil && in.File != nil
	if len(values) == 0 && !replacing {
		return nil, apperr.Validation("no fields to update")
	}
	values["updated_at"] = time.Now().UTC()

	if !replacing {
		row, err := l.store.Update(ctx, l.desc.Table, id, values)
		if err != nil {
			return nil, l.storeError("update", id, err)
		}
		return l.desc.record(row, l.fileBase), nil
	}

	unlock := l.lockRow(id)
	defer unlock()

	current, err := l.store.Get(ctx, l.desc.Table, id)
	if err != nil {
		return nil, l.storeError("update", id, err)
	}
	oldKey := toString(current[l.desc.File.Column])

	newKey, err := l.storeFile(ctx, in.File)
	if err != nil {
		return nil, err
	}
	values[l.desc.File.Column] = newKey

	row, err := l.store.Update(ctx, l.desc.Table, id, values)
	if err != nil {
		l.removeFile(ctx, newKey, "compensate")
		return nil, l.storeError("update", id, err)
	}

	if oldKey != "" && oldKey != newKey {
		l.removeFile(ctx, oldKey, "replace")
	}
	rec = l.desc.record(row, l.fileBase)
	l.logger.Info("resource file replaced", "id", id, "old", oldKey, "new", newKey)
	return rec, nil
}

// Delete removes the row, then its file. A file that is already gone counts
// as removed; other file errors are logged and do not fail the delete.
func (l *Lifecycle) Delete(ctx context.Context, id int64) (err error) {
	defer func() { l.observe("delete", err) }()

	unlock := l.lockRow(id)
	defer unlock()

	row, err := l.store.Delete(ctx, l.desc.Table, id)
	if err != nil {
		return l.storeError("delete", id, err)
	}
	if l.desc.File != nil {
		if key := toString(row[l.desc.File.Column]); key != "" {
			l.removeFile(ctx, key, "delete")
		}
	}
	l.logger.Info("resource deleted", "id", id)
	return nil
}

// List returns one page in the descriptor's order. filters holds raw query
// values by field name; only filterable fields are applied.
func (l *Lifecycle) List(ctx context.Context, filters map[string]string, page Page) ([]*Record, error) {
	where, err := l.desc.parseFilters(filters)
	if err != nil {
		return nil, err
	}
	page = page.normalized()

	rows, err := l.store.List(ctx, l.desc.Table, database.ListQuery{
		Filters: where,
		OrderBy: l.desc.OrderBy,
		Limit:   page.Size,
		Offset:  page.Offset(),
	})
	if err != nil {
		return nil, l.storeError("list", 0, err)
	}

	records := make([]*Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, l.desc.record(row, l.fileBase))
	}
	return records, nil
}

// References returns every storage key the table currently points at.
func (l *Lifecycle) References(ctx context.Context) ([]string, error) {
	if l.desc.File == nil {
		return nil, nil
	}
	return l.store.Column(ctx, l.desc.Table, l.desc.File.Column)
}

func (l *Lifecycle) Folder() string {
	return l.desc.Folder()
}

// storeFile normalizes the upload and writes it under a fresh key.
func (l *Lifecycle) storeFile(ctx context.Context, upload *media.Upload) (string, error) {
	processed, err := l.processor.Fit(upload)
	if err != nil {
		return "", apperr.Validation("%s: %v", l.desc.File.Field, err)
	}

	contentType, ext := media.DetectedType(processed.Data)
	key := storage.NewKey(l.desc.Folder(), processed.Filename, ext)

	var r io.Reader = bytes.NewReader(processed.Data)
	if err := l.files.Save(ctx, key, r, contentType); err != nil {
		return "", apperr.Storage("failed to store file", err)
	}
	return key, nil
}

// removeFile runs even when the request context is done, so cleanup is not
// skipped for a client that disconnected.
func (l *Lifecycle) removeFile(ctx context.Context, key, reason string) {
	err := l.files.Delete(context.WithoutCancel(ctx), key)
	switch {
	case err == nil:
		l.metrics.FileCleanup(l.desc.Path, "removed")
	case errors.Is(err, storage.ErrNotExist):
		l.metrics.FileCleanup(l.desc.Path, "absent")
	default:
		l.metrics.FileCleanup(l.desc.Path, "failed")
		l.logger.Error("failed to remove file", "key", key, "reason", reason, "error", err)
	}
}

func (l *Lifecycle) storeError(op string, id int64, err error) error {
	switch {
	case errors.Is(err, database.ErrNotFound):
		if l.desc.Singleton {
			return apperr.NotFound("%s is not set", l.desc.Name)
		}
		return apperr.NotFound("%s %d not found", l.desc.Name, id)
	case errors.Is(err, database.ErrDuplicate):
		return apperr.Conflict("%s already exists", l.desc.Name)
	default:
		return apperr.Storage(fmt.Sprintf("failed to %s %s", op, l.desc.Name), err)
	}
}

func (l *Lifecycle) observe(op string, err error) {
	outcome := "ok"
	if err != nil {
		if apperr.HTTPStatus(err) < 500 {
			outcome = "rejected"
		} else {
			outcome = "error"
		}
	}
	l.metrics.Operation(l.desc.Path, op, outcome)
}
