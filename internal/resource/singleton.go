package resource

import (
	"context"
	"errors"
	"sync"
	"time"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/database"
)

// singletonID is the fixed key of the one live row of a singleton table.
const singletonID int64 = 1

// Singleton is a resource with at most one row. Every write is an upsert on
// the fixed id, and writes to the same singleton are serialized.
type Singleton struct {
	lc *Lifecycle
	mu sync.Mutex
}

func NewSingleton(desc *Descriptor, deps Deps) *Singleton {
	return &Singleton{lc: NewLifecycle(desc, deps)}
}

func (s *Singleton) Descriptor() *Descriptor {
	return s.lc.desc
}

func (s *Singleton) Folder() string {
	return s.lc.Folder()
}

func (s *Singleton) References(ctx context.Context) ([]string, error) {
	return s.lc.References(ctx)
}

func (s *Singleton) Get(ctx context.Context) (*Record, error) {
	return s.lc.Get(ctx, singletonID)
}

// Replace sets the whole row. Omitted optional fields are cleared. When no
// file is supplied the current file is kept, so a required file only has to
// be sent the first time.
func (s *Singleton) Replace(ctx context.Context, in Input) (rec *Record, err error) {
	l := s.lc
	defer func() { l.observe("replace", err) }()

	full := Input{Values: make(map[string]string, len(l.desc.Fields)), File: in.File}
	for _, f := range l.desc.Fields {
		full.Values[f.Name] = in.Values[f.Name]
	}
	values, err := l.desc.parseValues(full, modePatch)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var oldKey string
	if l.desc.File != nil {
		current, err := l.store.Get(ctx, l.desc.Table, singletonID)
		switch {
		case err == nil:
			oldKey = toString(current[l.desc.File.Column])
		case !errors.Is(err, database.ErrNotFound):
			return nil, l.storeError("replace", singletonID, err)
		}
		if in.File == nil && oldKey == "" && l.desc.File.Required {
			return nil, apperr.Validation("missing required fields: %s", l.desc.File.Field)
		}
	}

	var newKey string
	if l.desc.File != nil {
		if in.File != nil {
			newKey, err = l.storeFile(ctx, in.File)
			if err != nil {
				return nil, err
			}
			values[l.desc.File.Column] = newKey
		} else {
			values[l.desc.File.Column] = nilIfEmpty(oldKey)
		}
	}
	values["updated_at"] = time.Now().UTC()

	row, err := l.store.Upsert(ctx, l.desc.Table, singletonID, values)
	if err != nil {
		if newKey != "" {
			l.removeFile(ctx, newKey, "compensate")
		}
		return nil, l.storeError("replace", singletonID, err)
	}

	if newKey != "" && oldKey != "" && oldKey != newKey {
		l.removeFile(ctx, oldKey, "replace")
	}
	l.logger.Info("singleton replaced", "file", newKey)
	return l.desc.record(row, l.fileBase), nil
}

// Clear removes the row and its file.
func (s *Singleton) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lc.Delete(ctx, singletonID)
}

func nilIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
