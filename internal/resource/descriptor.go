// Package resource implements the upload-bound lifecycle shared by every
// content type on the site: a database row kept consistent with at most one
// stored file. Each content type is a Descriptor; Lifecycle and Singleton
// run the same create/update/delete/list rules for all of them.
package resource

import (
	"context"

	"coaching-site-backend/internal/database"
	"coaching-site-backend/internal/media"
)

type Kind int

const (
	Text Kind = iota
	Int
	Decimal
	Date // calendar date, 2006-01-02
)

func (k Kind) String() string {
	switch k {
	case Int:
		return "integer"
	case Decimal:
		return "number"
	case Date:
		return "date"
	default:
		return "string"
	}
}

const dateLayout = "2006-01-02"

// Field is one scalar attribute.
type Field struct {
	Name     string // JSON key, form field and query parameter
	Column   string
	Kind     Kind
	Required bool
	Rules    string // validator tags checked against the parsed value
	Filter   bool   // usable as an equality filter on list
}

// FileSpec describes the single file a resource may carry.
type FileSpec struct {
	Field    string // multipart field name
	Column   string // column holding the storage key
	URLKey   string // JSON key of the resolved URL
	Required bool
	Accept   []media.Constraints
}

type Descriptor struct {
	Name      string // human name used in messages
	Path      string // URL segment and storage folder
	Table     string
	Fields    []Field
	File      *FileSpec
	OrderBy   string
	Singleton bool
}

func (d *Descriptor) Field(name string) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Folder is the storage prefix for this resource's files.
func (d *Descriptor) Folder() string {
	return d.Path
}

// Store is the row access the lifecycle needs. database.SQLStore implements
// it; tests wrap it to inject failures.
type Store interface {
	Insert(ctx context.Context, table string, values map[string]any) (database.Row, error)
	Get(ctx context.Context, table string, id int64) (database.Row, error)
	Update(ctx context.Context, table string, id int64, values map[string]any) (database.Row, error)
	Delete(ctx context.Context, table string, id int64) (database.Row, error)
	Upsert(ctx context.Context, table string, id int64, values map[string]any) (database.Row, error)
	List(ctx context.Context, table string, q database.ListQuery) ([]database.Row, error)
	Column(ctx context.Context, table, column string) ([]string, error)
}

// Recorder receives operation and cleanup outcomes for metrics.
type Recorder interface {
	Operation(resource, op, outcome string)
	FileCleanup(resource, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) Operation(string, string, string) {}
func (nopRecorder) FileCleanup(string, string)       {}

// Input is a create, update or replace payload. Values holds raw form or
// JSON values by field name; a key that is present with an empty value
// clears an optional field on update.
type Input struct {
	Values map[string]string
	File   *media.Upload
}
