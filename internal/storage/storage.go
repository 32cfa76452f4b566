// Package storage holds uploaded files. Keys are slash-separated paths
// relative to the backend root; they are what the database stores.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotExist is returned by Delete when the key has no object.
var ErrNotExist = errors.New("storage: object does not exist")

type Storage interface {
	// Save stores r under key, replacing any existing object.
	Save(ctx context.Context, key string, r io.Reader, contentType string) error

	// Delete removes key. Backends that can tell return ErrNotExist for a
	// missing object; the others return nil.
	Delete(ctx context.Context, key string) error

	// List returns every object whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]Object, error)
}

type Object struct {
	Key     string
	Size    int64
	ModTime time.Time
}

var extPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)

// NewKey generates a collision-resistant key for an upload:
// folder/<UTC timestamp>-<8 hex chars><ext>. The original extension is kept
// when it is sane, otherwise fallbackExt (from content sniffing) is used.
func NewKey(folder, filename, fallbackExt string) string {
	ext := strings.ToLower(path.Ext(filename))
	if !extPattern.MatchString(ext) {
		ext = strings.ToLower(fallbackExt)
		if ext != "" && !extPattern.MatchString(ext) {
			ext = ""
		}
	}
	id := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	name := fmt.Sprintf("%s-%s%s", time.Now().UTC().Format("20060102T150405"), id, ext)
	if folder == "" {
		return name
	}
	return strings.Trim(folder, "/") + "/" + name
}

// ValidKey reports whether key is a relative, clean path that cannot escape
// the storage root.
func ValidKey(key string) bool {
	if key == "" || strings.HasPrefix(key, "/") || strings.Contains(key, "\\") {
		return false
	}
	if path.Clean(key) != key {
		return false
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." || part == "." {
			return false
		}
	}
	return true
}

// JoinURL joins a public base and a stored key.
func JoinURL(base, key string) string {
	if key == "" {
		return ""
	}
	return strings.TrimSuffix(base, "/") + "/" + strings.TrimPrefix(key, "/")
}
