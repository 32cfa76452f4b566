package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	storage_go "github.com/supabase-community/storage-go"
	"github.com/supabase-community/supabase-go"
)

const supabaseListPageSize = 1000

// Supabase stores files in a Supabase Storage bucket. Supabase answers a
// removal of a missing path with an empty result, so Delete never reports
// ErrNotExist.
type Supabase struct {
	client *storage_go.Client
	bucket string
}

func NewSupabase(supabaseURL, serviceKey, bucket string) (*Supabase, error) {
	client, err := supabase.NewClient(strings.TrimSuffix(supabaseURL, "/"), serviceKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize supabase client: %w", err)
	}
	if client.Storage == nil {
		return nil, fmt.Errorf("supabase client has no storage client")
	}
	return &Supabase{client: client.Storage, bucket: bucket}, nil
}

func (s *Supabase) Save(_ context.Context, key string, r io.Reader, contentType string) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	upsert := true
	opts := storage_go.FileOptions{Upsert: &upsert}
	if contentType != "" {
		opts.ContentType = &contentType
	}
	if _, err := s.client.UploadFile(s.bucket, key, r, opts); err != nil {
		return fmt.Errorf("failed to upload file: %w", err)
	}
	return nil
}

func (s *Supabase) Delete(_ context.Context, key string) error {
	if !ValidKey(key) {
		return fmt.Errorf("invalid storage key %q", key)
	}
	if _, err := s.client.RemoveFile(s.bucket, []string{key}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List pages through one folder level. Resource folders are flat, so prefix
// is treated as the folder whose files are listed.
func (s *Supabase) List(ctx context.Context, prefix string) ([]Object, error) {
	folder := strings.TrimSuffix(prefix, "/")

	var objects []Object
	for offset := 0; ; offset += supabaseListPageSize {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := s.client.ListFiles(s.bucket, folder, storage_go.FileSearchOptions{
			Limit:  supabaseListPageSize,
			Offset: offset,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list files: %w", err)
		}
		for _, file := range files {
			// Sub-folders come back without an id.
			if file.Id == "" {
				continue
			}
			key := file.Name
			if folder != "" {
				key = folder + "/" + file.Name
			}
			modTime, _ := time.Parse(time.RFC3339, file.UpdatedAt)
			objects = append(objects, Object{Key: key, ModTime: modTime})
		}
		if len(files) < supabaseListPageSize {
			break
		}
	}
	return objects, nil
}
