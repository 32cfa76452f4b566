// Package media validates uploaded files and normalizes images before they
// are stored.
package media

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"coaching-site-backend/internal/apperr"
)

// Upload is a file received from a client, fully buffered.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

func (u *Upload) Size() int64 {
	return int64(len(u.Data))
}

// Constraints defines what a file field accepts.
type Constraints struct {
	MIMETypes  []string
	Extensions []string
	MaxSize    int64
}

var (
	Images = Constraints{
		MIMETypes:  []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		Extensions: []string{".jpg", ".jpeg", ".png", ".webp", ".gif"},
		MaxSize:    5 << 20, // 5MB
	}

	Documents = Constraints{
		MIMETypes:  []string{"application/pdf"},
		Extensions: []string{".pdf"},
		MaxSize:    10 << 20, // 10MB
	}
)

// Validate checks the upload against one or more constraint sets. The file
// must satisfy at least one of them. The content type is sniffed from the
// bytes; the client-declared type is not trusted.
func Validate(u *Upload, constraints ...Constraints) error {
	if u == nil || len(u.Data) == 0 {
		return apperr.Validation("file is empty")
	}
	if len(constraints) == 0 {
		return nil
	}

	var lastErr error
	for _, c := range constraints {
		err := c.check(u)
		if err == nil {
			return nil
		}
		lastErr = err
	}
	return lastErr
}

func (c Constraints) check(u *Upload) error {
	if c.MaxSize > 0 && u.Size() > c.MaxSize {
		return apperr.Validation("file too large: maximum size is %d MB", c.MaxSize>>20)
	}

	detected := mimetype.Detect(u.Data)
	if !c.allowsMIME(detected) {
		return apperr.Validation("invalid file type (detected: %s)", detected.String())
	}

	ext := strings.ToLower(filepath.Ext(u.Filename))
	if ext == "" {
		// Filenames without an extension get the sniffed one when stored.
		return nil
	}
	for _, allowed := range c.Extensions {
		if ext == allowed {
			return nil
		}
	}
	return apperr.Validation("invalid file extension: %s", ext)
}

func (c Constraints) allowsMIME(detected *mimetype.MIME) bool {
	for _, m := range c.MIMETypes {
		if detected.Is(m) {
			return true
		}
	}
	return false
}

// DetectedType returns the sniffed MIME type and its canonical extension.
func DetectedType(data []byte) (string, string) {
	m := mimetype.Detect(data)
	return m.String(), m.Extension()
}
