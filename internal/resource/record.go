package resource

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"coaching-site-backend/internal/database"
	"coaching-site-backend/internal/storage"
)

// Record is a resource row as returned to clients. The file URL is resolved
// from the stored key at read time.
type Record struct {
	ID        int64
	Values    map[string]any // by field name
	FileRef   string
	FileURL   string
	CreatedAt time.Time
	UpdatedAt time.Time

	desc *Descriptor
}

func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Values)+4)
	out["id"] = r.ID
	for k, v := range r.Values {
		out[k] = v
	}
	if r.desc != nil && r.desc.File != nil {
		if r.FileURL != "" {
			out[r.desc.File.URLKey] = r.FileURL
		} else {
			out[r.desc.File.URLKey] = nil
		}
	}
	if !r.CreatedAt.IsZero() {
		out["createdAt"] = r.CreatedAt
	}
	if !r.UpdatedAt.IsZero() {
		out["updatedAt"] = r.UpdatedAt
	}
	return json.Marshal(out)
}

func (d *Descriptor) record(row database.Row, fileBase string) *Record {
	rec := &Record{
		ID:        toInt64(row["id"]),
		Values:    make(map[string]any, len(d.Fields)),
		CreatedAt: toTime(row["created_at"]),
		UpdatedAt: toTime(row["updated_at"]),
		desc:      d,
	}
	for _, f := range d.Fields {
		rec.Values[f.Name] = normalize(f.Kind, row[f.Column])
	}
	if d.File != nil {
		rec.FileRef = toString(row[d.File.Column])
		rec.FileURL = storage.JoinURL(fileBase, rec.FileRef)
	}
	return rec
}

// normalize converts driver values into the JSON type of the field kind.
// Drivers disagree: lib/pq returns NUMERIC as text, SQLite returns dates as
// time.Time.
func normalize(kind Kind, v any) any {
	if v == nil {
		return nil
	}
	switch kind {
	case Int:
		return toInt64(v)
	case Decimal:
		switch n := v.(type) {
		case float64:
			return n
		case int64:
			return float64(n)
		case string:
			f, err := strconv.ParseFloat(n, 64)
			if err != nil {
				return n
			}
			return f
		}
	case Date:
		switch t := v.(type) {
		case time.Time:
			return t.Format(dateLayout)
		case string:
			if len(t) >= len(dateLayout) {
				return t[:len(dateLayout)]
			}
			return t
		}
	default:
		return toString(v)
	}
	return v
}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}

func toString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case []byte:
		return string(s)
	default:
		return fmt.Sprint(s)
	}
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05",
}

func toTime(v any) time.Time {
	switch t := v.(type) {
	case time.Time:
		return t.UTC()
	case string:
		for _, layout := range timestampLayouts {
			if parsed, err := time.Parse(layout, t); err == nil {
				return parsed.UTC()
			}
		}
	}
	return time.Time{}
}
