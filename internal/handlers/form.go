package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/media"
	"coaching-site-backend/internal/resource"
)

const multipartMemory = 8 << 20

// readInput builds a lifecycle input from a multipart form, an urlencoded
// form or a JSON object. Only multipart bodies can carry a file.
func readInput(c *gin.Context, desc *resource.Descriptor, maxBytes int64) (resource.Input, error) {
	in := resource.Input{Values: map[string]string{}}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)

	mediaType, _, _ := mime.ParseMediaType(c.GetHeader("Content-Type"))
	switch mediaType {
	case gin.MIMEMultipartPOSTForm:
		if err := c.Request.ParseMultipartForm(multipartMemory); err != nil {
			return in, formError(err)
		}
		for name, values := range c.Request.MultipartForm.Value {
			if len(values) > 0 {
				in.Values[name] = values[0]
			}
		}
		if desc.File != nil {
			upload, err := readUpload(c, desc.File.Field)
			if err != nil {
				return in, err
			}
			in.File = upload
		}

	case gin.MIMEPOSTForm:
		if err := c.Request.ParseForm(); err != nil {
			return in, formError(err)
		}
		for name, values := range c.Request.PostForm {
			if len(values) > 0 {
				in.Values[name] = values[0]
			}
		}

	case gin.MIMEJSON:
		values, err := decodeJSONValues(c.Request.Body)
		if err != nil {
			return in, err
		}
		in.Values = values

	case "":
		// An empty body is a valid patch with no changes.
		if c.Request.ContentLength > 0 {
			return in, apperr.Validation("missing Content-Type")
		}

	default:
		return in, apperr.Validation("unsupported Content-Type %q", mediaType)
	}
	return in, nil
}

func readUpload(c *gin.Context, field string) (*media.Upload, error) {
	header, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, formError(err)
	}

	f, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open upload: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	return &media.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, nil
}

// decodeJSONValues flattens a JSON object into raw field values. Numbers
// and booleans keep their literal text; null clears the field.
func decodeJSONValues(r io.Reader) (map[string]string, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, formError(err)
	}
	values := map[string]string{}
	if len(bytes.TrimSpace(body)) == 0 {
		return values, nil
	}

	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, apperr.Validation("invalid JSON body: %v", err)
	}

	for name, v := range raw {
		switch val := v.(type) {
		case nil:
			values[name] = ""
		case string:
			values[name] = val
		case json.Number:
			values[name] = val.String()
		case bool:
			values[name] = strconv.FormatBool(val)
		default:
			return nil, apperr.Validation("%s: must be a string, number or boolean", name)
		}
	}
	return values, nil
}

func formError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperr.Validation("invalid form body: %v", err)
}
