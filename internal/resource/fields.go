package resource

import (
	"errors"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"coaching-site-backend/internal/apperr"
	"coaching-site-backend/internal/media"
)

var validate = validator.New()

type parseMode int

const (
	modeCreate parseMode = iota // every field, required ones must be present
	modePatch                   // only fields present in the input
)

// parseValues turns raw input into column values. It performs no I/O.
func (d *Descriptor) parseValues(in Input, mode parseMode) (map[string]any, error) {
	values := make(map[string]any)
	var missing []string

	for _, f := range d.Fields {
		raw, present := in.Values[f.Name]
		raw = strings.TrimSpace(raw)

		if raw == "" {
			switch {
			case mode == modePatch && !present:
			case f.Required:
				missing = append(missing, f.Name)
			default:
				values[f.Column] = nil
			}
			continue
		}

		v, err := f.parse(raw)
		if err != nil {
			return nil, err
		}
		values[f.Column] = v
	}

	if d.File != nil && d.File.Required && in.File == nil && mode == modeCreate {
		missing = append(missing, d.File.Field)
	}
	if len(missing) > 0 {
		return nil, apperr.Validation("missing required fields: %s", strings.Join(missing, ", "))
	}

	if in.File != nil && d.File != nil {
		if err := media.Validate(in.File, d.File.Accept...); err != nil {
			return nil, fieldError(d.File.Field, err)
		}
	}
	return values, nil
}

func (f Field) parse(raw string) (any, error) {
	var v any
	switch f.Kind {
	case Int:
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, apperr.Validation("%s must be an integer", f.Name)
		}
		v = n
	case Decimal:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil, apperr.Validation("%s must be a number", f.Name)
		}
		v = n
	case Date:
		t, err := time.Parse(dateLayout, raw)
		if err != nil {
			return nil, apperr.Validation("%s must be a date (YYYY-MM-DD)", f.Name)
		}
		v = t.Format(dateLayout)
	default:
		v = raw
	}

	if f.Rules != "" {
		if err := validate.Var(v, f.Rules); err != nil {
			return nil, ruleError(f.Name, err)
		}
	}
	return v, nil
}

func ruleError(name string, err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperr.Validation("%s is invalid", name)
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "email":
		return apperr.Validation("%s must be a valid email address", name)
	case "min", "gte":
		return apperr.Validation("%s must be at least %s", name, fe.Param())
	case "max", "lte":
		return apperr.Validation("%s must be at most %s", name, fe.Param())
	case "len":
		return apperr.Validation("%s must have length %s", name, fe.Param())
	case "oneof":
		return apperr.Validation("%s must be one of %s", name, fe.Param())
	default:
		return apperr.Validation("%s is invalid", name)
	}
}

func fieldError(name string, err error) error {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		return apperr.Validation("%s: %s", name, ae.Message)
	}
	return apperr.Validation("%s: %v", name, err)
}

// parseFilters keeps only filterable fields with non-empty values.
func (d *Descriptor) parseFilters(raw map[string]string) (map[string]any, error) {
	filters := make(map[string]any)
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		value := strings.TrimSpace(raw[name])
		f, ok := d.Field(name)
		if !ok || !f.Filter || value == "" {
			continue
		}
		v, err := f.parse(value)
		if err != nil {
			return nil, err
		}
		filters[f.Column] = v
	}
	return filters, nil
}

// FilterNames lists the query parameters accepted by List.
func (d *Descriptor) FilterNames() []string {
	var names []string
	for _, f := range d.Fields {
		if f.Filter {
			names = append(names, f.Name)
		}
	}
	return names
}
