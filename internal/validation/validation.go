// Package validation holds the field-level failure type shared by every
// record pipeline, plus the explicit mode that gates kind-specific rules.
package validation

import (
	"fmt"
	"strings"
)

// Mode selects which rules run. Base invariants run in every mode; kind
// presence/format rules run only while Validating.
type Mode int

const (
	Draft Mode = iota
	Validating
)

func (m Mode) String() string {
	if m == Validating {
		return "validate"
	}
	return "draft"
}

// ParseMode accepts "draft" and "validate"; empty means Validating.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "validate", "validating":
		return Validating, nil
	case "draft":
		return Draft, nil
	}
	return Draft, fmt.Errorf("invalid mode %q (want draft or validate)", s)
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// FieldErrors collects every failure of a pipeline run in the order found.
type FieldErrors []FieldError

func (fe *FieldErrors) Add(field, message string) {
	*fe = append(*fe, FieldError{Field: field, Message: message})
}

func (fe *FieldErrors) Merge(other FieldErrors) {
	*fe = append(*fe, other...)
}

func (fe FieldErrors) Has(field string) bool {
	for _, e := range fe {
		if e.Field == field {
			return true
		}
	}
	return false
}

// Messages returns the messages recorded for field.
func (fe FieldErrors) Messages(field string) []string {
	var out []string
	for _, e := range fe {
		if e.Field == field {
			out = append(out, e.Message)
		}
	}
	return out
}

// ByField groups messages by field path for rendering.
func (fe FieldErrors) ByField() map[string][]string {
	out := make(map[string][]string, len(fe))
	for _, e := range fe {
		out[e.Field] = append(out[e.Field], e.Message)
	}
	return out
}

func (fe FieldErrors) Error() string {
	parts := make([]string, 0, len(fe))
	for _, e := range fe {
		parts = append(parts, e.Field+" "+e.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Err returns fe as an error, or nil when empty.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// Changeset is the outcome of running a pipeline without persisting.
type Changeset[T any] struct {
	Record T           `json:"record"`
	Errors FieldErrors `json:"errors"`
	Mode   Mode        `json:"-"`
}

func (c Changeset[T]) Valid() bool { return len(c.Errors) == 0 }
