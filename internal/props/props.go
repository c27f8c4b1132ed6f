// Package props maps flat, kind-declared attributes onto a record's
// extension map and decodes that map into typed per-kind views.
package props

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"

	"rosterline/internal/validation"
)

const tagName = "mapstructure"

// Path is the field path used to report a failure on an extension key.
func Path(key string) string {
	return "properties." + key
}

// Project copies every declared field present in flat into a new map.
// Attributes that are not declared are dropped. Values are copied as given.
func Project(flat map[string]any, declared []string) map[string]any {
	out := make(map[string]any, len(declared))
	for _, name := range declared {
		if v, ok := flat[name]; ok {
			out[name] = v
		}
	}
	return out
}

// Merge returns base overlaid with delta. Neither input is modified.
func Merge(base, delta map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(delta))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range delta {
		out[k] = v
	}
	return out
}

// Flatten reads the declared fields back out of an extension map.
func Flatten(bag map[string]any, declared []string) map[string]any {
	return Project(bag, declared)
}

// String returns bag[key] when it holds non-blank text.
func String(bag map[string]any, key string) (string, bool) {
	s, ok := bag[key].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return "", false
	}
	return s, true
}

// Decode fills out, a pointer to a struct tagged with mapstructure keys,
// from bag. Each key that cannot be converted yields one error at
// properties.<key>; the remaining keys are still decoded.
func Decode(bag map[string]any, out any) validation.FieldErrors {
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Pointer || rv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("props: Decode target must be a pointer to struct, got %T", out))
	}
	var errs validation.FieldErrors
	sv := rv.Elem()
	st := sv.Type()
	for i := 0; i < st.NumField(); i++ {
		field := st.Field(i)
		key := strings.Split(field.Tag.Get(tagName), ",")[0]
		if key == "" || key == "-" {
			continue
		}
		raw, ok := bag[key]
		if !ok || raw == nil {
			continue
		}
		if err := decodeValue(raw, sv.Field(i).Addr().Interface()); err != nil {
			errs.Add(Path(key), expectation(field.Type))
		}
	}
	return errs
}

func decodeValue(raw, dst any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: wholeNumberHook,
		Result:     dst,
	})
	if err != nil {
		return err
	}
	return dec.Decode(raw)
}

// Encode is the inverse of Decode: it renders the non-zero fields of a
// typed view under their mapstructure keys, dereferencing pointers.
func Encode(view any) map[string]any {
	var raw map[string]any
	if err := mapstructure.Decode(view, &raw); err != nil {
		panic(fmt.Sprintf("props: Encode %T: %v", view, err))
	}
	out := make(map[string]any, len(raw))
	for key, v := range raw {
		rv := reflect.ValueOf(v)
		if v == nil || rv.IsZero() {
			continue
		}
		out[key] = reflect.Indirect(rv).Interface()
	}
	return out
}

// wholeNumberHook lets numeric fields accept numeric text, and integer
// fields accept integral floats (what JSON decoding produces).
func wholeNumberHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
	case reflect.Float32, reflect.Float64:
		if s, ok := data.(string); ok {
			f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return nil, fmt.Errorf("not a number: %q", s)
			}
			return f, nil
		}
		return data, nil
	default:
		return data, nil
	}
	switch v := data.(type) {
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("not an integer: %q", v)
		}
		return n, nil
	case json.Number:
		return v.Int64()
	case float64:
		return wholeNumber(v)
	case float32:
		return wholeNumber(float64(v))
	}
	return data, nil
}

// wholeNumber converts f when it is integral and within int64 range.
func wholeNumber(f float64) (int64, error) {
	if f != math.Trunc(f) || f < math.MinInt64 || f >= math.MaxInt64 {
		return 0, fmt.Errorf("not a whole number: %v", f)
	}
	return int64(f), nil
}

func expectation(t reflect.Type) string {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return "must be an integer"
	case reflect.Float32, reflect.Float64:
		return "must be a number"
	case reflect.Bool:
		return "must be true or false"
	case reflect.String:
		return "must be text"
	}
	return "is invalid"
}
