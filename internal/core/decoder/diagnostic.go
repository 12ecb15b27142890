package decoder

import (
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// PathError reports where in a JSON value deserialization failed.
type PathError struct {
	TypeName   string
	Path       string
	TxIndex    int
	HasTxIndex bool
	Err        error
}

func (e *PathError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Deserialization error for %s at path `%s`", e.TypeName, e.Path)
	if e.HasTxIndex {
		fmt.Fprintf(&b, " (transaction index: %d)", e.TxIndex)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	return b.String()
}

func (e *PathError) Unwrap() error { return e.Err }

var unmarshalerType = reflect.TypeOf((*json.Unmarshaler)(nil)).Elem()

// FromValue decodes a generic JSON value (as produced by parseJSON) into out,
// which must be a non-nil pointer. On failure the returned *PathError names
// the deepest field that could not be decoded.
func FromValue(value any, typeName string, out any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &PathError{TypeName: typeName, Path: ".", Err: err}
	}
	err = json.Unmarshal(data, out)
	if err == nil {
		return nil
	}

	segments, cause := locate(value, reflect.TypeOf(out).Elem(), nil)
	if cause == nil {
		cause = err
	}
	path := renderPath(segments)
	idx, ok := extractTxIndex(path)
	return &PathError{
		TypeName:   typeName,
		Path:       path,
		TxIndex:    idx,
		HasTxIndex: ok,
		Err:        cause,
	}
}

// decodeAs decodes value into a fresh instance of t.
func decodeAs(value any, t reflect.Type) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, reflect.New(t).Interface())
}

// locate returns the path to the deepest subtree of value that fails to
// decode into t, and the decode error for that subtree. A nil error means
// the subtree decodes cleanly.
func locate(value any, t reflect.Type, path []string) ([]string, error) {
	err := decodeAs(value, t)
	if err == nil {
		return nil, nil
	}

	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(unmarshalerType) {
		return path, err
	}

	switch v := value.(type) {
	case map[string]any:
		switch t.Kind() {
		case reflect.Struct:
			for i := 0; i < t.NumField(); i++ {
				f := t.Field(i)
				name, ok := jsonFieldName(f)
				if !ok {
					continue
				}
				child, present := lookupKey(v, name)
				if !present {
					continue
				}
				if p, cerr := locate(child, f.Type, append(clone(path), "."+name)); cerr != nil {
					return p, cerr
				}
			}
		case reflect.Map:
			keys := make([]string, 0, len(v))
			for k := range v {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			for _, k := range keys {
				if p, cerr := locate(v[k], t.Elem(), append(clone(path), "."+k)); cerr != nil {
					return p, cerr
				}
			}
		}
	case []any:
		if t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
			for i, elem := range v {
				seg := "[" + strconv.Itoa(i) + "]"
				if p, cerr := locate(elem, t.Elem(), append(clone(path), seg)); cerr != nil {
					return p, cerr
				}
			}
		}
	}

	return path, err
}

func jsonFieldName(f reflect.StructField) (string, bool) {
	if !f.IsExported() {
		return "", false
	}
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false
	}
	name, _, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}
	return name, true
}

// lookupKey mirrors encoding/json: exact match first, then case-insensitive.
func lookupKey(m map[string]any, name string) (any, bool) {
	if v, ok := m[name]; ok {
		return v, true
	}
	for k, v := range m {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return nil, false
}

func clone(path []string) []string {
	return append(make([]string, 0, len(path)+1), path...)
}

func renderPath(segments []string) string {
	if len(segments) == 0 {
		return "."
	}
	return strings.Join(segments, "")
}
