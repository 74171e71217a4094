package cloud

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// SanitizeExtra reduces a raw provider metadata bag to JSON-friendly values.
// Primitives pass through, collections are stringified, other objects collapse
// to their name, then their id, then their string form. A key whose value
// cannot be reduced is dropped; the rest of the bag is kept.
func SanitizeExtra(raw map[string]any) map[string]any {
	extra := make(map[string]any, len(raw))
	for key, value := range raw {
		if v, ok := sanitizeValue(value); ok {
			extra[key] = v
		}
	}
	return extra
}

func sanitizeValue(value any) (out any, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			out, ok = nil, false
		}
	}()

	switch v := value.(type) {
	case nil, string, bool,
		int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return v, true
	}

	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, true
		}
		if elem := rv.Elem(); elem.Kind() != reflect.Struct && elem.Kind() != reflect.Interface && elem.Kind() != reflect.Pointer {
			return sanitizeValue(elem.Interface())
		}
	case reflect.Slice, reflect.Array, reflect.Map:
		return stringifyCollection(value), true
	case reflect.String:
		if s, isStringer := value.(fmt.Stringer); isStringer {
			return s.String(), true
		}
		return rv.String(), true
	case reflect.Bool:
		return rv.Bool(), true
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if s, isStringer := value.(fmt.Stringer); isStringer {
			return s.String(), true
		}
		return rv.Int(), true
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint(), true
	case reflect.Float32, reflect.Float64:
		return rv.Float(), true
	case reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return nil, false
	}

	if name, found := attribute(value, "Name"); found {
		return name, true
	}
	if id, found := attribute(value, "ID", "Id"); found {
		return id, true
	}
	if s, isStringer := value.(fmt.Stringer); isStringer {
		return s.String(), true
	}
	return fmt.Sprintf("%v", value), true
}

func stringifyCollection(value any) string {
	if data, err := json.Marshal(value); err == nil {
		return string(data)
	}
	return fmt.Sprint(value)
}

// attribute looks up the first non-empty primitive field or zero-argument
// method with one of the given names.
func attribute(value any, names ...string) (any, bool) {
	rv := reflect.ValueOf(value)
	for _, name := range names {
		if m := rv.MethodByName(name); m.IsValid() && m.Type().NumIn() == 0 && m.Type().NumOut() >= 1 {
			if v, ok := primitive(m.Call(nil)[0]); ok {
				return v, true
			}
		}
	}

	elem := rv
	for elem.Kind() == reflect.Pointer || elem.Kind() == reflect.Interface {
		if elem.IsNil() {
			return nil, false
		}
		elem = elem.Elem()
	}
	if elem.Kind() != reflect.Struct {
		return nil, false
	}
	for _, name := range names {
		field, ok := elem.Type().FieldByName(name)
		if !ok || !field.IsExported() {
			continue
		}
		if v, ok := primitive(elem.FieldByIndex(field.Index)); ok {
			return v, true
		}
	}
	return nil, false
}

func primitive(v reflect.Value) (any, bool) {
	switch v.Kind() {
	case reflect.String:
		if s := v.String(); strings.TrimSpace(s) != "" {
			return s, true
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if v.Int() != 0 {
			return v.Int(), true
		}
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if v.Uint() != 0 {
			return v.Uint(), true
		}
	}
	return nil, false
}

// JoinAddresses concatenates public then private addresses, dropping empty
// entries.
func JoinAddresses(public, private []string) []string {
	ips := make([]string, 0, len(public)+len(private))
	for _, group := range [][]string{public, private} {
		for _, ip := range group {
			if ip = strings.TrimSpace(ip); ip != "" {
				ips = append(ips, ip)
			}
		}
	}
	return ips
}
