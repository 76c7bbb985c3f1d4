package binder

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	timeType = reflect.TypeFor[time.Time]()
	uuidType = reflect.TypeFor[uuid.UUID]()
)

func bindToStruct(v any, tag string, values map[string][]string, sentinel error) error {
	rv, err := structValue(v)
	if err != nil {
		return fmt.Errorf("%w: %v", sentinel, err)
	}

	rt := rv.Type()
	for i := range rv.NumField() {
		field := rv.Field(i)
		fieldType := rt.Field(i)
		if !field.CanSet() {
			continue
		}
		name, skip := parseFieldTag(fieldType, tag)
		if skip {
			continue
		}
		vals, ok := values[name]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := setFieldValue(field, fieldType.Type, vals); err != nil {
			return fmt.Errorf("%w: %s: %v", sentinel, name, err)
		}
	}
	return nil
}

// parseFieldTag returns the parameter name for field under tag. Untagged
// fields use the lower-cased field name; "-" skips the field.
func parseFieldTag(field reflect.StructField, tag string) (string, bool) {
	value := field.Tag.Get(tag)
	if value == "-" {
		return "", true
	}
	name, _, _ := strings.Cut(value, ",")
	if name == "" {
		name = strings.ToLower(field.Name)
	}
	return name, false
}

func setFieldValue(field reflect.Value, typ reflect.Type, vals []string) error {
	if typ.Kind() == reflect.Pointer {
		ptr := reflect.New(typ.Elem())
		if err := setFieldValue(ptr.Elem(), typ.Elem(), vals); err != nil {
			return err
		}
		field.Set(ptr)
		return nil
	}

	if typ.Kind() == reflect.Slice {
		var items []string
		for _, v := range vals {
			for part := range strings.SplitSeq(v, ",") {
				if part = strings.TrimSpace(part); part != "" {
					items = append(items, part)
				}
			}
		}
		slice := reflect.MakeSlice(typ, len(items), len(items))
		for i, item := range items {
			if err := setScalar(slice.Index(i), typ.Elem(), item); err != nil {
				return err
			}
		}
		field.Set(slice)
		return nil
	}

	return setScalar(field, typ, vals[0])
}

func setScalar(field reflect.Value, typ reflect.Type, s string) error {
	switch typ {
	case timeType:
		t, err := parseTime(s)
		if err != nil {
			return err
		}
		field.Set(reflect.ValueOf(t))
		return nil
	case uuidType:
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("invalid uuid %q", s)
		}
		field.Set(reflect.ValueOf(id))
		return nil
	}

	switch typ.Kind() {
	case reflect.String:
		field.SetString(s)
	case reflect.Bool:
		b, err := strconv.ParseBool(s)
		if err != nil {
			return fmt.Errorf("invalid boolean %q", s)
		}
		field.SetBool(b)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(s, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid integer %q", s)
		}
		field.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(s, 10, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid unsigned integer %q", s)
		}
		field.SetUint(n)
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(s, typ.Bits())
		if err != nil {
			return fmt.Errorf("invalid number %q", s)
		}
		field.SetFloat(f)
	default:
		return fmt.Errorf("unsupported type %s", typ)
	}
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("invalid time %q, use RFC 3339 or YYYY-MM-DD", s)
}
