package wire

import (
	"fmt"
	"reflect"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// EncodeHeader marshals a typed header struct into protobuf wire bytes by
// projecting it onto a structpb.Struct. This keeps every per-operation
// header a plain Go struct (no generated .pb.go per message) while still
// putting real protobuf encoding on the wire.
func EncodeHeader(header any) ([]byte, error) {
	fields, err := toValue(reflect.ValueOf(header))
	if err != nil {
		return nil, fmt.Errorf("project header: %w", err)
	}
	m, ok := fields.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("header %T must encode to an object", header)
	}
	s, err := structpb.NewStruct(m)
	if err != nil {
		return nil, fmt.Errorf("build protobuf struct: %w", err)
	}
	return proto.Marshal(s)
}

// DecodeHeader unmarshals protobuf wire bytes produced by EncodeHeader back
// into the struct pointed to by out.
func DecodeHeader(payload []byte, out any) error {
	var s structpb.Struct
	if len(payload) > 0 {
		if err := proto.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("unmarshal protobuf struct: %w", err)
		}
	}
	rv := reflect.ValueOf(out)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be a non-nil pointer, got %T", out)
	}
	return fromValue(s.AsMap(), rv.Elem())
}

// fieldName returns the wire field name for a struct field, honoring a
// `wire:"name"` tag when present.
func fieldName(f reflect.StructField) string {
	if tag := f.Tag.Get("wire"); tag != "" {
		return tag
	}
	return f.Name
}

// toValue converts a reflect.Value into structpb-compatible primitives
// (map[string]any, []any, string, bool, float64, nil).
func toValue(v reflect.Value) (any, error) {
	if !v.IsValid() {
		return nil, nil
	}
	switch v.Kind() {
	case reflect.Ptr, reflect.Interface:
		if v.IsNil() {
			return nil, nil
		}
		return toValue(v.Elem())
	case reflect.String:
		return v.String(), nil
	case reflect.Bool:
		return v.Bool(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return v.Float(), nil
	case reflect.Slice, reflect.Array:
		out := make([]any, v.Len())
		for i := 0; i < v.Len(); i++ {
			elem, err := toValue(v.Index(i))
			if err != nil {
				return nil, err
			}
			out[i] = elem
		}
		return out, nil
	case reflect.Map:
		out := make(map[string]any, v.Len())
		iter := v.MapRange()
		for iter.Next() {
			elem, err := toValue(iter.Value())
			if err != nil {
				return nil, err
			}
			out[fmt.Sprint(iter.Key().Interface())] = elem
		}
		return out, nil
	case reflect.Struct:
		t := v.Type()
		out := make(map[string]any, t.NumField())
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue // unexported
			}
			elem, err := toValue(v.Field(i))
			if err != nil {
				return nil, err
			}
			out[fieldName(f)] = elem
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported header field kind %s", v.Kind())
	}
}

// fromValue populates dst (an addressable struct, slice, map, or scalar)
// from a structpb-decoded value tree.
func fromValue(data any, dst reflect.Value) error {
	if data == nil {
		return nil
	}
	switch dst.Kind() {
	case reflect.Ptr:
		if dst.IsNil() {
			dst.Set(reflect.New(dst.Type().Elem()))
		}
		return fromValue(data, dst.Elem())
	case reflect.String:
		s, ok := data.(string)
		if !ok {
			return fmt.Errorf("expected string, got %T", data)
		}
		dst.SetString(s)
		return nil
	case reflect.Bool:
		b, ok := data.(bool)
		if !ok {
			return fmt.Errorf("expected bool, got %T", data)
		}
		dst.SetBool(b)
		return nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		f, ok := data.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", data)
		}
		dst.SetInt(int64(f))
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f, ok := data.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", data)
		}
		dst.SetUint(uint64(f))
		return nil
	case reflect.Float32, reflect.Float64:
		f, ok := data.(float64)
		if !ok {
			return fmt.Errorf("expected number, got %T", data)
		}
		dst.SetFloat(f)
		return nil
	case reflect.Slice:
		items, ok := data.([]any)
		if !ok {
			return fmt.Errorf("expected array, got %T", data)
		}
		out := reflect.MakeSlice(dst.Type(), len(items), len(items))
		for i, item := range items {
			if err := fromValue(item, out.Index(i)); err != nil {
				return err
			}
		}
		dst.Set(out)
		return nil
	case reflect.Map:
		m, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", data)
		}
		out := reflect.MakeMapWithSize(dst.Type(), len(m))
		for k, v := range m {
			val := reflect.New(dst.Type().Elem()).Elem()
			if err := fromValue(v, val); err != nil {
				return err
			}
			out.SetMapIndex(reflect.ValueOf(k).Convert(dst.Type().Key()), val)
		}
		dst.Set(out)
		return nil
	case reflect.Struct:
		m, ok := data.(map[string]any)
		if !ok {
			return fmt.Errorf("expected object, got %T", data)
		}
		t := dst.Type()
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			if f.PkgPath != "" {
				continue
			}
			v, present := m[fieldName(f)]
			if !present {
				continue
			}
			if err := fromValue(v, dst.Field(i)); err != nil {
				return fmt.Errorf("field %s: %w", f.Name, err)
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported header field kind %s", dst.Kind())
	}
}
