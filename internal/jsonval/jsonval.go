// Package jsonval decodes and encodes untyped JSON documents.
//
// Catalogue records have no fixed schema: the shape of a test payload depends
// on its collection discriminator. Values are therefore kept in their generic
// form: Object, Array, string, bool, nil and jx.Num for numbers. Numbers keep
// their original text so identifiers and measurements survive a round-trip
// unchanged.
package jsonval

import (
	"maps"
	"slices"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
)

// Object is a decoded JSON object.
type Object = map[string]any

// Array is a decoded JSON array.
type Array = []any

// Decode reads the next JSON value from d.
func Decode(d *jx.Decoder) (any, error) {
	switch tt := d.Next(); tt {
	case jx.String:
		s, err := d.Str()
		if err != nil {
			return nil, errors.Wrap(err, "string")
		}
		return s, nil
	case jx.Number:
		n, err := d.Num()
		if err != nil {
			return nil, errors.Wrap(err, "number")
		}
		// Num may reference the decoder buffer.
		return append(jx.Num(nil), n...), nil
	case jx.Bool:
		b, err := d.Bool()
		if err != nil {
			return nil, errors.Wrap(err, "bool")
		}
		return b, nil
	case jx.Null:
		if err := d.Null(); err != nil {
			return nil, errors.Wrap(err, "null")
		}
		return nil, nil
	case jx.Array:
		arr := Array{}
		if err := d.Arr(func(d *jx.Decoder) error {
			v, err := Decode(d)
			if err != nil {
				return err
			}
			arr = append(arr, v)
			return nil
		}); err != nil {
			return nil, errors.Wrap(err, "array")
		}
		return arr, nil
	case jx.Object:
		obj := Object{}
		if err := d.Obj(func(d *jx.Decoder, key string) error {
			v, err := Decode(d)
			if err != nil {
				return errors.Wrapf(err, "field %q", key)
			}
			obj[key] = v
			return nil
		}); err != nil {
			return nil, errors.Wrap(err, "object")
		}
		return obj, nil
	default:
		if err := d.Skip(); err != nil {
			return nil, err
		}
		return nil, errors.Errorf("unexpected json type %v", tt)
	}
}

// DecodeBytes decodes a complete JSON document.
func DecodeBytes(data []byte) (any, error) {
	if len(data) == 0 {
		return nil, errors.New("empty document")
	}
	d := jx.DecodeBytes(data)
	v, err := Decode(d)
	if err != nil {
		return nil, err
	}
	if d.Next() != jx.Invalid {
		return nil, errors.New("unexpected data after top-level value")
	}
	return v, nil
}

// Encode writes v to e. Object keys are written in sorted order.
func Encode(e *jx.Encoder, v any) error {
	switch v := v.(type) {
	case nil:
		e.Null()
	case string:
		e.Str(v)
	case bool:
		e.Bool(v)
	case jx.Num:
		e.Num(v)
	case float64:
		e.Float64(v)
	case int:
		e.Int(v)
	case int64:
		e.Int64(v)
	case Object:
		if len(v) == 0 {
			e.Raw([]byte("{}"))
			break
		}
		e.ObjStart()
		for _, k := range slices.Sorted(maps.Keys(v)) {
			e.FieldStart(k)
			if err := Encode(e, v[k]); err != nil {
				return errors.Wrapf(err, "field %q", k)
			}
		}
		e.ObjEnd()
	case Array:
		if len(v) == 0 {
			e.Raw([]byte("[]"))
			break
		}
		e.ArrStart()
		for i, elem := range v {
			if err := Encode(e, elem); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		e.ArrEnd()
	case []Object:
		if len(v) == 0 {
			e.Raw([]byte("[]"))
			break
		}
		e.ArrStart()
		for i, elem := range v {
			if err := Encode(e, elem); err != nil {
				return errors.Wrapf(err, "index %d", i)
			}
		}
		e.ArrEnd()
	default:
		return errors.Errorf("unsupported type %T", v)
	}
	return nil
}

// MarshalIndent encodes v with the given indentation step.
func MarshalIndent(v any, indent int) ([]byte, error) {
	e := &jx.Encoder{}
	e.SetIdent(indent)
	if err := Encode(e, v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}

// AsObject reports whether v is a JSON object.
func AsObject(v any) (Object, bool) {
	obj, ok := v.(Object)
	return obj, ok
}

// AsArray reports whether v is a JSON array. A nil value is an empty array.
func AsArray(v any) (Array, bool) {
	if v == nil {
		return nil, true
	}
	arr, ok := v.(Array)
	return arr, ok
}

// Text returns the textual form of a string or number value.
func Text(v any) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case jx.Num:
		return string(v), true
	default:
		return "", false
	}
}

// Marshal encodes v without indentation.
func Marshal(v any) ([]byte, error) {
	e := &jx.Encoder{}
	if err := Encode(e, v); err != nil {
		return nil, err
	}
	return e.Bytes(), nil
}
