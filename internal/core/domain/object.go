package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// Object is an ordered set of named JSON values. Field order is the order in
// which fields were first set or decoded, and is preserved when encoding.
//
// Values are string, json.Number, int64, float64, bool, nil, []any or *Object.
// A nil *Object reads as empty; only Set needs a non-nil receiver.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty Object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Len returns the number of fields.
func (o *Object) Len() int {
	if o == nil {
		return 0
	}
	return len(o.keys)
}

// FieldNames returns field names in order.
func (o *Object) FieldNames() []string {
	if o == nil {
		return []string{}
	}
	names := make([]string, len(o.keys))
	copy(names, o.keys)
	return names
}

// Has reports whether the named field exists.
func (o *Object) Has(name string) bool {
	_, ok := o.Get(name)
	return ok
}

// Get returns the raw value of a field.
func (o *Object) Get(name string) (any, bool) {
	if o == nil {
		return nil, false
	}
	v, ok := o.values[name]
	return v, ok
}

// Set stores a value, keeping the field's original position if it exists.
func (o *Object) Set(name string, value any) {
	if o.values == nil {
		o.values = make(map[string]any)
	}
	if _, ok := o.values[name]; !ok {
		o.keys = append(o.keys, name)
	}
	o.values[name] = value
}

// Remove deletes a field. Removing a missing field is a no-op.
func (o *Object) Remove(name string) {
	if !o.Has(name) {
		return
	}
	delete(o.values, name)
	for i, k := range o.keys {
		if k == name {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
}

// GetString returns a string field.
func (o *Object) GetString(name string) (string, bool) {
	v, _ := o.Get(name)
	s, ok := v.(string)
	return s, ok
}

// SetString stores a string field.
func (o *Object) SetString(name, value string) {
	o.Set(name, value)
}

// GetInt returns an integral numeric field.
func (o *Object) GetInt(name string) (int64, bool) {
	raw, _ := o.Get(name)
	switch v := raw.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		if v == float64(int64(v)) {
			return int64(v), true
		}
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// SetInt stores an integer field.
func (o *Object) SetInt(name string, value int64) {
	o.Set(name, value)
}

// GetFloat returns a numeric field as float64.
func (o *Object) GetFloat(name string) (float64, bool) {
	raw, _ := o.Get(name)
	switch v := raw.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return f, true
		}
	}
	return 0, false
}

// SetFloat stores a floating point field.
func (o *Object) SetFloat(name string, value float64) {
	o.Set(name, value)
}

// GetBool returns a boolean field.
func (o *Object) GetBool(name string) (bool, bool) {
	v, _ := o.Get(name)
	b, ok := v.(bool)
	return b, ok
}

// SetBool stores a boolean field.
func (o *Object) SetBool(name string, value bool) {
	o.Set(name, value)
}

// GetArray returns an array field. The slice is shared with the object.
func (o *Object) GetArray(name string) ([]any, bool) {
	v, _ := o.Get(name)
	a, ok := v.([]any)
	return a, ok
}

// SetArray stores an array field.
func (o *Object) SetArray(name string, value []any) {
	o.Set(name, value)
}

// GetObject returns a nested object field. The object is shared, so
// mutations through it are visible in the parent.
func (o *Object) GetObject(name string) (*Object, bool) {
	v, _ := o.Get(name)
	n, ok := v.(*Object)
	return n, ok
}

// SetObject stores a nested object field.
func (o *Object) SetObject(name string, value *Object) {
	o.Set(name, value)
}

// Clone returns a deep copy.
func (o *Object) Clone() *Object {
	if o == nil {
		return NewObject()
	}
	c := &Object{
		keys:   make([]string, len(o.keys)),
		values: make(map[string]any, len(o.values)),
	}
	copy(c.keys, o.keys)
	for k, v := range o.values {
		c.values[k] = cloneValue(v)
	}
	return c
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case *Object:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = cloneValue(t[i])
		}
		return out
	default:
		return v
	}
}

// MarshalJSON encodes fields in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := o.writeJSON(&buf, nil); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeJSON encodes the object, emitting the given leading members first.
func (o *Object) writeJSON(buf *bytes.Buffer, leading [][2]string) error {
	buf.WriteByte('{')
	first := true
	writeKey := func(k string) error {
		if !first {
			buf.WriteByte(',')
		}
		first = false
		kb, err := json.Marshal(k)
		if err != nil {
			return err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		return nil
	}
	for _, kv := range leading {
		if err := writeKey(kv[0]); err != nil {
			return err
		}
		vb, err := json.Marshal(kv[1])
		if err != nil {
			return err
		}
		buf.Write(vb)
	}
	for _, k := range o.FieldNames() {
		if err := writeKey(k); err != nil {
			return err
		}
		vb, err := json.Marshal(o.values[k])
		if err != nil {
			return fmt.Errorf("field %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return nil
}

// UnmarshalJSON decodes an object, preserving member order.
func (o *Object) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return errors.New("expected JSON object")
	}
	parsed, err := decodeObject(dec)
	if err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON object")
	}
	*o = *parsed
	return nil
}

// decodeObject reads members until the closing brace. The opening
// brace must already have been consumed.
func decodeObject(dec *json.Decoder) (*Object, error) {
	obj := NewObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		obj.Set(key, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.ErrUnexpectedEOF
		}
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			return decodeObject(dec)
		case '[':
			arr := []any{}
			for dec.More() {
				v, err := decodeValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, v)
			}
			if _, err := dec.Token(); err != nil {
				return nil, err
			}
			return arr, nil
		default:
			return nil, fmt.Errorf("unexpected delimiter %v", t)
		}
	default:
		return t, nil
	}
}
