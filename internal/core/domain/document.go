package domain

import (
	"bytes"
	"encoding/json"
	"errors"
)

// Reserved member names carrying the document ref on the wire.
const (
	FieldID       = "_id"
	FieldRevision = "_rev"
)

// Document is a revisioned JSON document. It owns its ref and an ordered
// tree of fields that callers mutate in place through the embedded Object.
//
// A Document is not safe for concurrent mutation. Listeners and caches
// receive their own copy via Clone. The zero value is an empty document;
// its field tree is allocated on the first write.
type Document struct {
	ref DocumentRef
	*Object
}

// NewDocument returns an empty, never-persisted document.
func NewDocument() *Document {
	return &Document{Object: NewObject()}
}

// NewDocumentWithID returns an empty document with a caller-chosen ID.
func NewDocumentWithID(id string) *Document {
	d := NewDocument()
	d.ref.ID = id
	return d
}

// ParseDocument decodes a store response body into a Document.
func ParseDocument(data []byte) (*Document, error) {
	d := NewDocument()
	if err := d.UnmarshalJSON(data); err != nil {
		return nil, err
	}
	return d, nil
}

// Ref returns the document's identifier and revision.
func (d *Document) Ref() DocumentRef {
	return d.ref
}

// SetRef replaces the document's identifier and revision.
func (d *Document) SetRef(ref DocumentRef) {
	d.ref = ref
}

// ID returns the document identifier, empty if not yet assigned.
func (d *Document) ID() string {
	return d.ref.ID
}

// Revision returns the revision token, empty if never persisted.
func (d *Document) Revision() string {
	return d.ref.Revision
}

// fields returns the field tree, allocating it for a zero-value Document.
func (d *Document) fields() *Object {
	if d.Object == nil {
		d.Object = NewObject()
	}
	return d.Object
}

// Set stores a field value.
func (d *Document) Set(name string, value any) { d.fields().Set(name, value) }

// SetString stores a string field.
func (d *Document) SetString(name, value string) { d.fields().Set(name, value) }

// SetInt stores an integer field.
func (d *Document) SetInt(name string, value int64) { d.fields().Set(name, value) }

// SetFloat stores a floating point field.
func (d *Document) SetFloat(name string, value float64) { d.fields().Set(name, value) }

// SetBool stores a boolean field.
func (d *Document) SetBool(name string, value bool) { d.fields().Set(name, value) }

// SetArray stores an array field.
func (d *Document) SetArray(name string, value []any) { d.fields().Set(name, value) }

// SetObject stores a nested object field.
func (d *Document) SetObject(name string, value *Object) { d.fields().Set(name, value) }

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	return &Document{ref: d.ref, Object: d.Object.Clone()}
}

// MarshalJSON encodes the document with _id and _rev first, omitting
// whichever is empty.
func (d *Document) MarshalJSON() ([]byte, error) {
	var leading [][2]string
	if d.ref.ID != "" {
		leading = append(leading, [2]string{FieldID, d.ref.ID})
	}
	if d.ref.Revision != "" {
		leading = append(leading, [2]string{FieldRevision, d.ref.Revision})
	}
	var buf bytes.Buffer
	if err := d.Object.writeJSON(&buf, leading); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a document, lifting _id and _rev into the ref.
func (d *Document) UnmarshalJSON(data []byte) error {
	obj := NewObject()
	if err := obj.UnmarshalJSON(data); err != nil {
		return err
	}
	var ref DocumentRef
	if v, ok := obj.Get(FieldID); ok {
		id, isStr := v.(string)
		if !isStr {
			return errors.New("document _id is not a string")
		}
		ref.ID = id
		obj.Remove(FieldID)
	}
	if v, ok := obj.Get(FieldRevision); ok {
		rev, isStr := v.(string)
		if !isStr {
			return errors.New("document _rev is not a string")
		}
		ref.Revision = rev
		obj.Remove(FieldRevision)
	}
	d.ref = ref
	d.Object = obj
	return nil
}

// String returns the compact JSON encoding, or an empty string on failure.
func (d *Document) String() string {
	data, err := json.Marshal(d)
	if err != nil {
		return ""
	}
	return string(data)
}
