// internal/app/store/docstore/document.go
package docstore

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

// Fields is the loosely-typed body of a document. BSON struct tags on
// the domain models decide field names, so the same model round-trips
// through both the Mongo and the in-memory backend.
type Fields map[string]any

// Union marks a set-union mutation on an array field: each value is
// added unless already present. Commutative, so concurrent Unions on
// the same field never conflict.
type Union struct {
	Values []string
}

// Remove marks a set-difference mutation on an array field: every
// occurrence of each value is removed. Commutative and idempotent.
type Remove struct {
	Values []string
}

// Document is a snapshot of one stored document.
type Document struct {
	Path   string
	ID     string
	Fields Fields
}

// Exists reports whether the snapshot holds data.
func (d Document) Exists() bool {
	return d.Fields != nil
}

// Decode unmarshals the document body into out using BSON tags.
func (d Document) Decode(out any) error {
	raw, err := bson.Marshal(bson.M(d.Fields))
	if err != nil {
		return fmt.Errorf("encode document %s: %w", d.Path, err)
	}
	if err := bson.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode document %s: %w", d.Path, err)
	}
	return nil
}

// FieldsOf converts a struct into Fields using its BSON tags.
func FieldsOf(v any) (Fields, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode fields: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode fields: %w", err)
	}
	return Fields(m), nil
}
