// Package schema derives a JSON Schema description of an icydb.EntityModel
// and validates decoded-but-not-yet-typed JSON payloads against it before
// they are handed to a RowDecoder. It sits outside the icydb root package
// deliberately: schema validation of the wire representation a caller's
// write-path receives is an external, optional concern (spec §4.6), not
// something the query kernel itself needs to run a query.
//
// Grounded on the teacher's internal/transformer.go JSON-validation path:
// marshal a schema description to a jsonschema.Schema, Resolve it, then
// Validate the candidate document.
package schema

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	icydb "github.com/dragginzgame/icydb-sub005"
)

// jsonType maps an icydb.Kind to the JSON Schema primitive type(s) a
// caller's encoded document may use to represent it. Composite/opaque
// kinds (Blob, Ulid, Principal, Account, Enum) are represented as strings
// on the wire (base64/canonical text).
func jsonType(k icydb.Kind, nullable bool) []string {
	var t string
	switch k {
	case icydb.KindBool:
		t = "boolean"
	case icydb.KindUint, icydb.KindInt, icydb.KindTimestamp:
		t = "integer"
	case icydb.KindDecimal:
		t = "number"
	case icydb.KindText, icydb.KindBlob, icydb.KindUlid, icydb.KindPrincipal,
		icydb.KindAccount, icydb.KindEnum:
		t = "string"
	case icydb.KindList, icydb.KindSet:
		t = "array"
	case icydb.KindMap:
		t = "object"
	default:
		t = "null"
	}
	if nullable {
		return []string{t, "null"}
	}
	return []string{t}
}

// Build derives a draft-2020-12 JSON Schema document describing m's
// declared fields: every FieldDecl becomes a typed property, and every
// field is required (icydb.Row has no notion of "optional but present
// with a default"; a field is either declared or it is not part of the
// entity at all).
func Build(m icydb.EntityModel) map[string]any {
	props := make(map[string]any, len(m.Fields))
	required := make([]string, 0, len(m.Fields))
	for name, decl := range m.Fields {
		props[name] = map[string]any{
			"type": jsonType(decl.Kind.Kind, decl.Kind.Nullable),
		}
		required = append(required, name)
	}
	return map[string]any{
		"$schema":              "https://json-schema.org/draft/2020-12/schema",
		"title":                m.Name,
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": true,
	}
}

// Validator holds the marshaled JSON Schema bytes for one EntityModel,
// re-resolved on every ValidateJSON call (matching the teacher's
// transformer.go validation path, which resolves per document rather than
// caching a *jsonschema.Resolved across calls).
type Validator struct {
	model      icydb.EntityModel
	schemaJSON []byte
}

// NewValidator derives m's JSON Schema document and marshals it once.
func NewValidator(m icydb.EntityModel) (*Validator, error) {
	raw, err := json.Marshal(Build(m))
	if err != nil {
		return nil, fmt.Errorf("icydb/schema: marshal schema for %q: %w", m.Name, err)
	}
	return &Validator{model: m, schemaJSON: raw}, nil
}

// ValidateJSON checks that raw (a caller-supplied JSON document, typically
// the pre-decode write-path payload for m.Name) satisfies the entity's
// derived shape. It does not decode raw into a Row; that remains the
// RowDecoder's job.
func (v *Validator) ValidateJSON(raw []byte) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("icydb/schema: invalid JSON for entity %q: %w", v.model.Name, err)
	}

	var s jsonschema.Schema
	if err := json.Unmarshal(v.schemaJSON, &s); err != nil {
		return fmt.Errorf("icydb/schema: unmarshal schema for %q: %w", v.model.Name, err)
	}
	resolved, err := s.Resolve(&jsonschema.ResolveOptions{})
	if err != nil {
		return fmt.Errorf("icydb/schema: resolve schema for %q: %w", v.model.Name, err)
	}
	if err := resolved.Validate(doc); err != nil {
		return fmt.Errorf("icydb/schema: %q failed schema validation: %w", v.model.Name, err)
	}
	return nil
}
