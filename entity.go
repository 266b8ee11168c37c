package icydb

import "fmt"

// FieldKind declares the shape a field is allowed to hold: a single Kind
// and whether Null is permitted. Only fields actually indexed constrain planning; other fields are
// advisory for validation.
type FieldKind struct {
	Kind     Kind
	Nullable bool
}

// FieldDecl is one declared field of an EntityModel.
type FieldDecl struct {
	Name string
	Kind FieldKind
}

// EntityModel declares the shape of one entity: its name, its primary key
// kind, and its fields. The model owns no data; it is a static description
// consulted by the planner, coercion layer, and the cursor/index codecs.
type EntityModel struct {
	Name       string
	PKField    string
	PrimaryKey StorageKeyKind
	Fields     map[string]FieldDecl
	Indexes    []IndexModel
}

// Field looks up a declared field by name.
func (m EntityModel) Field(name string) (FieldDecl, bool) {
	f, ok := m.Fields[name]
	return f, ok
}

// Index looks up a declared index by name.
func (m EntityModel) Index(name string) (IndexModel, bool) {
	for _, idx := range m.Indexes {
		if idx.Name == name {
			return idx, true
		}
	}
	return IndexModel{}, false
}

// Validate checks internal consistency of the model: field references in
// indexes must resolve, index field counts must respect MaxIndexFields, and
// the primary key field must be declared. The declared Kind of the primary
// key field is not checked against PrimaryKey.
func (m EntityModel) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("icydb: entity model has no name")
	}
	if len(m.Name) > EntityNameCap {
		return fmt.Errorf("icydb: entity name %q exceeds %d bytes", m.Name, EntityNameCap)
	}
	if m.PKField == "" {
		return fmt.Errorf("icydb: entity %q declares no primary key field", m.Name)
	}
	if _, ok := m.Fields[m.PKField]; !ok {
		return fmt.Errorf("icydb: entity %q primary key field %q is not declared", m.Name, m.PKField)
	}
	seen := make(map[string]bool, len(m.Indexes))
	for _, idx := range m.Indexes {
		if seen[idx.Name] {
			return fmt.Errorf("icydb: duplicate index name %q", idx.Name)
		}
		seen[idx.Name] = true
		if len(idx.Fields) == 0 {
			return fmt.Errorf("icydb: index %q declares no fields", idx.Name)
		}
		if len(idx.Fields) > MaxIndexFields {
			return fmt.Errorf("icydb: index %q declares %d fields, max is %d", idx.Name, len(idx.Fields), MaxIndexFields)
		}
		for _, fname := range idx.Fields {
			if _, ok := m.Fields[fname]; !ok {
				return fmt.Errorf("icydb: index %q references unknown field %q", idx.Name, fname)
			}
		}
	}
	return nil
}

// MaxIndexFields is the hard cap on the number of fields composing a single
// index (spec's F_max).
const MaxIndexFields = 4

// IndexModel declares one secondary index: an ordered list of field names
// and whether the index enforces uniqueness across its field tuple.
type IndexModel struct {
	Name   string
	Fields []string
	Unique bool
	// Partial, when non-nil, restricts index membership to rows for which
	// the predicate holds (spec §3 "partial index" note). Nil means the
	// index covers every row of the entity.
	Partial *Predicate
}
