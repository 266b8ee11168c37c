package icydb

import (
	"fmt"
	"strings"
)

// Kind identifies the variant carried by a Value. Kind also fixes the
// variant's rank in the canonical total order: values of different kinds
// compare by rank first, values of the same kind compare by their own
// variant-specific rule.
type Kind uint8

// Variant ranks, in the order spec.md §3 lists them. The numeric values are
// part of the canonical ordering contract and must never be reassigned once
// persisted data depends on them.
const (
	KindNull Kind = iota
	KindUnit
	KindBool
	KindUint
	KindInt
	KindTimestamp
	KindDecimal
	KindText
	KindBlob
	KindUlid
	KindPrincipal
	KindAccount
	KindEnum
	KindList
	KindSet
	KindMap
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindUnit:
		return "unit"
	case KindBool:
		return "bool"
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindTimestamp:
		return "timestamp"
	case KindDecimal:
		return "decimal"
	case KindText:
		return "text"
	case KindBlob:
		return "blob"
	case KindUlid:
		return "ulid"
	case KindPrincipal:
		return "principal"
	case KindAccount:
		return "account"
	case KindEnum:
		return "enum"
	case KindList:
		return "list"
	case KindSet:
		return "set"
	case KindMap:
		return "map"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// CoercionFamily groups kinds for predicate coercion routing
// (normalize.go's operand checks consult this, never the raw Kind).
type CoercionFamily uint8

const (
	FamilyOpaque CoercionFamily = iota
	FamilyNumeric
	FamilyTextual
)

// Value is the tagged union at the core of IcyDB's data model. Concrete
// variants are plain Go types implementing this interface; dispatch is by
// type switch, never by embedding or interface composition.
type Value interface {
	Kind() Kind
}

// Null represents the absence of a value, distinct from Unit and from a
// missing field (IsMissing in the predicate AST).
type Null struct{}

func (Null) Kind() Kind { return KindNull }

// Unit is the single-inhabitant type, used for marker fields.
type Unit struct{}

func (Unit) Kind() Kind { return KindUnit }

// Bool is a boolean scalar. Not storage-key compatible.
type Bool bool

func (Bool) Kind() Kind { return KindBool }

// Uint is an unsigned 64-bit integer.
type Uint uint64

func (Uint) Kind() Kind           { return KindUint }
func (Uint) Family() CoercionFamily { return FamilyNumeric }

// Int is a signed 64-bit integer.
type Int int64

func (Int) Kind() Kind             { return KindInt }
func (Int) Family() CoercionFamily { return FamilyNumeric }

// Timestamp is nanoseconds since the Unix epoch.
type Timestamp int64

func (Timestamp) Kind() Kind { return KindTimestamp }

// Decimal is a fixed-point decimal, Coef * 10^-Scale. Distinct Decimal
// subtypes (differing Scale) are never collapsed by NumericWiden at storage
// or ordering time (spec.md §9).
type Decimal struct {
	Coef  int64
	Scale int32
}

func (Decimal) Kind() Kind             { return KindDecimal }
func (Decimal) Family() CoercionFamily { return FamilyNumeric }

// AsFloat64 returns an approximate float64 view, used only for comparison
// against other numeric families under NumericWiden.
func (d Decimal) AsFloat64() float64 {
	v := float64(d.Coef)
	for i := int32(0); i < d.Scale; i++ {
		v /= 10
	}
	for i := int32(0); i > d.Scale; i-- {
		v *= 10
	}
	return v
}

// Text is a UTF-8 string scalar, storage-key compatible up to a fixed byte
// cap (see storagekey.go).
type Text string

func (Text) Kind() Kind             { return KindText }
func (Text) Family() CoercionFamily { return FamilyTextual }

// Blob is an opaque byte string.
type Blob []byte

func (Blob) Kind() Kind { return KindBlob }

// Ulid is a ulid-like 128-bit identifier, storage-key compatible.
type Ulid [16]byte

func (Ulid) Kind() Kind { return KindUlid }

// Principal is a bounded-size identifier (e.g. a canister/account
// principal), storage-key compatible up to PrincipalMaxBytes.
type Principal []byte

func (Principal) Kind() Kind { return KindPrincipal }

// PrincipalMaxBytes bounds the Principal byte length accepted by the fixed
// storage-key encoding.
const PrincipalMaxBytes = 29

// Account pairs a Principal with a 32-byte subaccount discriminator,
// storage-key compatible.
type Account struct {
	Owner      Principal
	Subaccount [32]byte
}

func (Account) Kind() Kind { return KindAccount }

// Enum carries a declared enum path, the chosen variant name, and a stable
// ordinal used for canonical ordering within the enum's declared path.
type Enum struct {
	Path    string
	Variant string
	Ordinal int32
}

func (Enum) Kind() Kind { return KindEnum }

// List preserves insertion order; equality and ordering are element-wise.
type List []Value

func (List) Kind() Kind { return KindList }

// Set is a schema-declared Set-typed value. Callers constructing a Set must
// ensure it is a strictly ascending, deduplicated sequence under canonical
// order (Canonicalize enforces this).
type Set []Value

func (Set) Kind() Kind { return KindSet }

// Canonicalize sorts and deduplicates s under canonical order, returning a
// new Set. This is the only legal way to obtain a storable Set value.
func (s Set) Canonicalize() Set {
	elems := append(Set(nil), s...)
	sortValues(elems)
	out := elems[:0]
	for i, v := range elems {
		if i > 0 && CanonicalCompare(out[len(out)-1], v) == 0 {
			continue
		}
		out = append(out, v)
	}
	return out
}

// MapEntry is one key/value pair of a Map value.
type MapEntry struct {
	Key Value
	Val Value
}

// Map is a schema-declared Map-typed value, stored with unique keys in
// canonical key order.
type Map []MapEntry

func (Map) Kind() Kind { return KindMap }

// Canonicalize sorts m by key under canonical order, keeping the last entry
// on duplicate keys (matches typical "last write wins" map construction).
func (m Map) Canonicalize() Map {
	entries := append(Map(nil), m...)
	sortMapEntries(entries)
	out := entries[:0]
	for i, e := range entries {
		if i > 0 && CanonicalCompare(out[len(out)-1].Key, e.Key) == 0 {
			out[len(out)-1] = e
			continue
		}
		out = append(out, e)
	}
	return out
}

// Family reports the CoercionFamily used to route predicate coercion. Only
// kinds relevant to the coercion table implement this; everything else is
// FamilyOpaque (compared Strict only).
func Family(v Value) CoercionFamily {
	switch typed := v.(type) {
	case Uint:
		return typed.Family()
	case Int:
		return typed.Family()
	case Decimal:
		return typed.Family()
	case Text:
		return typed.Family()
	default:
		return FamilyOpaque
	}
}

// sameVariant reports whether a and b carry the same Kind.
func sameVariant(a, b Value) bool {
	return a.Kind() == b.Kind()
}

// String renders a debug representation, used by explain output and error
// messages; never used for hashing or ordering.
func String(v Value) string {
	switch typed := v.(type) {
	case Null:
		return "null"
	case Unit:
		return "unit"
	case Bool:
		return fmt.Sprintf("%t", bool(typed))
	case Uint:
		return fmt.Sprintf("%d", uint64(typed))
	case Int:
		return fmt.Sprintf("%d", int64(typed))
	case Timestamp:
		return fmt.Sprintf("ts(%d)", int64(typed))
	case Decimal:
		return fmt.Sprintf("%d e-%d", typed.Coef, typed.Scale)
	case Text:
		return fmt.Sprintf("%q", string(typed))
	case Blob:
		return fmt.Sprintf("blob(%d bytes)", len(typed))
	case Ulid:
		return fmt.Sprintf("ulid(%x)", typed[:])
	case Principal:
		return fmt.Sprintf("principal(%x)", []byte(typed))
	case Account:
		return fmt.Sprintf("account(%x/%x)", []byte(typed.Owner), typed.Subaccount[:])
	case Enum:
		return fmt.Sprintf("%s::%s", typed.Path, typed.Variant)
	case List:
		parts := make([]string, len(typed))
		for i, e := range typed {
			parts[i] = String(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case Set:
		parts := make([]string, len(typed))
		for i, e := range typed {
			parts[i] = String(e)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case Map:
		parts := make([]string, len(typed))
		for i, e := range typed {
			parts[i] = String(e.Key) + ": " + String(e.Val)
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "?"
	}
}
