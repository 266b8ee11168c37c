package icydb

import (
	"encoding/binary"
	"fmt"
)

// StorageKeyKind enumerates the Value kinds eligible to serve as a primary
// key (spec §3: "at minimum unsigned/signed integers, timestamps, ulid-like
// identifiers, principals/accounts, text up to a declared cap, and unit").
type StorageKeyKind uint8

const (
	StorageKeyUint StorageKeyKind = iota
	StorageKeyInt
	StorageKeyTimestamp
	StorageKeyUlid
	StorageKeyPrincipal
	StorageKeyAccount
	StorageKeyText
	StorageKeyUnit
)

// storageKeyTag is the leading byte of every encoded StorageKey, disjoint
// from StorageKeyKind so that on-disk tags stay stable even if the Go enum
// above is reordered.
var storageKeyTag = map[StorageKeyKind]byte{
	StorageKeyUint:      1,
	StorageKeyInt:       2,
	StorageKeyTimestamp: 3,
	StorageKeyUlid:      4,
	StorageKeyPrincipal: 5,
	StorageKeyAccount:   6,
	StorageKeyText:      7,
	StorageKeyUnit:      8,
}

// TextKeyCap is the maximum byte length of a Text value usable as a
// StorageKeyText; longer text must be rejected at the EntityModel boundary,
// never silently truncated.
const TextKeyCap = 64

// EncodedWidth returns the fixed on-disk byte width (including the tag
// byte) of a StorageKey of the given kind. Entities declare one
// StorageKeyKind for their primary key, so every StorageKey belonging to a
// given entity encodes to exactly this width.
func (k StorageKeyKind) EncodedWidth() int {
	switch k {
	case StorageKeyUint, StorageKeyInt, StorageKeyTimestamp:
		return 1 + 8
	case StorageKeyUlid:
		return 1 + 16
	case StorageKeyPrincipal:
		return 1 + 1 + PrincipalMaxBytes
	case StorageKeyAccount:
		return 1 + (1 + PrincipalMaxBytes) + 32
	case StorageKeyText:
		return 1 + 1 + TextKeyCap
	case StorageKeyUnit:
		return 1
	default:
		return 0
	}
}

// StorageKeyKindOf returns the StorageKeyKind of v, and false if v is not eligible to
// be a storage key at all (e.g. Bool, Blob, List).
func StorageKeyKindOf(v Value) (StorageKeyKind, bool) {
	switch v.(type) {
	case Uint:
		return StorageKeyUint, true
	case Int:
		return StorageKeyInt, true
	case Timestamp:
		return StorageKeyTimestamp, true
	case Ulid:
		return StorageKeyUlid, true
	case Principal:
		return StorageKeyPrincipal, true
	case Account:
		return StorageKeyAccount, true
	case Text:
		return StorageKeyText, true
	case Unit:
		return StorageKeyUnit, true
	default:
		return 0, false
	}
}

// EncodeStorageKey renders v into its fixed-width, order-preserving byte
// encoding. The byte order of the encoding matches CanonicalCompare exactly
// for values of the same kind, which is the property the planner's
// KeyRange/IndexRange access paths depend on.
func EncodeStorageKey(v Value) ([]byte, error) {
	kind, ok := StorageKeyKindOf(v)
	if !ok {
		return nil, fmt.Errorf("icydb: %s is not storage-key compatible", v.Kind())
	}
	buf := make([]byte, kind.EncodedWidth())
	buf[0] = storageKeyTag[kind]
	switch typed := v.(type) {
	case Uint:
		binary.BigEndian.PutUint64(buf[1:], uint64(typed))
	case Int:
		binary.BigEndian.PutUint64(buf[1:], orderPreservingInt64(int64(typed)))
	case Timestamp:
		binary.BigEndian.PutUint64(buf[1:], orderPreservingInt64(int64(typed)))
	case Ulid:
		copy(buf[1:], typed[:])
	case Principal:
		if len(typed) > PrincipalMaxBytes {
			return nil, fmt.Errorf("icydb: principal exceeds %d bytes", PrincipalMaxBytes)
		}
		buf[1] = byte(len(typed))
		copy(buf[2:], typed)
	case Account:
		if len(typed.Owner) > PrincipalMaxBytes {
			return nil, fmt.Errorf("icydb: account owner exceeds %d bytes", PrincipalMaxBytes)
		}
		buf[1] = byte(len(typed.Owner))
		copy(buf[2:2+PrincipalMaxBytes], typed.Owner)
		copy(buf[2+PrincipalMaxBytes:], typed.Subaccount[:])
	case Text:
		raw := []byte(typed)
		if len(raw) > TextKeyCap {
			return nil, fmt.Errorf("icydb: text key exceeds %d bytes", TextKeyCap)
		}
		buf[1] = byte(len(raw))
		copy(buf[2:], raw)
	case Unit:
		// tag byte only
	}
	return buf, nil
}

// orderPreservingInt64 flips the sign bit so that big-endian byte order on
// the result matches signed numeric order.
func orderPreservingInt64(v int64) uint64 {
	return uint64(v) ^ (1 << 63)
}

func orderPreservingInt64Decode(u uint64) int64 {
	return int64(u ^ (1 << 63))
}

// DecodeStorageKey parses a fixed-width encoding produced by
// EncodeStorageKey back into a Value. kind must match the kind used to
// encode buf; callers (typically EntityModel-aware code) always know it in
// advance because it is fixed per entity.
func DecodeStorageKey(kind StorageKeyKind, buf []byte) (Value, error) {
	want := kind.EncodedWidth()
	if len(buf) != want {
		return nil, fmt.Errorf("icydb: storage key length %d, want %d", len(buf), want)
	}
	if buf[0] != storageKeyTag[kind] {
		return nil, fmt.Errorf("icydb: storage key tag mismatch")
	}
	switch kind {
	case StorageKeyUint:
		return Uint(binary.BigEndian.Uint64(buf[1:])), nil
	case StorageKeyInt:
		return Int(orderPreservingInt64Decode(binary.BigEndian.Uint64(buf[1:]))), nil
	case StorageKeyTimestamp:
		return Timestamp(orderPreservingInt64Decode(binary.BigEndian.Uint64(buf[1:]))), nil
	case StorageKeyUlid:
		var u Ulid
		copy(u[:], buf[1:])
		return u, nil
	case StorageKeyPrincipal:
		n := int(buf[1])
		if n > PrincipalMaxBytes {
			return nil, fmt.Errorf("icydb: corrupt principal key length %d", n)
		}
		p := make(Principal, n)
		copy(p, buf[2:2+n])
		return p, nil
	case StorageKeyAccount:
		n := int(buf[1])
		if n > PrincipalMaxBytes {
			return nil, fmt.Errorf("icydb: corrupt account owner length %d", n)
		}
		owner := make(Principal, n)
		copy(owner, buf[2:2+n])
		var sub [32]byte
		copy(sub[:], buf[2+PrincipalMaxBytes:])
		return Account{Owner: owner, Subaccount: sub}, nil
	case StorageKeyText:
		n := int(buf[1])
		if n > TextKeyCap {
			return nil, fmt.Errorf("icydb: corrupt text key length %d", n)
		}
		return Text(buf[2 : 2+n]), nil
	case StorageKeyUnit:
		return Unit{}, nil
	default:
		return nil, fmt.Errorf("icydb: unknown storage key kind %d", kind)
	}
}

// EntityNameCap bounds the byte length of an EntityModel name embedded in
// a DataKey.
const EntityNameCap = 31

// DataKey is the fixed on-disk key of a record: an entity name tag
// followed by that entity's StorageKey encoding (spec §3: "S_data =
// S_entity + S_key").
type DataKey struct {
	Entity string
	Key    Value
}

// Encode renders a DataKey to its fixed-width byte form. keyKind must be
// the entity's declared primary-key StorageKeyKind.
func (dk DataKey) Encode(keyKind StorageKeyKind) ([]byte, error) {
	if len(dk.Entity) > EntityNameCap {
		return nil, fmt.Errorf("icydb: entity name %q exceeds %d bytes", dk.Entity, EntityNameCap)
	}
	keyBytes, err := EncodeStorageKey(dk.Key)
	if err != nil {
		return nil, err
	}
	want, ok := StorageKeyKindOf(dk.Key)
	if !ok || want != keyKind {
		return nil, fmt.Errorf("icydb: data key value kind does not match declared key kind")
	}
	out := make([]byte, 1+EntityNameCap+len(keyBytes))
	out[0] = byte(len(dk.Entity))
	copy(out[1:], []byte(dk.Entity))
	copy(out[1+EntityNameCap:], keyBytes)
	return out, nil
}

// DecodeDataKey parses a DataKey encoded with the given entity key kind.
func DecodeDataKey(keyKind StorageKeyKind, buf []byte) (DataKey, error) {
	want := 1 + EntityNameCap + keyKind.EncodedWidth()
	if len(buf) != want {
		return DataKey{}, fmt.Errorf("icydb: data key length %d, want %d", len(buf), want)
	}
	n := int(buf[0])
	if n > EntityNameCap {
		return DataKey{}, fmt.Errorf("icydb: corrupt entity name length %d", n)
	}
	entity := string(buf[1 : 1+n])
	key, err := DecodeStorageKey(keyKind, buf[1+EntityNameCap:])
	if err != nil {
		return DataKey{}, err
	}
	return DataKey{Entity: entity, Key: key}, nil
}
