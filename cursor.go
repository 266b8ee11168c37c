package icydb

import (
	"crypto/hmac"
	"crypto/sha256"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// CursorDirection is the scan direction a continuation token continues.
type CursorDirection uint8

const (
	CursorForward CursorDirection = iota
	CursorBackward
)

// CursorTokenVersion tags the wire shape of an encoded ContinuationToken.
// V1 tokens never carry a real InitialOffset (decode always forces it to
// 0); V2 tokens do. Both versions share the same signature scheme.
type CursorTokenVersion uint8

const (
	CursorTokenV1 CursorTokenVersion = 1
	CursorTokenV2 CursorTokenVersion = 2
)

// CursorBoundarySlot is one field of the ORDER BY boundary tuple a cursor
// resumes from.
type CursorBoundarySlot struct {
	Field string
	Value Value
}

// CursorBoundary is the ordered tuple of sort-key values the previous page
// ended on.
type CursorBoundary []CursorBoundarySlot

// IndexRangeCursorAnchor pins the index and range bounds an IndexRange scan
// was resolved against, so a continuation token can be rejected if the
// caller replays it against a plan that no longer matches (spec §4.3
// validation rule 4, "index_range_anchor").
type IndexRangeCursorAnchor struct {
	IndexName string
	Prefix    []Value
	Low, High Bound
}

// ContinuationToken is the caller-opaque cursor: a signature binding it to
// the query shape that produced it, the boundary it resumes from, the
// direction it continues, an initial offset (V2 only), and an optional
// index-range anchor.
//
// Grounded on original_source's db/query/contracts/cursor.rs
// (ContinuationToken{signature, boundary, direction, initial_offset,
// index_range_anchor}, ContinuationTokenWire, CursorTokenVersion).
type ContinuationToken struct {
	Version       CursorTokenVersion
	Signature     [32]byte
	PlanSignature [32]byte
	Boundary      CursorBoundary
	Direction     CursorDirection
	InitialOffset uint32
	IndexRangeAnchor *IndexRangeCursorAnchor
}

// wireToken is the CBOR-on-the-wire shape, deliberately flat so canonical
// CBOR encoding (map keys sorted, deterministic integer widths) gives a
// byte-stable token for a given logical value.
type wireToken struct {
	Version       uint8          `cbor:"v"`
	PlanSignature []byte         `cbor:"ps"`
	Boundary      []wireSlot     `cbor:"b"`
	Direction     uint8          `cbor:"d"`
	InitialOffset uint32         `cbor:"o"`
	Anchor        *wireAnchor    `cbor:"a,omitempty"`
}

type wireSlot struct {
	Field string    `cbor:"f"`
	Value wireValue `cbor:"v"`
}

type wireAnchor struct {
	IndexName string      `cbor:"i"`
	Prefix    []wireValue `cbor:"p"`
	LowValue  *wireValue  `cbor:"lv,omitempty"`
	LowIncl   bool        `cbor:"li,omitempty"`
	HighValue *wireValue  `cbor:"hv,omitempty"`
	HighIncl  bool        `cbor:"hi,omitempty"`
}

var cborEncMode = func() cbor.EncMode {
	mode, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	return mode
}()

// signPayload computes the 32-byte HMAC-SHA256 signature over the
// canonical CBOR encoding of everything in tok except the signature
// itself, keyed by secret. A process restart with a different secret
// invalidates every outstanding token (spec §4.3's "stale anchor"/
// signature-mismatch failure mode).
func signPayload(w wireToken, secret []byte) ([32]byte, error) {
	payload, err := cborEncMode.Marshal(w)
	if err != nil {
		return [32]byte{}, err
	}
	mac := hmac.New(sha256.New, secret)
	mac.Write(payload)
	var sig [32]byte
	copy(sig[:], mac.Sum(nil))
	return sig, nil
}

// Encode renders tok to its opaque wire bytes, signing it with secret.
func (tok ContinuationToken) Encode(secret []byte) ([]byte, error) {
	w, err := toWireToken(tok)
	if err != nil {
		return nil, err
	}
	sig, err := signPayload(w, secret)
	if err != nil {
		return nil, err
	}
	tok.Signature = sig
	full := struct {
		Token     wireToken `cbor:"t"`
		Signature []byte    `cbor:"s"`
	}{Token: w, Signature: sig[:]}
	return cborEncMode.Marshal(full)
}

// maxCursorTokenWireBytes is T_max's hard ceiling: DecodeContinuationToken
// refuses to even attempt a CBOR unmarshal past this size, independent of
// whatever a caller-configured CursorConfig.MaxTokenBytes says (spec §4.3:
// bounded decode is a property of the wire format itself, not a policy
// knob an operator could raise away).
const maxCursorTokenWireBytes = 8 * 1024

// DecodeContinuationToken parses and verifies wire bytes against secret,
// applying the version-specific InitialOffset rule (V1 forces 0) and
// checking the signature before returning a usable token. This is
// signature check of cursor validation; ValidateCursor performs the other
// six checks on the decoded token.
func DecodeContinuationToken(data []byte, secret []byte) (ContinuationToken, error) {
	if len(data) > maxCursorTokenWireBytes {
		return ContinuationToken{}, NewCursorPlanError(CodePageSizeOutOfRange, "cursor token exceeds the maximum wire size")
	}
	var full struct {
		Token     wireToken `cbor:"t"`
		Signature []byte    `cbor:"s"`
	}
	if err := cbor.Unmarshal(data, &full); err != nil {
		return ContinuationToken{}, NewCursorPlanError(CodeSignatureMismatch, "malformed cursor token").WithCause(err)
	}
	want, err := signPayload(full.Token, secret)
	if err != nil {
		return ContinuationToken{}, err
	}
	if !hmac.Equal(want[:], full.Signature) {
		return ContinuationToken{}, NewCursorPlanError(CodeSignatureMismatch, "cursor signature mismatch")
	}
	tok, err := fromWireToken(full.Token)
	if err != nil {
		return ContinuationToken{}, err
	}
	copy(tok.Signature[:], full.Signature)
	if tok.Version == CursorTokenV1 {
		tok.InitialOffset = 0
	}
	return tok, nil
}

func toWireToken(tok ContinuationToken) (wireToken, error) {
	w := wireToken{
		Version:       uint8(tok.Version),
		PlanSignature: append([]byte(nil), tok.PlanSignature[:]...),
		Direction:     uint8(tok.Direction),
		InitialOffset: tok.InitialOffset,
	}
	if tok.Version == CursorTokenV1 {
		w.InitialOffset = 0
	}
	for _, slot := range tok.Boundary {
		wv, err := encodeWireValue(slot.Value)
		if err != nil {
			return wireToken{}, err
		}
		w.Boundary = append(w.Boundary, wireSlot{Field: slot.Field, Value: wv})
	}
	if tok.IndexRangeAnchor != nil {
		a := tok.IndexRangeAnchor
		wa := &wireAnchor{IndexName: a.IndexName}
		for _, v := range a.Prefix {
			wv, err := encodeWireValue(v)
			if err != nil {
				return wireToken{}, err
			}
			wa.Prefix = append(wa.Prefix, wv)
		}
		if a.Low.Value != nil {
			wv, err := encodeWireValue(a.Low.Value)
			if err != nil {
				return wireToken{}, err
			}
			wa.LowValue = &wv
			wa.LowIncl = a.Low.Inclusive
		}
		if a.High.Value != nil {
			wv, err := encodeWireValue(a.High.Value)
			if err != nil {
				return wireToken{}, err
			}
			wa.HighValue = &wv
			wa.HighIncl = a.High.Inclusive
		}
		w.Anchor = wa
	}
	return w, nil
}

func fromWireToken(w wireToken) (ContinuationToken, error) {
	tok := ContinuationToken{
		Version:       CursorTokenVersion(w.Version),
		Direction:     CursorDirection(w.Direction),
		InitialOffset: w.InitialOffset,
	}
	copy(tok.PlanSignature[:], w.PlanSignature)
	for _, slot := range w.Boundary {
		v, err := decodeWireValue(slot.Value)
		if err != nil {
			return ContinuationToken{}, err
		}
		tok.Boundary = append(tok.Boundary, CursorBoundarySlot{Field: slot.Field, Value: v})
	}
	if w.Anchor != nil {
		a := &IndexRangeCursorAnchor{IndexName: w.Anchor.IndexName}
		for _, wv := range w.Anchor.Prefix {
			v, err := decodeWireValue(wv)
			if err != nil {
				return ContinuationToken{}, err
			}
			a.Prefix = append(a.Prefix, v)
		}
		if w.Anchor.LowValue != nil {
			v, err := decodeWireValue(*w.Anchor.LowValue)
			if err != nil {
				return ContinuationToken{}, err
			}
			a.Low = Bound{Value: v, Inclusive: w.Anchor.LowIncl}
		}
		if w.Anchor.HighValue != nil {
			v, err := decodeWireValue(*w.Anchor.HighValue)
			if err != nil {
				return ContinuationToken{}, err
			}
			a.High = Bound{Value: v, Inclusive: w.Anchor.HighIncl}
		}
		tok.IndexRangeAnchor = a
	}
	return tok, nil
}

// wireValue is the CBOR projection of a Value, used only by the cursor
// wire format (not by the on-disk storage/index key encodings, which have
// their own fixed-width schemes).
type wireValue struct {
	Kind    uint8       `cbor:"k"`
	U       uint64      `cbor:"u,omitempty"`
	I       int64       `cbor:"i,omitempty"`
	Str     string      `cbor:"s,omitempty"`
	Bytes   []byte      `cbor:"b,omitempty"`
	Scale   int32       `cbor:"sc,omitempty"`
	Sub     []byte      `cbor:"sub,omitempty"`
	Items   []wireValue `cbor:"items,omitempty"`
	EnumPath string     `cbor:"ep,omitempty"`
	EnumOrd int32       `cbor:"eo,omitempty"`
}

func encodeWireValue(v Value) (wireValue, error) {
	w := wireValue{Kind: uint8(v.Kind())}
	switch typed := v.(type) {
	case Null, Unit:
		// kind tag alone is sufficient
	case Bool:
		if typed {
			w.U = 1
		}
	case Uint:
		w.U = uint64(typed)
	case Int:
		w.I = int64(typed)
	case Timestamp:
		w.I = int64(typed)
	case Decimal:
		w.I = typed.Coef
		w.Scale = typed.Scale
	case Text:
		w.Str = string(typed)
	case Blob:
		w.Bytes = []byte(typed)
	case Ulid:
		w.Bytes = append([]byte(nil), typed[:]...)
	case Principal:
		w.Bytes = []byte(typed)
	case Account:
		w.Bytes = []byte(typed.Owner)
		w.Sub = append([]byte(nil), typed.Subaccount[:]...)
	case Enum:
		w.EnumPath = typed.Path
		w.Str = typed.Variant
		w.EnumOrd = typed.Ordinal
	case List:
		for _, e := range typed {
			wv, err := encodeWireValue(e)
			if err != nil {
				return wireValue{}, err
			}
			w.Items = append(w.Items, wv)
		}
	case Set:
		for _, e := range typed {
			wv, err := encodeWireValue(e)
			if err != nil {
				return wireValue{}, err
			}
			w.Items = append(w.Items, wv)
		}
	default:
		return wireValue{}, fmt.Errorf("icydb: cursor boundary value of kind %s is not encodable", v.Kind())
	}
	return w, nil
}

func decodeWireValue(w wireValue) (Value, error) {
	switch Kind(w.Kind) {
	case KindNull:
		return Null{}, nil
	case KindUnit:
		return Unit{}, nil
	case KindBool:
		return Bool(w.U != 0), nil
	case KindUint:
		return Uint(w.U), nil
	case KindInt:
		return Int(w.I), nil
	case KindTimestamp:
		return Timestamp(w.I), nil
	case KindDecimal:
		return Decimal{Coef: w.I, Scale: w.Scale}, nil
	case KindText:
		return Text(w.Str), nil
	case KindBlob:
		return Blob(w.Bytes), nil
	case KindUlid:
		var u Ulid
		copy(u[:], w.Bytes)
		return u, nil
	case KindPrincipal:
		return Principal(w.Bytes), nil
	case KindAccount:
		var sub [32]byte
		copy(sub[:], w.Sub)
		return Account{Owner: Principal(w.Bytes), Subaccount: sub}, nil
	case KindEnum:
		return Enum{Path: w.EnumPath, Variant: w.Str, Ordinal: w.EnumOrd}, nil
	case KindList:
		out := make(List, 0, len(w.Items))
		for _, item := range w.Items {
			v, err := decodeWireValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case KindSet:
		out := make(Set, 0, len(w.Items))
		for _, item := range w.Items {
			v, err := decodeWireValue(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("icydb: cursor boundary value of kind %d is not decodable", w.Kind)
	}
}
