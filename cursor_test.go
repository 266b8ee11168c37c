package icydb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSecret() []byte { return []byte("test-secret-key-material") }

func testToken(sig [32]byte) ContinuationToken {
	return ContinuationToken{
		Version:       CursorTokenV2,
		PlanSignature: sig,
		Boundary:      CursorBoundary{{Field: "age", Value: Uint(7)}},
		Direction:     CursorForward,
		InitialOffset: 0,
	}
}

func TestCursorEncodeDecodeRoundTrip(t *testing.T) {
	sig := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	tok := testToken(sig)

	wire, err := tok.Encode(testSecret())
	require.NoError(t, err)

	got, err := DecodeContinuationToken(wire, testSecret())
	require.NoError(t, err)
	assert.Equal(t, tok.Version, got.Version)
	assert.Equal(t, tok.PlanSignature, got.PlanSignature)
	assert.Equal(t, tok.Boundary, got.Boundary)
	assert.Equal(t, tok.Direction, got.Direction)
}

func TestCursorDecodeRejectsTamperedSignature(t *testing.T) {
	sig := QuerySignature(Always{}, nil, false, StrictAllOrNone)
	tok := testToken(sig)

	wire, err := tok.Encode(testSecret())
	require.NoError(t, err)

	_, err = DecodeContinuationToken(wire, []byte("a-different-secret"))
	require.Error(t, err)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, CodeSignatureMismatch, qe.Code)
}

func TestCursorDecodeRejectsOversizedWire(t *testing.T) {
	oversized := make([]byte, maxCursorTokenWireBytes+1)
	_, err := DecodeContinuationToken(oversized, testSecret())
	require.Error(t, err)
}

func TestValidateCursorRejectsPlanSignatureMismatch(t *testing.T) {
	sig := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	tok := testToken(sig)

	otherSig := QuerySignature(eqField("age", Uint(2)), []string{"age"}, false, StrictAllOrNone)

	err := ValidateCursor(CursorValidationInput{
		Token:              tok,
		ExpectedSignature:  otherSig,
		ExpectedSortKeys:   []string{"age"},
		RequestedDirection: CursorForward,
		Plan:               AccessPlan{Path: &AccessPath{Kind: PathFullScan}},
		Cfg:                CursorConfig{MaxTokenBytes: 8 * 1024},
	})
	require.Error(t, err)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, CodeSignatureMismatch, qe.Code)
}

func TestValidateCursorAcceptsMatchingSignature(t *testing.T) {
	sig := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	tok := testToken(sig)

	err := ValidateCursor(CursorValidationInput{
		Token:              tok,
		ExpectedSignature:  sig,
		ExpectedSortKeys:   []string{"age"},
		RequestedDirection: CursorForward,
		Plan:               AccessPlan{Path: &AccessPath{Kind: PathFullScan}},
		Cfg:                CursorConfig{MaxTokenBytes: 8 * 1024},
	})
	assert.NoError(t, err)
}

func TestValidateCursorRejectsDirectionMismatch(t *testing.T) {
	sig := QuerySignature(eqField("age", Uint(1)), []string{"age"}, false, StrictAllOrNone)
	tok := testToken(sig)

	err := ValidateCursor(CursorValidationInput{
		Token:              tok,
		ExpectedSignature:  sig,
		ExpectedSortKeys:   []string{"age"},
		RequestedDirection: CursorBackward,
		Plan:               AccessPlan{Path: &AccessPath{Kind: PathFullScan}},
		Cfg:                CursorConfig{MaxTokenBytes: 8 * 1024},
	})
	require.Error(t, err)
	var qe *QueryError
	require.ErrorAs(t, err, &qe)
	assert.Equal(t, CodeDirectionMismatch, qe.Code)
}
