package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	icydb "github.com/dragginzgame/icydb-sub005"
)

func testModel() icydb.EntityModel {
	return icydb.EntityModel{
		Name:       "widget",
		PKField:    "id",
		PrimaryKey: icydb.StorageKeyUint,
		Fields: map[string]icydb.FieldDecl{
			"id":   {Name: "id", Kind: icydb.FieldKind{Kind: icydb.KindUint}},
			"name": {Name: "name", Kind: icydb.FieldKind{Kind: icydb.KindText}},
			"note": {Name: "note", Kind: icydb.FieldKind{Kind: icydb.KindText, Nullable: true}},
		},
	}
}

func TestBuildDeclaresEveryFieldRequired(t *testing.T) {
	doc := Build(testModel())
	required, ok := doc["required"].([]string)
	require.True(t, ok)
	assert.ElementsMatch(t, []string{"id", "name", "note"}, required)
}

func TestValidateJSONAccepts(t *testing.T) {
	v, err := NewValidator(testModel())
	require.NoError(t, err)

	err = v.ValidateJSON([]byte(`{"id": 1, "name": "widget-a", "note": null}`))
	assert.NoError(t, err)
}

func TestValidateJSONRejectsWrongType(t *testing.T) {
	v, err := NewValidator(testModel())
	require.NoError(t, err)

	err = v.ValidateJSON([]byte(`{"id": "not-a-number", "name": "widget-a", "note": null}`))
	assert.Error(t, err)
}

func TestValidateJSONRejectsMissingRequired(t *testing.T) {
	v, err := NewValidator(testModel())
	require.NoError(t, err)

	err = v.ValidateJSON([]byte(`{"id": 1}`))
	assert.Error(t, err)
}
