package schema

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	kinds := reg.Kinds()
	require.ElementsMatch(t, []string{"element", "ingredient", "recipe", "product", "scan", "signup"}, kinds)

	es, ok := reg.Schema("ingredient")
	require.True(t, ok)
	require.Equal(t, "name", es.NameField)
	require.NotEmpty(t, es.CoreFields)
}

func TestFieldsForView_FiltersByVisibility(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	list := reg.FieldsForView("ingredient", ViewList)
	detail := reg.FieldsForView("ingredient", ViewDetail)
	require.NotEmpty(t, list)
	require.Greater(t, len(detail), len(list))

	for _, f := range list {
		require.True(t, f.VisibleInView(ViewList), "field %s returned for list view but not visible in it", f.Key)
	}

	// Nutrition is detail-only.
	for _, f := range list {
		require.NotEqual(t, "nutrition", f.Key)
	}
}

func TestFieldsForView_UnknownKindYieldsEmpty(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	require.Empty(t, reg.FieldsForView("martian", ViewList))
	_, ok := reg.Schema("martian")
	require.False(t, ok)
}

func TestValidate_RejectsDuplicateKeys(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&EntitySchema{
		Kind:      "thing",
		Label:     "Thing",
		NameField: "name",
		Fields: []FieldSpec{
			{Key: "name", Label: "Name", Kind: KindText},
			{Key: "name", Label: "Name Again", Kind: KindText},
		},
	})
	require.Error(t, reg.Validate())
}

func TestValidate_RejectsUnregisteredLinkTarget(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&EntitySchema{
		Kind:      "thing",
		Label:     "Thing",
		NameField: "name",
		Fields: []FieldSpec{
			{Key: "name", Label: "Name", Kind: KindText},
			{Key: "parts", Label: "Parts", Kind: KindLinkedEntitySet, LinkedKind: "widget"},
		},
	})
	require.Error(t, reg.Validate())
}

func TestLinkedFields(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	es, _ := reg.Schema("recipe")
	linked := es.LinkedFields()
	require.Len(t, linked, 1)
	require.Equal(t, "ingredients", linked[0].Key)
	require.Equal(t, "ingredient", linked[0].LinkedKind)
}
