package render

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pantrylabs/console/internal/resolve"
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

func textSpec(key string) schema.FieldSpec {
	return schema.FieldSpec{Key: key, Label: key, Kind: schema.KindText}
}

func TestRenderField_EmptyValues(t *testing.T) {
	spec := textSpec("name")
	for _, v := range []any{nil, "", "null", []any{}, map[string]any{}} {
		visual := RenderField(spec, v, Context{})
		require.IsType(t, Empty{}, visual, "value %#v must render Empty", v)
	}
}

func TestRenderField_LinkedEntityChips(t *testing.T) {
	spec := schema.FieldSpec{Key: "elements", Kind: schema.KindLinkedEntitySet, LinkedKind: "element"}
	refs := []resolve.Ref{{ID: "el-1", DisplayName: "Iron"}}

	visual := RenderField(spec, []any{"el-1"}, Context{Links: map[string][]resolve.Ref{"elements": refs}})
	chips, ok := visual.(LinkedEntityChips)
	require.True(t, ok)
	require.False(t, chips.Pending)
	require.Equal(t, "Iron", chips.Refs[0].DisplayName)

	// Unresolved field renders a loading placeholder, not an error.
	visual = RenderField(spec, []any{"el-1"}, Context{})
	chips, ok = visual.(LinkedEntityChips)
	require.True(t, ok)
	require.True(t, chips.Pending)
}

func TestRenderField_BooleanAndBadge(t *testing.T) {
	boolSpec := schema.FieldSpec{Key: "verified", Kind: schema.KindBoolean}
	tag, ok := RenderField(boolSpec, true, Context{}).(BooleanTag)
	require.True(t, ok)
	require.True(t, tag.Value)

	enumSpec := schema.FieldSpec{Key: "category", Kind: schema.KindEnum}
	badge, ok := RenderField(enumSpec, "mineral", Context{}).(Badge)
	require.True(t, ok)
	require.Equal(t, []string{"mineral"}, badge.Values)
}

func TestRenderField_Timestamp(t *testing.T) {
	spec := schema.FieldSpec{Key: "created_at", Kind: schema.KindTimestamp}
	visual := RenderField(spec, "2026-08-01T10:30:00Z", Context{})
	ts, ok := visual.(Timestamp)
	require.True(t, ok)
	require.Equal(t, "2026-08-01T10:30:00Z", ts.Raw)
	require.NotEmpty(t, ts.Display)

	// Well-known date field names render as timestamps even when declared text.
	visual = RenderField(textSpec("updated_at"), "2026-08-02", Context{})
	require.IsType(t, Timestamp{}, visual)

	// Unparseable date degrades to text, never errors.
	visual = RenderField(spec, "soonish", Context{})
	require.IsType(t, Text{}, visual)
}

func TestRenderField_MacroCardsEndToEnd(t *testing.T) {
	spec := schema.FieldSpec{Key: "nutrition", Kind: schema.KindStructuredObject}
	value := map[string]any{
		"calories": 250.0,
		"protein":  12.0,
		"carbs":    0.0,
		"vitamin_c": map[string]any{
			"amount": 40.0, "unit": "mg", "rdi_percent": 44.0,
		},
	}

	visual := RenderField(spec, value, Context{})
	cards, ok := visual.(MacroSummaryCards)
	require.True(t, ok)

	slots := make([]string, 0, len(cards.Cards))
	for _, c := range cards.Cards {
		slots = append(slots, c.Slot)
	}
	require.Equal(t, []string{"energy", "protein"}, slots, "carbs is zero and must be omitted")

	require.Len(t, cards.Rest, 1)
	rest := cards.Rest[0]
	require.Equal(t, "Vitamin C", rest.Label)
	require.Equal(t, 40.0, rest.Amount.Value)
	require.Equal(t, "mg", rest.Amount.Unit)
	require.NotNil(t, rest.Amount.RDIPercent)
	require.Equal(t, 44.0, *rest.Amount.RDIPercent)
	require.Equal(t, 44.0, rest.WidthPercent, "bar width follows the RDI percentage")
}

func TestRenderField_GroupedBars(t *testing.T) {
	spec := schema.FieldSpec{Key: "micronutrients", Kind: schema.KindStructuredObject}
	value := map[string]any{
		"minerals": map[string]any{"iron": 2.0, "zinc": 1.0},
		"vitamins": map[string]any{"b12": map[string]any{"amount": 0.4, "unit": "µg"}},
	}

	visual := RenderField(spec, value, Context{})
	grouped, ok := visual.(GroupedProgressBarList)
	require.True(t, ok)
	require.Len(t, grouped.Groups, 2)
	require.Equal(t, "Minerals", grouped.Groups[0].Label)
	require.True(t, grouped.Groups[0].DefaultExpanded)
	require.Len(t, grouped.Groups[0].Entries, 2)
}

func TestRenderField_FlatBarsFilterZeroEntries(t *testing.T) {
	spec := schema.FieldSpec{Key: "minerals", Kind: schema.KindStructuredObject}
	value := map[string]any{"iron": 0.0, "zinc": 0, "calcium": map[string]any{"amount": 0}}

	visual := RenderField(spec, value, Context{})
	bars, ok := visual.(ProgressBarList)
	require.True(t, ok)
	require.Empty(t, bars.Entries, "all-zero children must produce zero bars")
}

func TestRenderField_BarScalingWithoutRDI(t *testing.T) {
	spec := schema.FieldSpec{Key: "minerals", Kind: schema.KindStructuredObject}
	value := map[string]any{"iron": 100.0, "zinc": 1.0}

	bars := RenderField(spec, value, Context{}).(ProgressBarList)
	require.Len(t, bars.Entries, 2)

	byLabel := map[string]BarEntry{}
	for _, e := range bars.Entries {
		byLabel[e.Label] = e
	}
	require.Equal(t, 100.0, byLabel["Iron"].WidthPercent)
	require.Equal(t, 2.0, byLabel["Zinc"].WidthPercent, "sliver floors at 2%")
}

func TestRenderField_KeyValueGridCap(t *testing.T) {
	spec := schema.FieldSpec{Key: "nutrients", Kind: schema.KindStructuredObject}
	value := map[string]any{}
	for _, k := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k"} {
		value[k] = "note-" + k
	}

	visual := RenderField(spec, value, Context{})
	grid, ok := visual.(KeyValueGrid)
	require.True(t, ok)
	require.Len(t, grid.Entries, 9)
	require.Equal(t, 2, grid.Overflow)
}

func TestRenderField_BulletList(t *testing.T) {
	spec := schema.FieldSpec{Key: "hazards", Kind: schema.KindStructuredList}
	value := []any{
		map[string]any{"name": "Allergen: peanuts", "severity": "high"},
		"May contain traces of soy",
	}

	visual := RenderField(spec, value, Context{})
	list, ok := visual.(BulletList)
	require.True(t, ok)
	require.Equal(t, []string{"Allergen: peanuts", "May contain traces of soy"}, list.Items)
}

func TestRenderField_UnknownShapeFallsBackToText(t *testing.T) {
	visual := RenderField(textSpec("note"), 12.5, Context{})
	txt, ok := visual.(Text)
	require.True(t, ok)
	require.Equal(t, "12.5", txt.Content)
}

func TestRenderDetail_GroupsSections(t *testing.T) {
	reg, err := schema.Load()
	require.NoError(t, err)
	es, _ := reg.Schema("ingredient")

	rec := storage.Record{
		"id":         "ing-1",
		"name":       "Spinach",
		"alt_name":   "Baby Spinach",
		"category":   "produce",
		"nutrition":  map[string]any{"calories": 23.0, "protein": 2.9},
		"created_at": time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
	}

	d := RenderDetail(es, rec, Context{Links: map[string][]resolve.Ref{}})
	require.Equal(t, "Spinach", d.Name)
	require.Equal(t, "Baby Spinach", d.Subtitle)
	require.NotEmpty(t, d.Sections)

	titles := map[string]bool{}
	for _, s := range d.Sections {
		titles[s.Title] = true
	}
	require.True(t, titles["Nutrition"], "grouped fields get their own section")
	require.True(t, titles[""], "ungrouped fields land in the untitled section")
}
