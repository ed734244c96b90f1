package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pantrylabs/console/internal/fieldval"
	"github.com/pantrylabs/console/internal/resolve"
	"github.com/pantrylabs/console/internal/schema"
)

// minBarWidthPercent keeps a sliver visible for tiny non-zero values.
const minBarWidthPercent = 2.0

// keyValueGridCap is the number of visible entries before the grid
// collapses the rest into a remainder count.
const keyValueGridCap = 9

// Context carries the per-detail-view inputs a render pass needs.
type Context struct {
	// Links maps field key to resolved references. A linked field absent
	// from the map renders as pending.
	Links map[string][]resolve.Ref
	// FormatTime renders timestamps; defaults to a date-and-minute layout.
	FormatTime func(time.Time) string
}

func (c Context) formatTime(t time.Time) string {
	if c.FormatTime != nil {
		return c.FormatTime(t)
	}
	return t.Format("Jan 2, 2006 15:04")
}

// dateFieldNames are well-known field keys rendered as timestamps even when
// the schema declares them as something else.
var dateFieldNames = map[string]bool{
	"created_at":   true,
	"updated_at":   true,
	"confirmed_at": true,
	"scanned_at":   true,
	"timestamp":    true,
	"date":         true,
}

// macroBuckets maps canonicalized child keys onto the four macro slots.
var macroBuckets = map[string]string{
	"energy":            "energy",
	"calories":          "energy",
	"kcal":              "energy",
	"energykcal":        "energy",
	"protein":           "protein",
	"proteins":          "protein",
	"carbohydrate":      "carbohydrate",
	"carbohydrates":     "carbohydrate",
	"carbs":             "carbohydrate",
	"totalcarbohydrate": "carbohydrate",
	"fat":               "fat",
	"fats":              "fat",
	"totalfat":          "fat",
	"lipids":            "fat",
}

// macroFieldKeys are the field keys that denote macro nutrition.
var macroFieldKeys = map[string]bool{
	"nutrition":       true,
	"macros":          true,
	"macro_nutrition": true,
	"nutrition_facts": true,
}

// nutritionLikeKeys are the structured-object field keys eligible for the
// nutrition rendering ladder (macro keys included).
var nutritionLikeKeys = map[string]bool{
	"nutrition":          true,
	"macros":             true,
	"macro_nutrition":    true,
	"nutrition_facts":    true,
	"micronutrients":     true,
	"nutrients":          true,
	"minerals":           true,
	"vitamins":           true,
	"nutrition_per_100g": true,
}

// RenderField produces the visual description for one field value.
// Pure function of its inputs; selection follows a strict priority order,
// and a malformed value for any declared kind degrades to Text or Empty
// rather than failing.
func RenderField(spec schema.FieldSpec, value any, ctx Context) Visual {
	if fieldval.IsEmpty(value) {
		return Empty{}
	}

	if spec.Kind == schema.KindLinkedEntitySet {
		refs, resolved := ctx.Links[spec.Key]
		if !resolved {
			return LinkedEntityChips{Refs: []resolve.Ref{}, Pending: true}
		}
		return LinkedEntityChips{Refs: refs}
	}

	if spec.Kind == schema.KindBoolean {
		return BooleanTag{Value: fieldval.Truthy(value)}
	}

	if spec.Kind == schema.KindTimestamp || dateFieldNames[spec.Key] {
		if t, ok := parseTime(value); ok {
			return Timestamp{Display: ctx.formatTime(t), Raw: t.Format(time.RFC3339)}
		}
		return Text{Content: fmt.Sprintf("%v", value)}
	}

	if spec.Kind == schema.KindEnum || spec.Kind == schema.KindTag {
		return Badge{Values: badgeValues(value)}
	}

	if spec.Kind == schema.KindStructuredObject && nutritionLikeKeys[spec.Key] {
		if children, ok := value.(map[string]any); ok {
			return renderNutrition(spec, children)
		}
	}

	if spec.Kind == schema.KindStructuredList {
		return BulletList{Items: bulletItems(value)}
	}

	return Text{Content: fmt.Sprintf("%v", value)}
}

// renderNutrition applies the structured-object ladder from most to least
// specific: macro cards, grouped bars, flat bars, key/value grid.
func renderNutrition(spec schema.FieldSpec, children map[string]any) Visual {
	if macroFieldKeys[spec.Key] {
		return renderMacroCards(children)
	}

	for _, child := range children {
		if fieldval.IsNestedGroup(child) {
			return renderGroupedBars(children)
		}
	}

	for _, child := range children {
		if fieldval.Extractable(child) {
			return ProgressBarList{Entries: barEntries(children)}
		}
	}

	return renderKeyValueGrid(children)
}

// renderMacroCards partitions children into the four canonical macro
// buckets; leftovers render beneath as a flat bar list. Zero-valued macros
// are omitted — sparse data should not produce empty cards.
func renderMacroCards(children map[string]any) Visual {
	slotOrder := []string{"energy", "protein", "carbohydrate", "fat"}
	cardsBySlot := make(map[string]MacroCard)
	leftovers := make(map[string]any)

	for key, child := range children {
		slot, isMacro := macroBuckets[canonicalKey(key)]
		if !isMacro {
			leftovers[key] = child
			continue
		}
		n := fieldval.ExtractNumeric(child)
		if n.Value == 0 {
			continue
		}
		if _, taken := cardsBySlot[slot]; taken {
			// Duplicate macro shapes (e.g. both "carbs" and "carbohydrates")
			// fall through to the bar list below.
			leftovers[key] = child
			continue
		}
		cardsBySlot[slot] = MacroCard{Slot: slot, Label: fieldLabel(key), Amount: n}
	}

	var cards []MacroCard
	for _, slot := range slotOrder {
		if card, ok := cardsBySlot[slot]; ok {
			cards = append(cards, card)
		}
	}
	return MacroSummaryCards{Cards: cards, Rest: barEntries(leftovers)}
}

// renderGroupedBars builds the two-level rendering: each object child is a
// collapsible group (expanded by default); numeric stragglers are collected
// into a trailing "Other" group.
func renderGroupedBars(children map[string]any) Visual {
	var groups []BarGroup
	stragglers := make(map[string]any)

	for _, key := range sortedKeys(children) {
		child := children[key]
		if obj, ok := child.(map[string]any); ok {
			entries := barEntries(obj)
			if len(entries) == 0 {
				continue
			}
			groups = append(groups, BarGroup{
				Label:           fieldLabel(key),
				Entries:         entries,
				DefaultExpanded: true,
			})
			continue
		}
		if fieldval.Extractable(child) {
			stragglers[key] = child
		}
	}

	if entries := barEntries(stragglers); len(entries) > 0 {
		groups = append(groups, BarGroup{Label: "Other", Entries: entries, DefaultExpanded: true})
	}
	return GroupedProgressBarList{Groups: groups}
}

// barEntries extracts, filters, and scales numeric children into bars.
// Zero-valued entries are always dropped. Width is the entry's RDI
// percentage when available, otherwise its value relative to the largest
// value in the same list, floored at minBarWidthPercent.
func barEntries(children map[string]any) []BarEntry {
	type raw struct {
		key string
		n   fieldval.Numeric
	}
	var rows []raw
	maxValue := 0.0
	for _, key := range sortedKeys(children) {
		child := children[key]
		if !fieldval.Extractable(child) {
			continue
		}
		n := fieldval.ExtractNumeric(child)
		if n.Value == 0 {
			continue
		}
		rows = append(rows, raw{key, n})
		if n.Value > maxValue {
			maxValue = n.Value
		}
	}

	var out []BarEntry
	for _, row := range rows {
		width := 0.0
		if row.n.RDIPercent != nil {
			width = *row.n.RDIPercent
		} else if maxValue > 0 {
			width = row.n.Value / maxValue * 100
		}
		if width > 100 {
			width = 100
		}
		if width < minBarWidthPercent {
			width = minBarWidthPercent
		}
		out = append(out, BarEntry{Label: fieldLabel(row.key), Amount: row.n, WidthPercent: width})
	}
	return out
}

func renderKeyValueGrid(children map[string]any) Visual {
	keys := sortedKeys(children)
	grid := KeyValueGrid{}
	for i, key := range keys {
		if i == keyValueGridCap {
			grid.Overflow = len(keys) - keyValueGridCap
			break
		}
		grid.Entries = append(grid.Entries, KV{
			Key:   fieldLabel(key),
			Value: fieldval.Normalize(children[key]).Display(),
		})
	}
	return grid
}

// bulletItems stringifies structured-list items, preferring a human-readable
// name key for object items.
func bulletItems(value any) []string {
	var items []string
	appendItem := func(item any) {
		if m, ok := item.(map[string]any); ok {
			for _, key := range []string{"name", "label", "title", "text"} {
				if s, ok := m[key].(string); ok && s != "" {
					items = append(items, s)
					return
				}
			}
			items = append(items, fieldval.Normalize(m).Display())
			return
		}
		items = append(items, fmt.Sprintf("%v", item))
	}

	switch tv := value.(type) {
	case []any:
		for _, item := range tv {
			appendItem(item)
		}
	case []string:
		for _, s := range tv {
			items = append(items, s)
		}
	default:
		appendItem(tv)
	}
	return items
}

func badgeValues(value any) []string {
	switch tv := value.(type) {
	case []any:
		var out []string
		for _, item := range tv {
			out = append(out, fmt.Sprintf("%v", item))
		}
		return out
	case []string:
		return tv
	default:
		return []string{fmt.Sprintf("%v", value)}
	}
}

// parseTime accepts time.Time values and the common string encodings
// records arrive with.
func parseTime(value any) (time.Time, bool) {
	switch tv := value.(type) {
	case time.Time:
		return tv, true
	case string:
		for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"} {
			if t, err := time.Parse(layout, tv); err == nil {
				return t, true
			}
		}
	}
	if f, ok := value.(float64); ok && f > 1e9 {
		// Unix seconds from JSON-decoded numbers.
		return time.Unix(int64(f), 0).UTC(), true
	}
	return time.Time{}, false
}

// canonicalKey lowercases and strips underscores, spaces, and hyphens so
// "Total_Fat", "total fat", and "total-fat" all match the same bucket.
func canonicalKey(key string) string {
	key = strings.ToLower(key)
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(key)
}

// fieldLabel turns a snake_case key into a display label.
func fieldLabel(key string) string {
	parts := strings.Split(strings.ReplaceAll(key, "-", "_"), "_")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
