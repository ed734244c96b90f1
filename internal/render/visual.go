// Package render turns (FieldSpec, raw value) pairs into view-agnostic
// visual descriptions. The output says what to show, not how to draw it:
// a UI layer maps each variant onto widgets.
package render

import (
	"github.com/pantrylabs/console/internal/fieldval"
	"github.com/pantrylabs/console/internal/resolve"
)

// Visual is a tagged-variant description of one rendered field.
type Visual interface {
	// VisualType returns the wire tag for the variant.
	VisualType() string
}

// Empty renders nothing: the value was null, empty, or the literal "null".
type Empty struct{}

func (Empty) VisualType() string { return "empty" }

// Text is a plain string rendering.
type Text struct {
	Content string `json:"content"`
}

func (Text) VisualType() string { return "text" }

// Badge is a short highlighted token (enum values, tags).
type Badge struct {
	Values []string `json:"values"`
}

func (Badge) VisualType() string { return "badge" }

// BooleanTag is a yes/no pill.
type BooleanTag struct {
	Value bool `json:"value"`
}

func (BooleanTag) VisualType() string { return "boolean_tag" }

// Timestamp is a formatted point in time.
type Timestamp struct {
	Display string `json:"display"`
	Raw     string `json:"raw"`
}

func (Timestamp) VisualType() string { return "timestamp" }

// MacroCard is one of the four canonical macro-nutrition summary cards.
type MacroCard struct {
	Slot   string          `json:"slot"` // energy | protein | carbohydrate | fat
	Label  string          `json:"label"`
	Amount fieldval.Numeric `json:"amount"`
}

// MacroSummaryCards shows macro buckets as cards with any leftover
// nutrition entries rendered beneath as bars.
type MacroSummaryCards struct {
	Cards []MacroCard `json:"cards"`
	Rest  []BarEntry  `json:"rest,omitempty"`
}

func (MacroSummaryCards) VisualType() string { return "macro_summary_cards" }

// BarEntry is one proportional bar in a progress-bar list. Width is a
// percentage in [2, 100]; zero-valued entries are filtered out before the
// list is built.
type BarEntry struct {
	Label        string          `json:"label"`
	Amount       fieldval.Numeric `json:"amount"`
	WidthPercent float64         `json:"width_percent"`
}

// ProgressBarList is a flat list of numeric bars.
type ProgressBarList struct {
	Entries []BarEntry `json:"entries"`
}

func (ProgressBarList) VisualType() string { return "progress_bar_list" }

// BarGroup is one collapsible section of a grouped bar list.
type BarGroup struct {
	Label           string     `json:"label"`
	Entries         []BarEntry `json:"entries"`
	DefaultExpanded bool       `json:"default_expanded"`
}

// GroupedProgressBarList is a two-level "folder of folders" rendering, each
// group independently collapsible and expanded by default.
type GroupedProgressBarList struct {
	Groups []BarGroup `json:"groups"`
}

func (GroupedProgressBarList) VisualType() string { return "grouped_progress_bar_list" }

// LinkedEntityChips shows resolved linked-entity references. Pending is set
// when the resolver has not delivered this field yet and the caller should
// show a loading placeholder.
type LinkedEntityChips struct {
	Refs    []resolve.Ref `json:"refs"`
	Pending bool          `json:"pending,omitempty"`
}

func (LinkedEntityChips) VisualType() string { return "linked_entity_chips" }

// KV is one key/value pair of a grid.
type KV struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KeyValueGrid is a capped grid of stringified entries with a remainder
// count for the overflow.
type KeyValueGrid struct {
	Entries  []KV `json:"entries"`
	Overflow int  `json:"overflow,omitempty"`
}

func (KeyValueGrid) VisualType() string { return "key_value_grid" }

// BulletList is a simple itemized rendering for structured lists.
type BulletList struct {
	Items []string `json:"items"`
}

func (BulletList) VisualType() string { return "bullet_list" }

// Envelope wraps a Visual with its type tag for JSON transport.
type Envelope struct {
	Type string `json:"type"`
	Data Visual `json:"data"`
}

// Wrap builds the transport envelope for a visual.
func Wrap(v Visual) Envelope {
	return Envelope{Type: v.VisualType(), Data: v}
}
