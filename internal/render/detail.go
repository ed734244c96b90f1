package render

import (
	"github.com/pantrylabs/console/internal/schema"
	"github.com/pantrylabs/console/internal/storage"
)

// RenderedField pairs a field spec with its visual description.
type RenderedField struct {
	Key    string   `json:"key"`
	Label  string   `json:"label"`
	Span   int      `json:"span"`
	Visual Envelope `json:"visual"`
}

// Section is one titled group of a detail view.
type Section struct {
	Title  string          `json:"title"`
	Fields []RenderedField `json:"fields"`
}

// Detail is the full rendered detail view of one record.
type Detail struct {
	Kind     string    `json:"kind"`
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Subtitle string    `json:"subtitle,omitempty"`
	Sections []Section `json:"sections"`
}

// RenderDetail renders every detail-view field of a record, grouped into
// sections by the specs' group labels. Fields without a group land in the
// leading untitled section.
func RenderDetail(es *schema.EntitySchema, record storage.Record, ctx Context) Detail {
	d := Detail{Kind: es.Kind, ID: record.ID()}
	if name, ok := record[es.NameField].(string); ok {
		d.Name = name
	}
	if es.SubtitleField != "" {
		if sub, ok := record[es.SubtitleField].(string); ok {
			d.Subtitle = sub
		}
	}

	index := make(map[string]int)
	for _, spec := range es.Fields {
		if !spec.VisibleInView(schema.ViewDetail) {
			continue
		}
		span := spec.Span
		if span == 0 {
			span = 1
		}
		rf := RenderedField{
			Key:    spec.Key,
			Label:  spec.Label,
			Span:   span,
			Visual: Wrap(RenderField(spec, record[spec.Key], ctx)),
		}
		i, ok := index[spec.Group]
		if !ok {
			d.Sections = append(d.Sections, Section{Title: spec.Group})
			i = len(d.Sections) - 1
			index[spec.Group] = i
		}
		d.Sections[i].Fields = append(d.Sections[i].Fields, rf)
	}
	return d
}
