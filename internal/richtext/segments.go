package richtext

import (
	"sort"

	"github.com/hobosky/hobosky-go/internal/model"
)

// Segment is a run of post text, either plain (Facet nil) or annotated.
type Segment struct {
	Text  string
	Facet *model.Facet
}

// Segments splits text into ordered render segments. Facets are applied in
// ByteStart order; a span that starts before the last emitted ByteEnd is
// skipped (first match wins), and spans beyond the text are ignored. Byte
// ranges slice the UTF-8 encoding directly, so multi-byte text round-trips
// exactly.
func Segments(text string, facets []model.Facet) []Segment {
	if len(facets) == 0 {
		return []Segment{{Text: text}}
	}

	sorted := make([]model.Facet, len(facets))
	copy(sorted, facets)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Index.ByteStart < sorted[j].Index.ByteStart
	})

	var out []Segment
	last := 0
	for i := range sorted {
		idx := sorted[i].Index
		if idx.ByteStart < last || idx.ByteEnd > len(text) || idx.ByteStart >= idx.ByteEnd {
			continue
		}
		if idx.ByteStart > last {
			out = append(out, Segment{Text: text[last:idx.ByteStart]})
		}
		out = append(out, Segment{Text: text[idx.ByteStart:idx.ByteEnd], Facet: &sorted[i]})
		last = idx.ByteEnd
	}
	if last < len(text) {
		out = append(out, Segment{Text: text[last:]})
	}
	return out
}
