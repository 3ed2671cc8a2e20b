package model

const (
	FacetTypeLink    = "app.bsky.richtext.facet#link"
	FacetTypeMention = "app.bsky.richtext.facet#mention"
	FacetTypeTag     = "app.bsky.richtext.facet#tag"
)

// ByteSlice is a half-open [ByteStart, ByteEnd) range over the UTF-8 encoding
// of the post text. The protocol addresses spans in bytes, not runes.
type ByteSlice struct {
	ByteStart int `json:"byteStart"`
	ByteEnd   int `json:"byteEnd"`
}

type FacetFeature struct {
	Type string `json:"$type"`
	URI  string `json:"uri,omitempty"`
	DID  string `json:"did,omitempty"`
	Tag  string `json:"tag,omitempty"`
}

type Facet struct {
	Index    ByteSlice      `json:"index"`
	Features []FacetFeature `json:"features"`
}

// Feature returns the first feature of the facet, or nil.
func (f *Facet) Feature() *FacetFeature {
	if len(f.Features) == 0 {
		return nil
	}
	return &f.Features[0]
}
