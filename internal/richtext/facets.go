// Package richtext maps post text to protocol facets: byte-accurate
// annotated spans for links, mentions and hashtags.
package richtext

import (
	"context"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/xrpc"
)

const nsidResolveHandle = "com.atproto.identity.resolveHandle"

// Each pattern requires start-of-string or whitespace before the span. Go
// regexp has no lookbehind, so the separator is matched and the capture group
// carries the span itself; submatch indexes are byte offsets already.
var (
	linkPattern    = regexp.MustCompile(`(?:^|\s)(https?://[^\s)<>]+)`)
	mentionPattern = regexp.MustCompile(`(?:^|\s)(@(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)`)
	tagPattern     = regexp.MustCompile(`(?:^|\s)(#[a-zA-Z0-9_]+)`)
)

// DetectFacets scans text for links, mentions and hashtags. Offsets are over
// the UTF-8 byte encoding of the text. The result is sorted by ByteStart with
// overlapping later spans dropped, so ranges are non-overlapping and
// non-decreasing. Mention facets carry an empty DID until ResolveMentions
// fills them in.
func DetectFacets(text string) []model.Facet {
	var facets []model.Facet

	for _, m := range linkPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		facets = append(facets, model.Facet{
			Index: model.ByteSlice{ByteStart: start, ByteEnd: end},
			Features: []model.FacetFeature{{
				Type: model.FacetTypeLink,
				URI:  text[start:end],
			}},
		})
	}

	for _, m := range mentionPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		facets = append(facets, model.Facet{
			Index:    model.ByteSlice{ByteStart: start, ByteEnd: end},
			Features: []model.FacetFeature{{Type: model.FacetTypeMention}},
		})
	}

	for _, m := range tagPattern.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[2], m[3]
		facets = append(facets, model.Facet{
			Index: model.ByteSlice{ByteStart: start, ByteEnd: end},
			Features: []model.FacetFeature{{
				Type: model.FacetTypeTag,
				Tag:  strings.TrimPrefix(text[start:end], "#"),
			}},
		})
	}

	sort.SliceStable(facets, func(i, j int) bool {
		return facets[i].Index.ByteStart < facets[j].Index.ByteStart
	})

	// First match wins on overlap.
	out := facets[:0]
	lastEnd := 0
	for _, f := range facets {
		if f.Index.ByteStart < lastEnd {
			continue
		}
		out = append(out, f)
		lastEnd = f.Index.ByteEnd
	}
	return out
}

// ResolveMentions fills in the DID of every unresolved mention facet with one
// unauthenticated resolveHandle call each, recovering the handle from the
// facet's byte range over text. Mentions whose handle does not resolve are
// dropped: a mention facet must never be posted with an empty DID.
func ResolveMentions(ctx context.Context, client *xrpc.Client, text string, facets []model.Facet) []model.Facet {
	resolved := make([]model.Facet, 0, len(facets))

	for _, facet := range facets {
		feature := facet.Feature()
		if feature == nil || feature.Type != model.FacetTypeMention || feature.DID != "" {
			resolved = append(resolved, facet)
			continue
		}

		handle := mentionHandle(text, facet.Index)
		if handle == "" {
			continue
		}

		var res struct {
			DID string `json:"did"`
		}
		err := client.Do(ctx, xrpc.Request{
			Method: http.MethodGet,
			NSID:   nsidResolveHandle,
			Params: url.Values{"handle": {handle}},
			NoAuth: true,
		}, &res)
		if err != nil || res.DID == "" {
			log.Debug().Str("handle", handle).Err(err).Msg("dropping unresolvable mention")
			continue
		}

		facet.Features = []model.FacetFeature{{Type: model.FacetTypeMention, DID: res.DID}}
		resolved = append(resolved, facet)
	}
	return resolved
}

func mentionHandle(text string, index model.ByteSlice) string {
	if index.ByteStart < 0 || index.ByteEnd > len(text) || index.ByteStart >= index.ByteEnd {
		return ""
	}
	return strings.TrimPrefix(text[index.ByteStart:index.ByteEnd], "@")
}
