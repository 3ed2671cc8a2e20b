package model

import "encoding/json"

// StrongRef is a content-addressed reference: the AT-URI of a record plus the
// CID of its content (e.g. at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b).
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// BlobRef is the content-addressed handle to an uploaded blob, used later to
// embed that blob in a record.
type BlobRef struct {
	Type     string  `json:"$type"`
	Ref      BlobCID `json:"ref"`
	MimeType string  `json:"mimeType"`
	Size     int64   `json:"size"`
}

type BlobCID struct {
	Link string `json:"$link"`
}

type ImageEmbed struct {
	Alt         string       `json:"alt"`
	Image       BlobRef      `json:"image"`
	AspectRatio *AspectRatio `json:"aspectRatio,omitempty"`
}

type AspectRatio struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type PostEmbed struct {
	Type   string       `json:"$type"`
	Images []ImageEmbed `json:"images,omitempty"`
	Video  *BlobRef     `json:"video,omitempty"`
	Record *StrongRef   `json:"record,omitempty"`
	Alt    string       `json:"alt,omitempty"`
}

type PostRecord struct {
	Type      string     `json:"$type"`
	Text      string     `json:"text"`
	Facets    []Facet    `json:"facets,omitempty"`
	Reply     *ReplyRef  `json:"reply,omitempty"`
	Embed     *PostEmbed `json:"embed,omitempty"`
	Langs     []string   `json:"langs,omitempty"`
	CreatedAt string     `json:"createdAt"`
}

// PostViewer is the requesting account's relationship to a post. Like and
// Repost hold the AT-URIs of the viewer's own records when set.
type PostViewer struct {
	Like              string `json:"like,omitempty"`
	Repost            string `json:"repost,omitempty"`
	ThreadMuted       bool   `json:"threadMuted,omitempty"`
	ReplyDisabled     bool   `json:"replyDisabled,omitempty"`
	EmbeddingDisabled bool   `json:"embeddingDisabled,omitempty"`
}

type PostView struct {
	URI         string           `json:"uri"`
	CID         string           `json:"cid"`
	Author      ProfileViewBasic `json:"author"`
	Record      json.RawMessage  `json:"record"`
	Embed       json.RawMessage  `json:"embed,omitempty"`
	ReplyCount  int64            `json:"replyCount,omitempty"`
	RepostCount int64            `json:"repostCount,omitempty"`
	LikeCount   int64            `json:"likeCount,omitempty"`
	QuoteCount  int64            `json:"quoteCount,omitempty"`
	IndexedAt   string           `json:"indexedAt,omitempty"`
	Viewer      *PostViewer      `json:"viewer,omitempty"`
}

// Ref returns the post's strong reference.
func (p *PostView) Ref() StrongRef {
	return StrongRef{URI: p.URI, CID: p.CID}
}

type FeedViewPost struct {
	Post   PostView        `json:"post"`
	Reply  json.RawMessage `json:"reply,omitempty"`
	Reason json.RawMessage `json:"reason,omitempty"`
}

type ThreadViewPost struct {
	Type    string           `json:"$type,omitempty"`
	Post    *PostView        `json:"post,omitempty"`
	Parent  *ThreadViewPost  `json:"parent,omitempty"`
	Replies []ThreadViewPost `json:"replies,omitempty"`
}
