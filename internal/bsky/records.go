package bsky

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hobosky/hobosky-go/internal/model"
)

const (
	collectionPost   = "app.bsky.feed.post"
	collectionLike   = "app.bsky.feed.like"
	collectionRepost = "app.bsky.feed.repost"
	collectionFollow = "app.bsky.graph.follow"
	collectionBlock  = "app.bsky.graph.block"
)

type CreateRecordResponse struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

func (c *Client) createRecord(ctx context.Context, collection string, record any) (*CreateRecordResponse, error) {
	var res CreateRecordResponse
	err := c.post(ctx, "com.atproto.repo.createRecord", map[string]any{
		"repo":       c.sessions.DID(),
		"collection": collection,
		"record":     record,
	}, &res)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// deleteRecord removes the record named by its creation AT-URI.
func (c *Client) deleteRecord(ctx context.Context, collection, uri string) error {
	rkey, err := model.RecordKey(uri)
	if err != nil {
		return err
	}
	return c.post(ctx, "com.atproto.repo.deleteRecord", map[string]any{
		"repo":       c.sessions.DID(),
		"collection": collection,
		"rkey":       rkey,
	}, nil)
}

type PostOpts struct {
	Reply  *model.ReplyRef
	Embed  *model.PostEmbed
	Facets []model.Facet
	Langs  []string
}

// CreatePost publishes a post record. Facets should already be resolved;
// composing callers run DetectFacets and ResolveMentions first.
func (c *Client) CreatePost(ctx context.Context, text string, opts *PostOpts) (*CreateRecordResponse, error) {
	record := model.PostRecord{
		Type:      collectionPost,
		Text:      text,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	if opts != nil {
		record.Reply = opts.Reply
		record.Embed = opts.Embed
		record.Facets = opts.Facets
		record.Langs = opts.Langs
	}

	res, err := c.createRecord(ctx, collectionPost, record)
	if err != nil {
		return nil, err
	}
	log.Info().Str("uri", res.URI).Msg("post created")
	return res, nil
}

func (c *Client) DeletePost(ctx context.Context, uri string) error {
	return c.deleteRecord(ctx, collectionPost, uri)
}

// subjectRecord is the shared shape of like and repost records.
type subjectRecord struct {
	Type      string          `json:"$type"`
	Subject   model.StrongRef `json:"subject"`
	CreatedAt string          `json:"createdAt"`
}

func newSubjectRecord(collection string, subject model.StrongRef) subjectRecord {
	return subjectRecord{
		Type:      collection,
		Subject:   subject,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}

// followRecord's subject is a bare DID rather than a strong ref.
type followRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

func newFollowRecord(collection, did string) followRecord {
	return followRecord{
		Type:      collection,
		Subject:   did,
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
}
