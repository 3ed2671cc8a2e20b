// Package bsky exposes the typed app-level API surface over the XRPC
// dispatcher: feeds, threads, posts, search, notifications, graph lists and
// the reversible social mutations.
package bsky

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/session"
	"github.com/hobosky/hobosky-go/internal/xrpc"
)

// chatServiceProxy routes conversation calls to the chat backend without
// changing the base endpoint.
const chatServiceProxy = "did:web:api.bsky.chat#bsky_chat"

type Client struct {
	rpc      *xrpc.Client
	sessions *session.Manager
}

func NewClient(rpc *xrpc.Client, sessions *session.Manager) *Client {
	return &Client{rpc: rpc, sessions: sessions}
}

func (c *Client) get(ctx context.Context, nsid string, params url.Values, out any) error {
	return c.rpc.Do(ctx, xrpc.Request{
		Method: http.MethodGet,
		NSID:   nsid,
		Params: params,
	}, out)
}

func (c *Client) post(ctx context.Context, nsid string, body, out any) error {
	return c.rpc.Do(ctx, xrpc.Request{
		Method: http.MethodPost,
		NSID:   nsid,
		Body:   body,
	}, out)
}

func listParams(cursor string, limit int) url.Values {
	params := url.Values{}
	if cursor != "" {
		params.Set("cursor", cursor)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	return params
}

// FeedPage is one page of a feed-shaped endpoint. An empty Cursor means no
// further pages.
type FeedPage struct {
	Feed   []model.FeedViewPost `json:"feed"`
	Cursor string               `json:"cursor,omitempty"`
}

func (c *Client) GetTimeline(ctx context.Context, cursor string, limit int) (*FeedPage, error) {
	var page FeedPage
	if err := c.get(ctx, "app.bsky.feed.getTimeline", listParams(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetAuthorFeed(ctx context.Context, actor, filter, cursor string, limit int) (*FeedPage, error) {
	params := listParams(cursor, limit)
	params.Set("actor", actor)
	if filter == "" {
		filter = "posts_with_replies"
	}
	params.Set("filter", filter)

	var page FeedPage
	if err := c.get(ctx, "app.bsky.feed.getAuthorFeed", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetActorLikes(ctx context.Context, actor, cursor string, limit int) (*FeedPage, error) {
	params := listParams(cursor, limit)
	params.Set("actor", actor)

	var page FeedPage
	if err := c.get(ctx, "app.bsky.feed.getActorLikes", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type ThreadResponse struct {
	Thread model.ThreadViewPost `json:"thread"`
}

func (c *Client) GetPostThread(ctx context.Context, uri string, depth, parentHeight int) (*ThreadResponse, error) {
	params := url.Values{
		"uri":          {uri},
		"depth":        {strconv.Itoa(depth)},
		"parentHeight": {strconv.Itoa(parentHeight)},
	}
	var res ThreadResponse
	if err := c.get(ctx, "app.bsky.feed.getPostThread", params, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *Client) GetProfile(ctx context.Context, actor string) (*model.ProfileViewDetailed, error) {
	var profile model.ProfileViewDetailed
	if err := c.get(ctx, "app.bsky.actor.getProfile", url.Values{"actor": {actor}}, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

type ActorPage struct {
	Actors []model.ProfileViewBasic `json:"actors"`
	Cursor string                   `json:"cursor,omitempty"`
}

func (c *Client) SearchActors(ctx context.Context, query, cursor string, limit int) (*ActorPage, error) {
	params := listParams(cursor, limit)
	params.Set("q", query)

	var page ActorPage
	if err := c.get(ctx, "app.bsky.actor.searchActors", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type PostPage struct {
	Posts  []model.PostView `json:"posts"`
	Cursor string           `json:"cursor,omitempty"`
}

func (c *Client) SearchPosts(ctx context.Context, query, sort, cursor string, limit int) (*PostPage, error) {
	params := listParams(cursor, limit)
	params.Set("q", query)
	if sort == "" {
		sort = "latest"
	}
	params.Set("sort", sort)

	var page PostPage
	if err := c.get(ctx, "app.bsky.feed.searchPosts", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

type NotificationPage struct {
	Notifications []model.Notification `json:"notifications"`
	Cursor        string               `json:"cursor,omitempty"`
	SeenAt        string               `json:"seenAt,omitempty"`
}

func (c *Client) ListNotifications(ctx context.Context, cursor string, limit int) (*NotificationPage, error) {
	var page NotificationPage
	if err := c.get(ctx, "app.bsky.notification.listNotifications", listParams(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetUnreadCount(ctx context.Context) (int64, error) {
	var res struct {
		Count int64 `json:"count"`
	}
	if err := c.get(ctx, "app.bsky.notification.getUnreadCount", nil, &res); err != nil {
		return 0, err
	}
	return res.Count, nil
}

func (c *Client) UpdateNotificationSeen(ctx context.Context, seenAt string) error {
	return c.post(ctx, "app.bsky.notification.updateSeen", map[string]string{"seenAt": seenAt}, nil)
}

type followerPage struct {
	Followers []model.ProfileViewBasic `json:"followers"`
	Follows   []model.ProfileViewBasic `json:"follows"`
	Cursor    string                   `json:"cursor,omitempty"`
}

func (c *Client) GetFollowers(ctx context.Context, actor, cursor string, limit int) (*ActorPage, error) {
	params := listParams(cursor, limit)
	params.Set("actor", actor)

	var page followerPage
	if err := c.get(ctx, "app.bsky.graph.getFollowers", params, &page); err != nil {
		return nil, err
	}
	return &ActorPage{Actors: page.Followers, Cursor: page.Cursor}, nil
}

func (c *Client) GetFollows(ctx context.Context, actor, cursor string, limit int) (*ActorPage, error) {
	params := listParams(cursor, limit)
	params.Set("actor", actor)

	var page followerPage
	if err := c.get(ctx, "app.bsky.graph.getFollows", params, &page); err != nil {
		return nil, err
	}
	return &ActorPage{Actors: page.Follows, Cursor: page.Cursor}, nil
}

// LikesPage lists the accounts that liked a subject post.
type LikesPage struct {
	URI    string `json:"uri"`
	Cursor string `json:"cursor,omitempty"`
	Likes  []struct {
		Actor     model.ProfileViewBasic `json:"actor"`
		CreatedAt string                 `json:"createdAt"`
		IndexedAt string                 `json:"indexedAt"`
	} `json:"likes"`
}

func (c *Client) GetLikes(ctx context.Context, uri, cursor string, limit int) (*LikesPage, error) {
	params := listParams(cursor, limit)
	params.Set("uri", uri)

	var page LikesPage
	if err := c.get(ctx, "app.bsky.feed.getLikes", params, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) GetMutes(ctx context.Context, cursor string, limit int) (*ActorPage, error) {
	var page struct {
		Mutes  []model.ProfileViewBasic `json:"mutes"`
		Cursor string                   `json:"cursor,omitempty"`
	}
	if err := c.get(ctx, "app.bsky.graph.getMutes", listParams(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &ActorPage{Actors: page.Mutes, Cursor: page.Cursor}, nil
}

func (c *Client) GetBlocks(ctx context.Context, cursor string, limit int) (*ActorPage, error) {
	var page struct {
		Blocks []model.ProfileViewBasic `json:"blocks"`
		Cursor string                   `json:"cursor,omitempty"`
	}
	if err := c.get(ctx, "app.bsky.graph.getBlocks", listParams(cursor, limit), &page); err != nil {
		return nil, err
	}
	return &ActorPage{Actors: page.Blocks, Cursor: page.Cursor}, nil
}

type ConvoPage struct {
	Convos []model.ConvoView `json:"convos"`
	Cursor string            `json:"cursor,omitempty"`
}

// ListConvos reaches the chat backend through the service proxy header.
func (c *Client) ListConvos(ctx context.Context, cursor string, limit int) (*ConvoPage, error) {
	var page ConvoPage
	err := c.rpc.Do(ctx, xrpc.Request{
		Method: http.MethodGet,
		NSID:   "chat.bsky.convo.listConvos",
		Params: listParams(cursor, limit),
		Proxy:  chatServiceProxy,
	}, &page)
	if err != nil {
		return nil, err
	}
	return &page, nil
}

func (c *Client) Bookmark(ctx context.Context, subject model.StrongRef) error {
	return c.post(ctx, "app.bsky.bookmark.createBookmark", map[string]any{"subject": subject}, nil)
}

func (c *Client) Unbookmark(ctx context.Context, subject model.StrongRef) error {
	return c.post(ctx, "app.bsky.bookmark.deleteBookmark", map[string]any{"subject": subject}, nil)
}
