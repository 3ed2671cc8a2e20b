package bsky

import (
	"context"
	"errors"

	"github.com/hobosky/hobosky-go/internal/model"
)

// EdgeState is the unified local representation of one reversible social
// relation: whether it is active, and the AT-URI of the viewer's own record
// when one exists (needed to reverse record-backed edges). URI is empty while
// a create is in flight and stays empty for edges that are not records
// (mutes).
type EdgeState struct {
	Active bool
	URI    string
}

// PostEngagement is the like/repost state a caller keeps next to a rendered
// post, seeded from the view's counters and viewer block.
type PostEngagement struct {
	Like        EdgeState
	LikeCount   int64
	Repost      EdgeState
	RepostCount int64
}

// EngagementFromView seeds engagement state from a fetched post view, so an
// edge established in an earlier session can still be reversed.
func EngagementFromView(post *model.PostView) PostEngagement {
	e := PostEngagement{
		LikeCount:   post.LikeCount,
		RepostCount: post.RepostCount,
	}
	if post.Viewer != nil {
		e.Like = EdgeState{Active: post.Viewer.Like != "", URI: post.Viewer.Like}
		e.Repost = EdgeState{Active: post.Viewer.Repost != "", URI: post.Viewer.Repost}
	}
	return e
}

// optimistic applies flip before the network call and revert if the call
// fails, so the UI never shows a mutation that silently failed. On success
// the committed record's URI (if any) is passed to store. Callers are
// expected to allow only one in-flight mutation per edge.
func optimistic(flip func(), commit func() (string, error), revert func(), store func(uri string)) error {
	flip()
	uri, err := commit()
	if err != nil {
		revert()
		return err
	}
	if store != nil {
		store(uri)
	}
	return nil
}

func (c *Client) toggleRecordEdge(ctx context.Context, collection string, state *EdgeState, count *int64, create func() (string, error)) error {
	if state.Active {
		uri := state.URI
		if uri == "" {
			return errors.New("edge has no record uri to delete")
		}
		return optimistic(
			func() {
				state.Active = false
				state.URI = ""
				if count != nil {
					*count--
				}
			},
			func() (string, error) {
				return "", c.deleteRecord(ctx, collection, uri)
			},
			func() {
				state.Active = true
				state.URI = uri
				if count != nil {
					*count++
				}
			},
			nil,
		)
	}

	return optimistic(
		func() {
			state.Active = true
			if count != nil {
				*count++
			}
		},
		create,
		func() {
			state.Active = false
			if count != nil {
				*count--
			}
		},
		func(uri string) { state.URI = uri },
	)
}

// ToggleLike likes or unlikes the subject post, updating engagement state
// optimistically and rolling back on failure.
func (c *Client) ToggleLike(ctx context.Context, subject model.StrongRef, e *PostEngagement) error {
	return c.toggleRecordEdge(ctx, collectionLike, &e.Like, &e.LikeCount, func() (string, error) {
		res, err := c.createRecord(ctx, collectionLike, newSubjectRecord(collectionLike, subject))
		if err != nil {
			return "", err
		}
		return res.URI, nil
	})
}

// ToggleRepost reposts or removes the repost of the subject post.
func (c *Client) ToggleRepost(ctx context.Context, subject model.StrongRef, e *PostEngagement) error {
	return c.toggleRecordEdge(ctx, collectionRepost, &e.Repost, &e.RepostCount, func() (string, error) {
		res, err := c.createRecord(ctx, collectionRepost, newSubjectRecord(collectionRepost, subject))
		if err != nil {
			return "", err
		}
		return res.URI, nil
	})
}

// ToggleFollow follows or unfollows the actor. followerCount may be nil when
// the caller is not showing one.
func (c *Client) ToggleFollow(ctx context.Context, did string, state *EdgeState, followerCount *int64) error {
	return c.toggleRecordEdge(ctx, collectionFollow, state, followerCount, func() (string, error) {
		res, err := c.createRecord(ctx, collectionFollow, newFollowRecord(collectionFollow, did))
		if err != nil {
			return "", err
		}
		return res.URI, nil
	})
}

// ToggleBlock blocks or unblocks the actor.
func (c *Client) ToggleBlock(ctx context.Context, did string, state *EdgeState) error {
	return c.toggleRecordEdge(ctx, collectionBlock, state, nil, func() (string, error) {
		res, err := c.createRecord(ctx, collectionBlock, newFollowRecord(collectionBlock, did))
		if err != nil {
			return "", err
		}
		return res.URI, nil
	})
}

// ToggleMute mutes or unmutes the actor. Mutes are not records; the edge has
// no URI and flips through dedicated endpoints.
func (c *Client) ToggleMute(ctx context.Context, did string, state *EdgeState) error {
	return c.toggleProcedureEdge(ctx, state, "app.bsky.graph.muteActor", "app.bsky.graph.unmuteActor", map[string]string{"actor": did})
}

// ToggleThreadMute mutes or unmutes notifications for a thread root.
func (c *Client) ToggleThreadMute(ctx context.Context, rootURI string, state *EdgeState) error {
	return c.toggleProcedureEdge(ctx, state, "app.bsky.graph.muteThread", "app.bsky.graph.unmuteThread", map[string]string{"root": rootURI})
}

func (c *Client) toggleProcedureEdge(ctx context.Context, state *EdgeState, muteNSID, unmuteNSID string, body map[string]string) error {
	nsid := muteNSID
	if state.Active {
		nsid = unmuteNSID
	}
	was := state.Active
	return optimistic(
		func() { state.Active = !was },
		func() (string, error) { return "", c.post(ctx, nsid, body, nil) },
		func() { state.Active = was },
		nil,
	)
}
