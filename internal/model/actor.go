package model

// ProfileViewBasic is the compact actor representation carried by list
// endpoints (followers, mutes, blocks, search results).
type ProfileViewBasic struct {
	DID         string       `json:"did"`
	Handle      string       `json:"handle"`
	DisplayName string       `json:"displayName,omitempty"`
	Avatar      string       `json:"avatar,omitempty"`
	Viewer      *ActorViewer `json:"viewer,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
}

type ProfileViewDetailed struct {
	ProfileViewBasic
	Banner         string     `json:"banner,omitempty"`
	Description    string     `json:"description,omitempty"`
	FollowsCount   int64      `json:"followsCount,omitempty"`
	FollowersCount int64      `json:"followersCount,omitempty"`
	PostsCount     int64      `json:"postsCount,omitempty"`
	IndexedAt      string     `json:"indexedAt,omitempty"`
	PinnedPost     *StrongRef `json:"pinnedPost,omitempty"`
}

// ActorViewer is the requesting account's relationship to an actor. The
// Following / Blocking fields hold the AT-URI of the viewer's own record when
// the relation exists, which is exactly what a delete needs later.
type ActorViewer struct {
	Muted      bool   `json:"muted,omitempty"`
	BlockedBy  bool   `json:"blockedBy,omitempty"`
	Blocking   string `json:"blocking,omitempty"`
	Following  string `json:"following,omitempty"`
	FollowedBy string `json:"followedBy,omitempty"`
}
