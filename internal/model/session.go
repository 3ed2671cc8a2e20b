package model

// Session holds the credentials and identity for an authenticated account.
// The session manager is the only writer; everyone else works from snapshots.
type Session struct {
	DID             string `json:"did"`
	Handle          string `json:"handle"`
	Email           string `json:"email,omitempty"`
	EmailConfirmed  bool   `json:"emailConfirmed,omitempty"`
	EmailAuthFactor bool   `json:"emailAuthFactor,omitempty"`
	AccessJwt       string `json:"accessJwt"`
	RefreshJwt      string `json:"refreshJwt"`
	Active          *bool  `json:"active,omitempty"`
}

// Clone returns a copy safe to hand out to observers and callers.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	out := *s
	if s.Active != nil {
		active := *s.Active
		out.Active = &active
	}
	return &out
}

// Merge overlays server-reported fields onto the stored session, keeping
// credential fields the response does not carry. getSession responses report
// identity and account flags but no tokens; refreshSession responses carry
// fresh tokens.
func (s *Session) Merge(remote *Session) {
	if remote == nil {
		return
	}
	if remote.DID != "" {
		s.DID = remote.DID
	}
	if remote.Handle != "" {
		s.Handle = remote.Handle
	}
	if remote.Email != "" {
		s.Email = remote.Email
	}
	s.EmailConfirmed = remote.EmailConfirmed
	s.EmailAuthFactor = remote.EmailAuthFactor
	if remote.Active != nil {
		s.Active = remote.Active
	}
	if remote.AccessJwt != "" {
		s.AccessJwt = remote.AccessJwt
	}
	if remote.RefreshJwt != "" {
		s.RefreshJwt = remote.RefreshJwt
	}
}
