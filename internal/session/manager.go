// Package session owns the client's single mutable shared resource: the
// authenticated session. All mutation goes through the Manager; readers get
// immutable-at-read-time snapshots.
package session

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/hobosky/hobosky-go/internal/model"
	"github.com/hobosky/hobosky-go/internal/store"
	"github.com/hobosky/hobosky-go/internal/xrpc"
)

const (
	nsidCreateSession  = "com.atproto.server.createSession"
	nsidGetSession     = "com.atproto.server.getSession"
	nsidRefreshSession = "com.atproto.server.refreshSession"
	nsidDeleteSession  = "com.atproto.server.deleteSession"
)

type Manager struct {
	store  store.Store
	client *xrpc.Client

	mu        sync.Mutex
	session   *model.Session
	listeners map[int]func(*model.Session)
	nextID    int

	refresh singleflight.Group
}

// NewManager loads any persisted endpoint and session. The loaded session is
// not validated here; call Resume on startup for that.
func NewManager(st store.Store, client *xrpc.Client) *Manager {
	m := &Manager{
		store:     st,
		client:    client,
		listeners: make(map[int]func(*model.Session)),
	}

	if service, err := st.LoadService(); err != nil {
		log.Warn().Err(err).Msg("could not load persisted service endpoint")
	} else if service != "" {
		client.SetService(service)
	}

	if session, err := st.LoadSession(); err != nil {
		log.Warn().Err(err).Msg("could not load persisted session")
	} else {
		m.session = session
	}
	return m
}

// Session returns a snapshot of the current session, or nil when logged out.
func (m *Manager) Session() *model.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session.Clone()
}

func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.session != nil
}

func (m *Manager) DID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.DID
}

func (m *Manager) Handle() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.Handle
}

// AccessToken implements xrpc.Authenticator.
func (m *Manager) AccessToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.AccessJwt
}

// OnChange registers a session observer and returns its unsubscribe func.
// Each successful login, refresh, resume merge and logout fires exactly one
// notification carrying the new session snapshot (nil when logged out).
func (m *Manager) OnChange(cb func(*model.Session)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = cb
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Login authenticates against the given endpoint (or the current one when
// service is empty), stores the session and endpoint, and notifies observers.
// Invalid credentials surface as *xrpc.AuthError with the server's message.
func (m *Manager) Login(ctx context.Context, identifier, password, service string) (*model.Session, error) {
	if service != "" {
		m.client.SetService(service)
		if err := m.store.SaveService(service); err != nil {
			log.Warn().Err(err).Msg("could not persist service endpoint")
		}
	}

	var session model.Session
	err := m.client.Do(ctx, xrpc.Request{
		Method: http.MethodPost,
		NSID:   nsidCreateSession,
		Body: map[string]string{
			"identifier": identifier,
			"password":   password,
		},
		NoAuth: true,
	}, &session)
	if err != nil {
		var pe *xrpc.ProtocolError
		if errors.As(err, &pe) && (pe.StatusCode == http.StatusUnauthorized || pe.StatusCode == http.StatusBadRequest) {
			return nil, &xrpc.AuthError{Message: pe.Message}
		}
		return nil, err
	}

	m.setSession(&session)
	log.Info().Str("handle", session.Handle).Str("did", session.DID).Msg("logged in")
	return session.Clone(), nil
}

// Resume validates a persisted session with a lightweight getSession call,
// merging the server-reported fields in. If validation fails it attempts
// exactly one refresh; if that also fails the session is cleared. Resume
// never returns an error for a failed resume: callers read the terminal
// state afterward.
func (m *Manager) Resume(ctx context.Context) *model.Session {
	m.mu.Lock()
	current := m.session
	m.mu.Unlock()
	if current == nil {
		return nil
	}

	var remote model.Session
	err := m.client.Do(ctx, xrpc.Request{
		Method: http.MethodGet,
		NSID:   nsidGetSession,
	}, &remote)
	if err == nil {
		m.mu.Lock()
		if m.session != nil {
			m.session.Merge(&remote)
		}
		session := m.session
		m.mu.Unlock()
		m.persist(session)
		m.notify()
		log.Debug().Str("handle", remote.Handle).Msg("session resumed")
		return session.Clone()
	}

	log.Debug().Err(err).Msg("session validation failed, attempting refresh")
	if err := m.Refresh(ctx); err != nil {
		return nil
	}
	return m.Session()
}

// Refresh exchanges the refresh token for new credentials. Single-flight:
// concurrent callers share one in-flight refresh and observe the same
// outcome. On failure the session is cleared entirely and every waiter gets
// *xrpc.SessionExpiredError. Implements xrpc.Authenticator.
func (m *Manager) Refresh(ctx context.Context) error {
	_, err, _ := m.refresh.Do("refresh", func() (any, error) {
		return nil, m.doRefresh(ctx)
	})
	return err
}

func (m *Manager) doRefresh(ctx context.Context) error {
	m.mu.Lock()
	var refreshJwt string
	if m.session != nil {
		refreshJwt = m.session.RefreshJwt
	}
	m.mu.Unlock()

	if refreshJwt == "" {
		m.setSession(nil)
		return &xrpc.SessionExpiredError{Err: errors.New("no refresh token")}
	}

	var session model.Session
	err := m.client.Do(ctx, xrpc.Request{
		Method: http.MethodPost,
		NSID:   nsidRefreshSession,
		Bearer: refreshJwt,
	}, &session)
	if err != nil {
		log.Warn().Err(err).Msg("session refresh failed, logging out")
		m.setSession(nil)
		return &xrpc.SessionExpiredError{Err: err}
	}

	m.mu.Lock()
	if m.session == nil {
		m.session = &session
	} else {
		m.session.Merge(&session)
	}
	updated := m.session
	m.mu.Unlock()
	m.persist(updated)
	m.notify()
	log.Debug().Str("did", session.DID).Msg("session refreshed")
	return nil
}

// Logout invalidates the session server-side on a best-effort basis, then
// unconditionally clears local and persisted state.
func (m *Manager) Logout(ctx context.Context) {
	if m.IsAuthenticated() {
		err := m.client.Do(ctx, xrpc.Request{
			Method: http.MethodPost,
			NSID:   nsidDeleteSession,
		}, nil)
		if err != nil {
			log.Debug().Err(err).Msg("server-side session delete failed")
		}
	}
	m.setSession(nil)
	log.Info().Msg("logged out")
}

func (m *Manager) setSession(session *model.Session) {
	m.mu.Lock()
	unchanged := m.session == nil && session == nil
	m.session = session
	m.mu.Unlock()
	if unchanged {
		// Already logged out; observers were told once.
		return
	}
	m.persist(session)
	m.notify()
}

func (m *Manager) persist(session *model.Session) {
	var err error
	if session == nil {
		err = m.store.ClearSession()
	} else {
		err = m.store.SaveSession(session)
	}
	if err != nil {
		// In-memory state stays authoritative; a failed write means the next
		// process start resumes from stale or missing credentials.
		log.Error().Err(err).Msg("could not persist session")
	}
}

func (m *Manager) notify() {
	m.mu.Lock()
	snapshot := m.session.Clone()
	callbacks := make([]func(*model.Session), 0, len(m.listeners))
	for _, cb := range m.listeners {
		callbacks = append(callbacks, cb)
	}
	m.mu.Unlock()

	for _, cb := range callbacks {
		cb(snapshot)
	}
}
