// Package store persists the two pieces of client state that survive process
// restarts: the serialized session and the selected service endpoint. The
// session manager is the sole writer; the stored copy is never the authority.
package store

import "github.com/hobosky/hobosky-go/internal/model"

const (
	KeySession = "hobosky:session"
	KeyService = "hobosky:service"
)

type Store interface {
	// LoadSession returns the persisted session, or nil when none exists.
	// A corrupt entry is treated as absent.
	LoadSession() (*model.Session, error)
	SaveSession(session *model.Session) error
	ClearSession() error

	// LoadService returns the persisted endpoint, or "" when none is set.
	LoadService() (string, error)
	SaveService(service string) error
}
