package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/hobosky/hobosky-go/internal/model"
)

// FileStore keeps the session and endpoint in a single JSON file, written
// atomically via rename. Mode 0600: the file holds live tokens.
type FileStore struct {
	path string
}

type fileState struct {
	Session *model.Session `json:"session,omitempty"`
	Service string         `json:"service,omitempty"`
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// DefaultSessionPath places the session file under the user config dir.
func DefaultSessionPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve config dir: %w", err)
	}
	return filepath.Join(dir, "hobosky", "session.json"), nil
}

func (s *FileStore) LoadSession() (*model.Session, error) {
	state, err := s.read()
	if err != nil {
		return nil, err
	}
	return state.Session, nil
}

func (s *FileStore) SaveSession(session *model.Session) error {
	return s.update(func(state *fileState) {
		state.Session = session
	})
}

func (s *FileStore) ClearSession() error {
	return s.update(func(state *fileState) {
		state.Session = nil
	})
}

func (s *FileStore) LoadService() (string, error) {
	state, err := s.read()
	if err != nil {
		return "", err
	}
	return state.Service, nil
}

func (s *FileStore) SaveService(service string) error {
	return s.update(func(state *fileState) {
		state.Service = service
	})
}

func (s *FileStore) read() (*fileState, error) {
	var state fileState
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &state, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read session file: %w", err)
	}
	if err := json.Unmarshal(data, &state); err != nil {
		// Corrupt state is unrecoverable; start logged out.
		log.Warn().Str("path", s.path).Err(err).Msg("discarding corrupt session file")
		return &fileState{}, nil
	}
	return &state, nil
}

func (s *FileStore) update(mutate func(*fileState)) error {
	state, err := s.read()
	if err != nil {
		return err
	}
	mutate(state)

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("encode session file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace session file: %w", err)
	}
	return nil
}
