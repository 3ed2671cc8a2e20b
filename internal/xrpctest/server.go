// Package xrpctest provides an in-process fake PDS for package tests:
// register a handler per method NSID and inspect what was called.
package xrpctest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	calls    map[string]int
}

func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		handlers: make(map[string]http.HandlerFunc),
		calls:    make(map[string]int),
	}

	r := chi.NewRouter()
	r.HandleFunc("/xrpc/{nsid}", func(w http.ResponseWriter, req *http.Request) {
		nsid := chi.URLParam(req, "nsid")

		s.mu.Lock()
		s.calls[nsid]++
		h := s.handlers[nsid]
		s.mu.Unlock()

		if h == nil {
			WriteError(w, http.StatusNotFound, "MethodNotImplemented", "no handler for "+nsid)
			return
		}
		h(w, req)
	})

	s.Server = httptest.NewServer(r)
	t.Cleanup(s.Close)
	return s
}

// Handle registers (or replaces) the handler for one method NSID.
func (s *Server) Handle(nsid string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[nsid] = h
}

// Calls reports how many times the method was invoked.
func (s *Server) Calls(nsid string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[nsid]
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]string{
		"error":   code,
		"message": message,
	})
}

// BearerToken extracts the bearer credential from a request, or "".
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "
	auth := r.Header.Get("Authorization")
	if len(auth) <= len(prefix) || auth[:len(prefix)] != prefix {
		return ""
	}
	return auth[len(prefix):]
}
