package store

import (
	"context"
	"path/filepath"
)

// Session is the UI state restored when a workspace is reopened.
type Session struct {
	LastCollection string `json:"lastCollection,omitempty"`
	LastRequest    string `json:"lastRequest,omitempty"`
}

func (s *Store) LoadSession(ctx context.Context) (Session, error) {
	var session Session
	if err := ctx.Err(); err != nil {
		return session, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.readJSON(filepath.Join(s.dir, sessionFile), &session)
	return session, err
}

func (s *Store) SaveSession(ctx context.Context, session Session) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(filepath.Join(s.dir, sessionFile), session)
}
