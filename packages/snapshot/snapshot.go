// Package snapshot provides change detection for requests and environments.
//
// A Token is the canonical JSON encoding of the fields a user can edit. Taking
// a token on load or save and comparing it against the live entity later tells
// whether the entity is dirty; restoring a token reverts the live entity.
package snapshot

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

const (
	KindRequest     = "request"
	KindEnvironment = "environment"
)

var (
	// ErrUnsupported is returned for entities without a tracked projection.
	ErrUnsupported = errors.New("unsupported entity type")
	// ErrKindMismatch is returned when a token is restored onto the wrong entity type.
	ErrKindMismatch = errors.New("snapshot kind does not match entity")
)

// Token is an opaque, comparable snapshot of an entity.
type Token string

type envelope struct {
	Kind  string          `json:"kind"`
	State json.RawMessage `json:"state"`
}

// requestState is the tracked projection of a request. Disabled entries and
// their Enabled flags are part of it, so toggling an entry counts as a change.
type requestState struct {
	Name        string           `json:"name"`
	URL         string           `json:"url"`
	Method      string           `json:"method"`
	Body        string           `json:"body"`
	Headers     []model.KeyValue `json:"headers,omitempty"`
	QueryParams []model.KeyValue `json:"queryParams,omitempty"`
	Cookies     []model.KeyValue `json:"cookies,omitempty"`
	Auth        model.Auth       `json:"auth"`
}

type environmentState struct {
	Name      string         `json:"name"`
	Variables []env.Variable `json:"variables,omitempty"`
}

// Take serializes the tracked fields of entity. It never mutates entity.
func Take(entity any) (Token, error) {
	kind, state, err := project(entity)
	if err != nil {
		return "", err
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return "", fmt.Errorf("encoding %s snapshot: %w", kind, err)
	}
	data, err := json.Marshal(envelope{Kind: kind, State: raw})
	if err != nil {
		return "", fmt.Errorf("encoding %s snapshot: %w", kind, err)
	}
	return Token(data), nil
}

// IsDirty reports whether entity differs from token. Failing to serialize
// the entity is logged and reported as dirty so unsaved work is never dropped
// silently.
func IsDirty(entity any, token Token) bool {
	current, err := Take(entity)
	if err != nil {
		slog.Warn("snapshot failed, treating entity as dirty", "error", err)
		return true
	}
	return current != token
}

// Restore writes the state captured in token back onto entity. Fields outside
// the tracked projection are left alone.
func Restore(entity any, token Token) error {
	var wrapped envelope
	if err := json.Unmarshal([]byte(token), &wrapped); err != nil {
		return fmt.Errorf("decoding snapshot: %w", err)
	}

	switch e := entity.(type) {
	case *model.Request:
		if e == nil {
			return fmt.Errorf("%w: nil request", ErrUnsupported)
		}
		if wrapped.Kind != KindRequest {
			return fmt.Errorf("%w: %s onto %s", ErrKindMismatch, wrapped.Kind, KindRequest)
		}
		var s requestState
		if err := json.Unmarshal(wrapped.State, &s); err != nil {
			return fmt.Errorf("decoding request snapshot: %w", err)
		}
		e.Name = s.Name
		e.URL = s.URL
		e.Method = s.Method
		e.Body = s.Body
		e.Headers = s.Headers
		e.QueryParams = s.QueryParams
		e.Cookies = s.Cookies
		e.Auth = s.Auth
		return nil
	case *env.Environment:
		if e == nil {
			return fmt.Errorf("%w: nil environment", ErrUnsupported)
		}
		if wrapped.Kind != KindEnvironment {
			return fmt.Errorf("%w: %s onto %s", ErrKindMismatch, wrapped.Kind, KindEnvironment)
		}
		var s environmentState
		if err := json.Unmarshal(wrapped.State, &s); err != nil {
			return fmt.Errorf("decoding environment snapshot: %w", err)
		}
		e.Name = s.Name
		e.Variables = s.Variables
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupported, entity)
}

func project(entity any) (string, any, error) {
	switch e := entity.(type) {
	case *model.Request:
		if e == nil {
			return "", nil, fmt.Errorf("%w: nil request", ErrUnsupported)
		}
		return KindRequest, requestState{
			Name:        e.Name,
			URL:         e.URL,
			Method:      e.Method,
			Body:        e.Body,
			Headers:     e.Headers,
			QueryParams: e.QueryParams,
			Cookies:     e.Cookies,
			Auth:        e.Auth,
		}, nil
	case *env.Environment:
		if e == nil {
			return "", nil, fmt.Errorf("%w: nil environment", ErrUnsupported)
		}
		return KindEnvironment, environmentState{
			Name:      e.Name,
			Variables: e.Variables,
		}, nil
	}
	return "", nil, fmt.Errorf("%w: %T", ErrUnsupported, entity)
}

// Tracker pairs a live entity with its last known-good token.
type Tracker struct {
	entity any
	token  Token
}

// NewTracker snapshots entity immediately. If that fails the tracker starts
// out dirty.
func NewTracker(entity any) *Tracker {
	t := &Tracker{entity: entity}
	if err := t.MarkClean(); err != nil {
		slog.Warn("initial snapshot failed", "error", err)
	}
	return t
}

// MarkClean re-snapshots the entity, typically after load or save.
func (t *Tracker) MarkClean() error {
	token, err := Take(t.entity)
	if err != nil {
		t.token = ""
		return err
	}
	t.token = token
	return nil
}

func (t *Tracker) IsDirty() bool {
	if t.token == "" {
		return true
	}
	return IsDirty(t.entity, t.token)
}

// Revert restores the entity from the last snapshot and re-snapshots it.
func (t *Tracker) Revert() error {
	if t.token == "" {
		return errors.New("no snapshot to revert to")
	}
	if err := Restore(t.entity, t.token); err != nil {
		return err
	}
	return t.MarkClean()
}

func (t *Tracker) Token() Token {
	return t.token
}

func (t *Tracker) Entity() any {
	return t.entity
}
