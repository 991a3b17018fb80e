package workspace

import (
	"context"
	"fmt"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/snapshot"
)

// EnvironmentEditor edits one member of an environment set. Saving writes
// the whole set, since environments are stored together.
type EnvironmentEditor struct {
	set      *env.Set
	env      *env.Environment
	tracker  *snapshot.Tracker
	repo     Repository
	onChange ChangeFunc
}

func NewEnvironmentEditor(set *env.Set, name string, repo Repository) (*EnvironmentEditor, error) {
	e, err := set.Get(name)
	if err != nil {
		return nil, err
	}
	return &EnvironmentEditor{
		set:     set,
		env:     e,
		tracker: snapshot.NewTracker(e),
		repo:    repo,
	}, nil
}

func (e *EnvironmentEditor) OnChange(fn ChangeFunc) {
	e.onChange = fn
}

func (e *EnvironmentEditor) Environment() *env.Environment {
	return e.env
}

func (e *EnvironmentEditor) IsDirty() bool {
	return e.tracker.IsDirty()
}

func (e *EnvironmentEditor) CanSave() bool {
	return e.IsDirty()
}

func (e *EnvironmentEditor) CanRevert() bool {
	return e.IsDirty()
}

func (e *EnvironmentEditor) changed() {
	if e.onChange != nil {
		e.onChange(e.tracker.IsDirty())
	}
}

// Rename fails when another environment already uses name.
func (e *EnvironmentEditor) Rename(name string) error {
	if existing, err := e.set.Get(name); err == nil && existing != e.env {
		return fmt.Errorf("%w: %s", env.ErrDuplicateEnvironment, name)
	}
	e.env.Name = name
	e.changed()
	return nil
}

func (e *EnvironmentEditor) SetVariable(key, value string) {
	e.env.Set(key, value)
	e.changed()
}

// UnsetVariable removes key and reports whether it existed.
func (e *EnvironmentEditor) UnsetVariable(key string) bool {
	removed := e.env.Unset(key)
	if removed {
		e.changed()
	}
	return removed
}

// ReplaceVariables swaps the whole variable table, as a grid editor does on
// commit. Later duplicates win.
func (e *EnvironmentEditor) ReplaceVariables(vars []env.Variable) {
	e.env.Variables = nil
	e.env.Import(vars)
	e.changed()
}

// Save persists the set when the environment is dirty and reports whether it did.
func (e *EnvironmentEditor) Save(ctx context.Context) (bool, error) {
	if !e.tracker.IsDirty() {
		return false, nil
	}
	if err := e.repo.SaveEnvironments(ctx, e.set); err != nil {
		return false, fmt.Errorf("save environment %q: %w", e.env.Name, err)
	}
	if err := e.tracker.MarkClean(); err != nil {
		return true, err
	}
	e.changed()
	return true, nil
}

func (e *EnvironmentEditor) Revert() error {
	if err := e.tracker.Revert(); err != nil {
		return fmt.Errorf("revert environment %q: %w", e.env.Name, err)
	}
	e.changed()
	return nil
}
