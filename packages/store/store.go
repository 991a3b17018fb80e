package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

const (
	collectionsDir   = "collections"
	environmentsFile = "environments.json"
	sessionFile      = "session.json"
)

// Store reads and writes one workspace directory. It is safe for concurrent use.
type Store struct {
	dir string
	mu  sync.Mutex
}

// Open prepares dir as a workspace, creating it when missing.
func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(filepath.Join(dir, collectionsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create workspace: %w", err)
	}
	return &Store{dir: dir}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// CollectionsDir returns the directory holding one file per collection.
func (s *Store) CollectionsDir() string {
	return filepath.Join(s.dir, collectionsDir)
}

// CollectionPath returns the file a collection is stored in.
func (s *Store) CollectionPath(id string) string {
	return filepath.Join(s.CollectionsDir(), id+".json")
}

// SaveCollection writes c to collections/<id>.json, assigning an ID when it has none.
func (s *Store) SaveCollection(ctx context.Context, c *model.Collection) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.ID == "" {
		c.ID = model.NewID()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.CollectionPath(c.ID), c)
}

// LoadCollection reads and validates one collection.
func (s *Store) LoadCollection(ctx context.Context, id string) (*model.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readCollection(s.CollectionPath(id))
}

func (s *Store) readCollection(path string) (*model.Collection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("collection %s: %w", strings.TrimSuffix(filepath.Base(path), ".json"), model.ErrNotFound)
		}
		return nil, fmt.Errorf("read collection: %w", err)
	}
	if err := ValidateCollection(data); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	var c model.Collection
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return &c, nil
}

// Collections loads every collection sorted by name. Files that fail to
// load are logged and skipped.
func (s *Store) Collections(ctx context.Context) ([]*model.Collection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(filepath.Join(s.dir, collectionsDir))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("list collections: %w", err)
	}

	var out []*model.Collection
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		c, err := s.readCollection(filepath.Join(s.dir, collectionsDir, entry.Name()))
		if err != nil {
			slog.Warn("skipping collection", "file", entry.Name(), "error", err)
			continue
		}
		out = append(out, c)
	}

	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

// FindCollection looks a collection up by ID, then by case-insensitive name.
func (s *Store) FindCollection(ctx context.Context, ref string) (*model.Collection, error) {
	all, err := s.Collections(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range all {
		if c.ID == ref {
			return c, nil
		}
	}
	for _, c := range all {
		if strings.EqualFold(c.Name, ref) {
			return c, nil
		}
	}
	return nil, fmt.Errorf("collection %q: %w", ref, model.ErrNotFound)
}

func (s *Store) DeleteCollection(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.CollectionPath(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("collection %s: %w", id, model.ErrNotFound)
		}
		return err
	}
	return nil
}

// SaveRequest writes req back into the collection that holds a request with
// the same ID.
func (s *Store) SaveRequest(ctx context.Context, req *model.Request) error {
	all, err := s.Collections(ctx)
	if err != nil {
		return err
	}
	for _, c := range all {
		if c.Replace(req) {
			return s.SaveCollection(ctx, c)
		}
	}
	return fmt.Errorf("request %q: %w", req.Name, model.ErrNotFound)
}

// EnvironmentsPath returns the file the environment set is stored in.
func (s *Store) EnvironmentsPath() string {
	return filepath.Join(s.dir, environmentsFile)
}

// LoadEnvironments returns the stored environment set, or an empty set when
// nothing has been saved yet. Extra global or active flags in a hand-edited
// file are dropped in favor of the first flagged environment.
func (s *Store) LoadEnvironments(ctx context.Context) (*env.Set, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	set := &env.Set{}
	found, err := s.readJSON(s.EnvironmentsPath(), set)
	if err != nil || !found {
		return set, err
	}
	set.Normalize()
	return set, nil
}

func (s *Store) SaveEnvironments(ctx context.Context, set *env.Set) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeJSON(s.EnvironmentsPath(), set)
}

func (s *Store) readJSON(path string, v any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}

func (s *Store) writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFileAtomic(path, append(data, '\n'))
}

func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create dir: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
