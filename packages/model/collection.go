package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a request path does not match anything in a collection.
var ErrNotFound = errors.New("not found")

// Folder groups requests and nested folders inside a collection.
type Folder struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Folders  []*Folder  `json:"folders,omitempty"`
	Requests []*Request `json:"requests,omitempty"`
}

// Collection is the root of a request tree.
type Collection struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Folders     []*Folder  `json:"folders,omitempty"`
	Requests    []*Request `json:"requests,omitempty"`
}

func NewCollection(name string) *Collection {
	return &Collection{
		ID:   NewID(),
		Name: name,
	}
}

func NewFolder(name string) *Folder {
	return &Folder{
		ID:   NewID(),
		Name: name,
	}
}

// NewID returns a fresh identifier for collections, folders and requests.
func NewID() string {
	return uuid.New().String()
}

// WalkFunc is called for every request with the slash-joined folder path leading to it.
type WalkFunc func(folderPath string, req *Request) error

// Walk visits requests depth-first: a folder's own requests come before its
// subfolders, and top-level requests come before top-level folders.
// Returning an error from fn stops the walk.
func (c *Collection) Walk(fn WalkFunc) error {
	for _, r := range c.Requests {
		if err := fn("", r); err != nil {
			return err
		}
	}
	for _, f := range c.Folders {
		if err := f.walk("", fn); err != nil {
			return err
		}
	}
	return nil
}

func (f *Folder) walk(prefix string, fn WalkFunc) error {
	path := f.Name
	if prefix != "" {
		path = prefix + "/" + f.Name
	}
	for _, r := range f.Requests {
		if err := fn(path, r); err != nil {
			return err
		}
	}
	for _, sub := range f.Folders {
		if err := sub.walk(path, fn); err != nil {
			return err
		}
	}
	return nil
}

// Find resolves "folder/sub/request name" to a request. A bare name matches a
// top-level request first, then the request ID anywhere in the tree.
func (c *Collection) Find(path string) (*Request, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrNotFound
	}

	parts := strings.Split(path, "/")
	folders, requests := c.Folders, c.Requests
	for _, part := range parts[:len(parts)-1] {
		next := findFolder(folders, part)
		if next == nil {
			return nil, ErrNotFound
		}
		folders, requests = next.Folders, next.Requests
	}

	name := parts[len(parts)-1]
	for _, r := range requests {
		if r.Name == name {
			return r, nil
		}
	}

	if len(parts) == 1 {
		var found *Request
		_ = c.Walk(func(_ string, r *Request) error {
			if r.ID == name {
				found = r
				return errStopWalk
			}
			return nil
		})
		if found != nil {
			return found, nil
		}
	}
	return nil, ErrNotFound
}

// FindFolder resolves a slash-separated folder path.
func (c *Collection) FindFolder(path string) (*Folder, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, ErrNotFound
	}
	folders := c.Folders
	var current *Folder
	for _, part := range strings.Split(path, "/") {
		current = findFolder(folders, part)
		if current == nil {
			return nil, ErrNotFound
		}
		folders = current.Folders
	}
	return current, nil
}

// Replace swaps the request with the same ID for updated. It reports whether
// a request was replaced.
func (c *Collection) Replace(updated *Request) bool {
	if replaceIn(c.Requests, updated) {
		return true
	}
	var replaced bool
	var visit func(fs []*Folder)
	visit = func(fs []*Folder) {
		for _, f := range fs {
			if replaced {
				return
			}
			if replaceIn(f.Requests, updated) {
				replaced = true
				return
			}
			visit(f.Folders)
		}
	}
	visit(c.Folders)
	return replaced
}

// Count returns the number of requests in the collection.
func (c *Collection) Count() int {
	n := 0
	_ = c.Walk(func(string, *Request) error {
		n++
		return nil
	})
	return n
}

var errStopWalk = errors.New("stop walk")

func findFolder(folders []*Folder, name string) *Folder {
	for _, f := range folders {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func replaceIn(requests []*Request, updated *Request) bool {
	for i, r := range requests {
		if r.ID != "" && r.ID == updated.ID {
			requests[i] = updated
			return true
		}
	}
	return false
}
