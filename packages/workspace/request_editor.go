package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/snapshot"
)

// Section names one of the key/value tables of a request.
type Section int

const (
	Headers Section = iota
	QueryParams
	Cookies
)

func (s Section) String() string {
	switch s {
	case Headers:
		return "headers"
	case QueryParams:
		return "query params"
	case Cookies:
		return "cookies"
	}
	return fmt.Sprintf("section(%d)", int(s))
}

type RequestEditor struct {
	req      *model.Request
	tracker  *snapshot.Tracker
	repo     Repository
	onChange ChangeFunc
}

// NewRequestEditor starts editing req with its current state as the clean baseline.
func NewRequestEditor(req *model.Request, repo Repository) *RequestEditor {
	return &RequestEditor{
		req:     req,
		tracker: snapshot.NewTracker(req),
		repo:    repo,
	}
}

// OnChange registers fn to be told about dirty state changes.
func (e *RequestEditor) OnChange(fn ChangeFunc) {
	e.onChange = fn
}

// Request returns the live request being edited.
func (e *RequestEditor) Request() *model.Request {
	return e.req
}

func (e *RequestEditor) IsDirty() bool {
	return e.tracker.IsDirty()
}

func (e *RequestEditor) CanSave() bool {
	return e.IsDirty()
}

func (e *RequestEditor) CanRevert() bool {
	return e.IsDirty()
}

func (e *RequestEditor) changed() {
	if e.onChange != nil {
		e.onChange(e.tracker.IsDirty())
	}
}

// Update applies an arbitrary mutation.
func (e *RequestEditor) Update(fn func(req *model.Request)) {
	fn(e.req)
	e.changed()
}

func (e *RequestEditor) SetName(name string) {
	e.Update(func(r *model.Request) { r.Name = name })
}

func (e *RequestEditor) SetURL(url string) {
	e.Update(func(r *model.Request) { r.URL = url })
}

func (e *RequestEditor) SetMethod(method string) {
	e.Update(func(r *model.Request) { r.Method = strings.ToUpper(method) })
}

func (e *RequestEditor) SetBody(body string) {
	e.Update(func(r *model.Request) { r.Body = body })
}

func (e *RequestEditor) SetAuth(auth model.Auth) {
	e.Update(func(r *model.Request) { r.Auth = auth })
}

// SetSelected toggles the transient selection flag. It never makes the
// request dirty.
func (e *RequestEditor) SetSelected(selected bool) {
	e.req.Selected = selected
}

func (e *RequestEditor) entries(section Section) (*[]model.KeyValue, error) {
	switch section {
	case Headers:
		return &e.req.Headers, nil
	case QueryParams:
		return &e.req.QueryParams, nil
	case Cookies:
		return &e.req.Cookies, nil
	}
	return nil, fmt.Errorf("unknown %s", section)
}

func (e *RequestEditor) entryAt(section Section, i int) (*[]model.KeyValue, error) {
	list, err := e.entries(section)
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= len(*list) {
		return nil, fmt.Errorf("%s[%d]: %w", section, i, ErrIndexOutOfRange)
	}
	return list, nil
}

// AddEntry appends an enabled entry to section.
func (e *RequestEditor) AddEntry(section Section, key, value string) error {
	list, err := e.entries(section)
	if err != nil {
		return err
	}
	*list = append(*list, model.KeyValue{Key: key, Value: value, Enabled: true})
	e.changed()
	return nil
}

// UpdateEntry replaces the key and value of entry i, keeping its enabled flag.
func (e *RequestEditor) UpdateEntry(section Section, i int, key, value string) error {
	list, err := e.entryAt(section, i)
	if err != nil {
		return err
	}
	(*list)[i].Key = key
	(*list)[i].Value = value
	e.changed()
	return nil
}

func (e *RequestEditor) SetEntryEnabled(section Section, i int, enabled bool) error {
	list, err := e.entryAt(section, i)
	if err != nil {
		return err
	}
	(*list)[i].Enabled = enabled
	e.changed()
	return nil
}

func (e *RequestEditor) RemoveEntry(section Section, i int) error {
	list, err := e.entryAt(section, i)
	if err != nil {
		return err
	}
	*list = append((*list)[:i], (*list)[i+1:]...)
	e.changed()
	return nil
}

// Save persists the request when it is dirty and reports whether it did.
func (e *RequestEditor) Save(ctx context.Context) (bool, error) {
	if !e.tracker.IsDirty() {
		return false, nil
	}
	if err := e.repo.SaveRequest(ctx, e.req.Clone()); err != nil {
		return false, fmt.Errorf("save request %q: %w", e.req.Name, err)
	}
	if err := e.tracker.MarkClean(); err != nil {
		return true, err
	}
	e.changed()
	return true, nil
}

// Revert discards unsaved edits.
func (e *RequestEditor) Revert() error {
	if err := e.tracker.Revert(); err != nil {
		return fmt.Errorf("revert request %q: %w", e.req.Name, err)
	}
	e.changed()
	return nil
}
