package workspace

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

type fakeRepo struct {
	savedRequests []*model.Request
	savedSets     int
	err           error
}

func (f *fakeRepo) SaveRequest(_ context.Context, req *model.Request) error {
	if f.err != nil {
		return f.err
	}
	f.savedRequests = append(f.savedRequests, req)
	return nil
}

func (f *fakeRepo) SaveEnvironments(_ context.Context, _ *env.Set) error {
	if f.err != nil {
		return f.err
	}
	f.savedSets++
	return nil
}

func newTestRequest() *model.Request {
	req := model.NewRequest("get user", "GET", "{{baseUrl}}/users/1")
	req.ID = model.NewID()
	req.AddHeader("Accept", "application/json")
	return req
}

func TestRequestEditor_CleanOnOpen(t *testing.T) {
	ed := NewRequestEditor(newTestRequest(), &fakeRepo{})

	assert.False(t, ed.IsDirty())
	assert.False(t, ed.CanSave())
	assert.False(t, ed.CanRevert())
}

func TestRequestEditor_EditsNotify(t *testing.T) {
	ed := NewRequestEditor(newTestRequest(), &fakeRepo{})
	var states []bool
	ed.OnChange(func(dirty bool) { states = append(states, dirty) })

	ed.SetURL("{{baseUrl}}/users/2")
	ed.SetURL("{{baseUrl}}/users/1")

	assert.Equal(t, []bool{true, false}, states)
	assert.False(t, ed.IsDirty())
}

func TestRequestEditor_SaveGated(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	ed := NewRequestEditor(newTestRequest(), repo)

	saved, err := ed.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Empty(t, repo.savedRequests)

	ed.SetMethod("post")
	ed.SetBody(`{"a":1}`)
	assert.True(t, ed.CanSave())

	var last bool
	ed.OnChange(func(dirty bool) { last = dirty })

	saved, err = ed.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	require.Len(t, repo.savedRequests, 1)
	assert.Equal(t, "POST", repo.savedRequests[0].Method)
	assert.NotSame(t, ed.Request(), repo.savedRequests[0])
	assert.False(t, ed.IsDirty())
	assert.False(t, last)
}

func TestRequestEditor_SaveFailureKeepsDirty(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	ed := NewRequestEditor(newTestRequest(), repo)
	ed.SetName("renamed")

	saved, err := ed.Save(context.Background())
	require.Error(t, err)
	assert.False(t, saved)
	assert.True(t, ed.IsDirty())
}

func TestRequestEditor_Revert(t *testing.T) {
	req := newTestRequest()
	ed := NewRequestEditor(req, &fakeRepo{})

	require.NoError(t, ed.AddEntry(QueryParams, "page", "2"))
	require.NoError(t, ed.UpdateEntry(Headers, 0, "Accept", "text/plain"))
	ed.SetAuth(model.Auth{Type: model.AuthBearer, Token: "t"})
	ed.SetSelected(true)
	require.True(t, ed.IsDirty())

	require.NoError(t, ed.Revert())

	assert.False(t, ed.IsDirty())
	assert.Empty(t, req.QueryParams)
	assert.Equal(t, "application/json", req.Headers[0].Value)
	assert.Equal(t, model.AuthNone, req.Auth.Type)
	assert.True(t, req.Selected)
}

func TestRequestEditor_SelectionIsNotAnEdit(t *testing.T) {
	ed := NewRequestEditor(newTestRequest(), &fakeRepo{})
	ed.SetSelected(true)
	assert.False(t, ed.IsDirty())
}

func TestRequestEditor_Entries(t *testing.T) {
	req := newTestRequest()
	ed := NewRequestEditor(req, &fakeRepo{})

	require.NoError(t, ed.AddEntry(Cookies, "session", "abc"))
	assert.True(t, ed.IsDirty())

	require.NoError(t, ed.RemoveEntry(Cookies, 0))
	assert.False(t, ed.IsDirty())

	require.NoError(t, ed.SetEntryEnabled(Headers, 0, false))
	assert.True(t, ed.IsDirty(), "toggling an entry is an edit")
	require.NoError(t, ed.SetEntryEnabled(Headers, 0, true))
	assert.False(t, ed.IsDirty())

	err := ed.RemoveEntry(Headers, 5)
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	err = ed.UpdateEntry(QueryParams, -1, "a", "b")
	assert.ErrorIs(t, err, ErrIndexOutOfRange)
	assert.Error(t, ed.AddEntry(Section(9), "a", "b"))
}

func newTestSet(t *testing.T) *env.Set {
	t.Helper()
	set := &env.Set{}
	dev := env.NewEnvironment("dev")
	dev.Set("baseUrl", "http://localhost")
	require.NoError(t, set.Add(dev))
	require.NoError(t, set.Add(env.NewEnvironment("prod")))
	return set
}

func TestEnvironmentEditor(t *testing.T) {
	ctx := context.Background()
	repo := &fakeRepo{}
	set := newTestSet(t)

	ed, err := NewEnvironmentEditor(set, "dev", repo)
	require.NoError(t, err)
	assert.False(t, ed.IsDirty())

	var states []bool
	ed.OnChange(func(dirty bool) { states = append(states, dirty) })

	ed.SetVariable("token", "abc")
	assert.True(t, ed.CanSave())
	assert.True(t, ed.UnsetVariable("token"))
	assert.False(t, ed.UnsetVariable("token"))
	assert.Equal(t, []bool{true, false}, states)

	saved, err := ed.Save(ctx)
	require.NoError(t, err)
	assert.False(t, saved)
	assert.Zero(t, repo.savedSets)

	ed.SetVariable("baseUrl", "http://dev.example.com")
	saved, err = ed.Save(ctx)
	require.NoError(t, err)
	assert.True(t, saved)
	assert.Equal(t, 1, repo.savedSets)
	assert.False(t, ed.CanRevert())
}

func TestEnvironmentEditor_Rename(t *testing.T) {
	set := newTestSet(t)
	ed, err := NewEnvironmentEditor(set, "dev", &fakeRepo{})
	require.NoError(t, err)

	assert.ErrorIs(t, ed.Rename("prod"), env.ErrDuplicateEnvironment)
	assert.False(t, ed.IsDirty())

	require.NoError(t, ed.Rename("development"))
	assert.True(t, ed.IsDirty())
	_, err = set.Get("development")
	assert.NoError(t, err)

	require.NoError(t, ed.Revert())
	assert.Equal(t, "dev", ed.Environment().Name)
}

func TestEnvironmentEditor_ReplaceVariablesAndRevert(t *testing.T) {
	set := newTestSet(t)
	ed, err := NewEnvironmentEditor(set, "dev", &fakeRepo{})
	require.NoError(t, err)

	ed.ReplaceVariables([]env.Variable{{Key: "a", Value: "1"}, {Key: "a", Value: "2"}})
	assert.Equal(t, []env.Variable{{Key: "a", Value: "2"}}, ed.Environment().Variables)

	require.NoError(t, ed.Revert())
	assert.Equal(t, []env.Variable{{Key: "baseUrl", Value: "http://localhost"}}, ed.Environment().Variables)
	assert.False(t, ed.IsDirty())
}

func TestNewEnvironmentEditor_Missing(t *testing.T) {
	_, err := NewEnvironmentEditor(newTestSet(t), "nope", &fakeRepo{})
	assert.ErrorIs(t, err, env.ErrEnvironmentNotFound)
}
