package workspace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	hithttp "github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

type fakeRecorder struct {
	entries []history.Entry
}

func (f *fakeRecorder) Record(_ context.Context, e history.Entry) (int64, error) {
	f.entries = append(f.entries, e)
	return int64(len(f.entries)), nil
}

func senderSet(t *testing.T, baseURL string) *env.Set {
	t.Helper()
	set := &env.Set{}
	globals := env.NewEnvironment("globals")
	globals.Set("baseUrl", "http://unused.invalid")
	globals.Set("token", "global-token")
	dev := env.NewEnvironment("dev")
	dev.Set("baseUrl", baseURL)
	require.NoError(t, set.Add(globals))
	require.NoError(t, set.Add(dev))
	require.NoError(t, set.SetGlobal("globals"))
	require.NoError(t, set.Activate("dev"))
	return set
}

func TestSender_Send(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users", r.URL.Path)
		assert.Equal(t, "Bearer global-token", r.Header.Get("Authorization"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	sender := NewSender(hithttp.NewClient(), senderSet(t, server.URL), WithRecorder(recorder))

	req := model.NewRequest("list users", "GET", "{{baseUrl}}/users")
	req.AddQueryParam("page", "2")
	req.Auth = model.Auth{Type: model.AuthBearer, Token: "{{token}}"}

	result, err := sender.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 200, result.Response.StatusCode)
	assert.Equal(t, "dev", result.Environment)
	assert.Equal(t, server.URL+"/users", result.Request.URL)
	assert.Equal(t, "{{baseUrl}}/users", req.URL, "the saved request is not modified")
	assert.Empty(t, result.Unresolved)

	require.Len(t, recorder.entries, 1)
	entry := recorder.entries[0]
	assert.Equal(t, "list users", entry.RequestPath)
	assert.Equal(t, "dev", entry.Environment)
	assert.Equal(t, "GET", entry.Method)
	assert.Equal(t, 200, entry.Status)
	assert.Empty(t, entry.Error)
}

func TestSender_UnresolvedPathIsSent(t *testing.T) {
	var gotPath string
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	recorder := &fakeRecorder{}
	sender := NewSender(hithttp.NewClient(), &env.Set{}, WithRecorder(recorder))

	req := model.NewRequest("r", "GET", server.URL+"/users/{{id}}")
	result, err := sender.Send(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, 1, hits)
	assert.Equal(t, "/users/{{id}}", gotPath)
	assert.Equal(t, http.StatusNotFound, result.Response.StatusCode)
	assert.Equal(t, []string{"id"}, result.Unresolved)
	assert.Equal(t, server.URL+"/users/{{id}}", result.Request.URL)
	require.Len(t, recorder.entries, 1)
	assert.Empty(t, recorder.entries[0].Error)
}

func TestSender_UnresolvedHost(t *testing.T) {
	recorder := &fakeRecorder{}
	sender := NewSender(hithttp.NewClient(), &env.Set{}, WithRecorder(recorder))

	req := model.NewRequest("broken", "GET", "{{host}}/x")
	result, err := sender.SendAs(context.Background(), "folder/broken", req)

	require.ErrorIs(t, err, ErrUnresolvedURL)
	assert.Nil(t, result.Response)
	assert.Equal(t, []string{"host"}, result.Unresolved)
	require.Len(t, recorder.entries, 1)
	assert.Equal(t, "folder/broken", recorder.entries[0].RequestPath)
	assert.Contains(t, recorder.entries[0].Error, "host")
}

func TestSender_Resolve(t *testing.T) {
	sender := NewSender(hithttp.NewClient(), senderSet(t, "http://dev.local"))

	req := model.NewRequest("r", "POST", "{{baseUrl}}/items")
	req.Body = `{"owner":"{{owner}}"}`
	req.Headers = []model.KeyValue{
		{Key: "X-Skip", Value: "{{disabledOnly}}", Enabled: false},
		{Key: "X-Id", Value: "{{$guid}}", Enabled: true},
	}

	resolved, unresolved := sender.Resolve(req)

	assert.Equal(t, "http://dev.local/items", resolved.URL)
	assert.Len(t, resolved.Headers[1].Value, 36)
	assert.Equal(t, []string{"owner"}, unresolved)
}

func TestSender_NilSet(t *testing.T) {
	sender := NewSender(hithttp.NewClient(), nil)
	assert.NotNil(t, sender.Environments())
}
