package runner

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	hithttp "github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

type pathLog struct {
	mu    sync.Mutex
	paths []string
}

func (l *pathLog) add(p string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.paths = append(l.paths, p)
}

func (l *pathLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.paths...)
}

func testServer(t *testing.T, log *pathLog) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.add(r.URL.Path)
		switch r.URL.Path {
		case "/missing":
			w.WriteHeader(http.StatusNotFound)
		case "/flaky":
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusOK)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func testSender(t *testing.T, baseURL string) *workspace.Sender {
	t.Helper()
	set := &env.Set{}
	dev := env.NewEnvironment("dev")
	dev.Set("baseUrl", baseURL)
	require.NoError(t, set.Add(dev))
	require.NoError(t, set.Activate("dev"))
	return workspace.NewSender(hithttp.NewClient(), set)
}

func testCollection(paths ...string) *model.Collection {
	c := model.NewCollection("api")
	for _, p := range paths {
		c.Requests = append(c.Requests, model.NewRequest(p, "GET", "{{baseUrl}}/"+p))
	}
	return c
}

func TestNewRunner(t *testing.T) {
	t.Run("with nil config", func(t *testing.T) {
		r := NewRunner(nil, nil)
		assert.NotNil(t, r)
		assert.NotNil(t, r.config)
		assert.Nil(t, r.limiter)
	})

	t.Run("with rate", func(t *testing.T) {
		r := NewRunner(nil, &Config{Rate: 5})
		require.NotNil(t, r.limiter)
		assert.Equal(t, 5.0, float64(r.limiter.Limit()))
	})
}

func TestRunner_TreeOrder(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)

	c := testCollection("root")
	users := model.NewFolder("users")
	users.Requests = append(users.Requests, model.NewRequest("list", "GET", "{{baseUrl}}/users"))
	admin := model.NewFolder("admin")
	admin.Requests = append(admin.Requests, model.NewRequest("audit", "GET", "{{baseUrl}}/users/audit"))
	users.Folders = append(users.Folders, admin)
	c.Folders = append(c.Folders, users)
	c.Folders = append(c.Folders, &model.Folder{Name: "empty"})

	result, err := NewRunner(testSender(t, server.URL), nil).RunCollection(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, []string{"/root", "/users", "/users/audit"}, log.list())
	require.Len(t, result.Results, 3)
	assert.Equal(t, "root", result.Results[0].Path)
	assert.Equal(t, "users/list", result.Results[1].Path)
	assert.Equal(t, "users/admin/audit", result.Results[2].Path)
	assert.Equal(t, 3, result.Passed)
	assert.True(t, result.Success())
	assert.Equal(t, "api", result.Collection)
}

func TestRunner_Folder(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)

	c := testCollection("root")
	users := model.NewFolder("users")
	users.Requests = append(users.Requests, model.NewRequest("list", "GET", "{{baseUrl}}/users"))
	c.Folders = append(c.Folders, users)

	result, err := NewRunner(testSender(t, server.URL), &Config{Folder: "/users/"}).RunCollection(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, []string{"/users"}, log.list())
	assert.Equal(t, 1, result.Passed)

	_, err = NewRunner(testSender(t, server.URL), &Config{Folder: "nope"}).RunCollection(context.Background(), c)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestRunner_FailureAndBail(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)
	c := testCollection("a", "missing", "b")

	t.Run("continues without bail", func(t *testing.T) {
		result, err := NewRunner(testSender(t, server.URL), nil).RunCollection(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, 2, result.Passed)
		assert.Equal(t, 1, result.Failed)
		assert.False(t, result.Success())
		assert.False(t, result.Results[1].Passed)
		assert.Equal(t, 404, result.Results[1].Result.Response.StatusCode)
	})

	t.Run("bail skips the rest", func(t *testing.T) {
		result, err := NewRunner(testSender(t, server.URL), &Config{Bail: true}).RunCollection(context.Background(), c)
		require.NoError(t, err)
		assert.Equal(t, 1, result.Passed)
		assert.Equal(t, 1, result.Failed)
		assert.Equal(t, 1, result.Skipped)
		assert.Equal(t, "bail", result.Results[2].SkipReason)
	})
}

func TestRunner_TransportErrorFails(t *testing.T) {
	c := model.NewCollection("api")
	c.Requests = append(c.Requests, model.NewRequest("unresolved", "GET", "{{nowhere}}/x"))

	result, err := NewRunner(testSender(t, "http://unused"), nil).RunCollection(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Failed)
	assert.ErrorIs(t, result.Results[0].Error, workspace.ErrUnresolvedURL)
}

func TestRunner_NameFilter(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)
	c := testCollection("users-list", "users-get", "orders")

	result, err := NewRunner(testSender(t, server.URL), &Config{NameFilter: "users*"}).RunCollection(context.Background(), c)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Passed)
	assert.Equal(t, 1, result.Skipped)
	assert.Equal(t, "filtered out", result.Results[2].SkipReason)
}

func TestRunner_Retry(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)
	c := testCollection("flaky", "missing")

	cfg := &Config{Retries: 2, RetryDelay: time.Millisecond, RetryOn: []int{503}}
	result, err := NewRunner(testSender(t, server.URL), cfg).RunCollection(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Results[0].Attempts)
	assert.Equal(t, 1, result.Results[1].Attempts, "404 is not in RetryOn")
	assert.Equal(t, []string{"/flaky", "/flaky", "/flaky", "/missing"}, log.list())
}

func TestRunner_RateLimit(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)
	c := testCollection("a", "b", "c")

	start := time.Now()
	result, err := NewRunner(testSender(t, server.URL), &Config{Rate: 20}).RunCollection(context.Background(), c)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Passed)
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestRunner_ContextCanceled(t *testing.T) {
	log := &pathLog{}
	server := testServer(t, log)
	c := testCollection("a", "b")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewRunner(testSender(t, server.URL), &Config{Rate: 1}).RunCollection(ctx, c)
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, result)
	assert.Empty(t, result.Results)
	assert.Empty(t, log.list())
}

func TestMatchesPattern(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		want    bool
	}{
		{"anything", "", true},
		{"users-list", "users*", true},
		{"orders", "users*", false},
		{"get-users", "*users", true},
		{"all-users-here", "*users*", true},
		{"x", "*", true},
		{"exact", "exact", true},
		{"exact", "Exact", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, matchesPattern(tt.name, tt.pattern), "%s ~ %s", tt.name, tt.pattern)
	}
}
