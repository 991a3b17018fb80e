package env

import (
	"fmt"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/builtin"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var uuidPattern = regexp.MustCompile(`[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}`)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		active   map[string]string
		global   map[string]string
		expected string
	}{
		{
			name:     "empty text",
			input:    "",
			active:   map[string]string{"a": "b"},
			expected: "",
		},
		{
			name:     "no placeholders",
			input:    "hello world",
			active:   map[string]string{"hello": "bye"},
			expected: "hello world",
		},
		{
			name:     "simple variable",
			input:    "hello {{name}}",
			active:   map[string]string{"name": "world"},
			expected: "hello world",
		},
		{
			name:     "multiple variables",
			input:    "{{greeting}} {{name}}!",
			active:   map[string]string{"greeting": "Hello"},
			global:   map[string]string{"name": "World"},
			expected: "Hello World!",
		},
		{
			name:     "active overrides global",
			input:    "{{host}}",
			active:   map[string]string{"host": "staging"},
			global:   map[string]string{"host": "prod"},
			expected: "staging",
		},
		{
			name:     "global fills the gaps",
			input:    "{{scheme}}://{{host}}",
			active:   map[string]string{"host": "api.local"},
			global:   map[string]string{"scheme": "https"},
			expected: "https://api.local",
		},
		{
			name:     "whitespace inside braces",
			input:    "{{  id }}",
			active:   map[string]string{"id": "7"},
			expected: "7",
		},
		{
			name:     "unresolved stays as-is",
			input:    "hello {{missing}}",
			expected: "hello {{missing}}",
		},
		{
			name:     "lookup is case-sensitive",
			input:    "{{Token}}",
			active:   map[string]string{"token": "x"},
			expected: "{{Token}}",
		},
		{
			name:     "percent-encoded placeholder",
			input:    "%7B%7Bk%7D%7D",
			active:   map[string]string{"k": "v"},
			expected: "v",
		},
		{
			name:     "percent-encoded placeholder with lowercase hex",
			input:    "/search?q=%7b%7bterm%7d%7d",
			active:   map[string]string{"term": "go"},
			expected: "/search?q=go",
		},
		{
			name:     "percent-encoded unresolved stays",
			input:    "%7B%7Bmissing%7D%7D",
			expected: "%7B%7Bmissing%7D%7D",
		},
		{
			name:     "nested resolution",
			input:    "{{a}}",
			active:   map[string]string{"a": "{{b}}", "b": "final"},
			expected: "final",
		},
		{
			name:     "nested across environments",
			input:    "{{url}}",
			active:   map[string]string{"host": "dev.local"},
			global:   map[string]string{"url": "https://{{host}}/v1"},
			expected: "https://dev.local/v1",
		},
		{
			name:     "encoded value resolves through brace step",
			input:    "%7B%7Bouter%7D%7D",
			active:   map[string]string{"outer": "{{inner}}", "inner": "done"},
			expected: "done",
		},
		{
			name:     "user variable named like system variable is ignored",
			input:    "{{$custom}}",
			active:   map[string]string{"$custom": "nope"},
			expected: "{{$custom}}",
		},
		{
			name:     "unknown system variable stays",
			input:    "{{$unknown}}",
			expected: "{{$unknown}}",
		},
		{
			name:     "empty braces stay",
			input:    "{{}} and {{ }}",
			expected: "{{}} and {{ }}",
		},
		{
			name:     "single closing brace is not a placeholder",
			input:    "{{name} and {{name}}",
			active:   map[string]string{"name": "x"},
			expected: "{{name} and x",
		},
		{
			name:     "end-to-end url",
			input:    "https://api.example.com/{{id}}",
			active:   map[string]string{"id": "42"},
			global:   map[string]string{},
			expected: "https://api.example.com/42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.input, tt.active, tt.global)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestResolve_EncodedAndBraceAgree(t *testing.T) {
	vars := map[string]string{"k": "v"}

	encoded := Resolve("%7B%7Bk%7D%7D", vars, nil)
	brace := Resolve("{{k}}", vars, nil)

	assert.Equal(t, "v", encoded)
	assert.Equal(t, encoded, brace)
}

func TestResolve_CycleTerminates(t *testing.T) {
	active := map[string]string{"a": "{{b}}", "b": "{{a}}"}

	done := make(chan string, 1)
	go func() {
		done <- Resolve("{{a}}", active, nil)
	}()

	select {
	case got := <-done:
		assert.True(t, HasUnresolved(got), "expected residual placeholder, got %q", got)
	case <-time.After(2 * time.Second):
		t.Fatal("Resolve did not terminate on a cyclic definition")
	}
}

func TestResolve_SelfReferenceTerminates(t *testing.T) {
	got := Resolve("{{a}}", map[string]string{"a": "x{{a}}"}, nil)

	assert.Equal(t, strings.Repeat("x", MaxPasses)+"{{a}}", got)
}

func TestResolve_SystemVariables(t *testing.T) {
	r := NewResolver()
	ts := time.Date(2023, time.December, 31, 23, 59, 58, 5_000_000, time.UTC)
	r.SetSystemVariables(builtin.NewRegistry(builtin.WithClock(func() time.Time { return ts })))
	local := ts.Local()

	tests := []struct {
		input    string
		expected string
	}{
		{"{{$timestamp}}", "1704067198"},
		{"{{$isoTimestamp}}", "2023-12-31T23:59:58.005Z"},
		{"{{ $ISOTIMESTAMP }}", "2023-12-31T23:59:58.005Z"},
		{"{{$date}}", local.Format("2006-01-02")},
		{"{{$time}}", local.Format("15:04:05")},
		{"{{$dateTime}}", local.Format("2006-01-02 15:04:05")},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, r.Resolve(tt.input, nil, nil))
		})
	}
}

func TestResolve_DateShape(t *testing.T) {
	got := Resolve("{{$date}}", nil, nil)
	assert.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, got)
}

func TestResolve_GUIDUniquePerOccurrence(t *testing.T) {
	got := Resolve("{{$guid}} {{$guid}}", nil, nil)
	parts := strings.Split(got, " ")
	require.Len(t, parts, 2)

	assert.Regexp(t, uuidPattern, parts[0])
	assert.Regexp(t, uuidPattern, parts[1])
	assert.NotEqual(t, parts[0], parts[1])

	again := Resolve("{{$guid}}", nil, nil)
	assert.NotEqual(t, parts[0], again)
}

func TestResolve_RandomInt(t *testing.T) {
	got := Resolve("{{$randomInt}}", nil, nil)
	assert.Regexp(t, `^\d{1,3}$`, got)
}

func TestResolve_SystemVariablesAreNotReexpanded(t *testing.T) {
	r := NewResolver()
	reg := builtin.NewRegistry()
	reg.Register("echo", func(time.Time) string { return "{{$echo}}" })
	r.SetSystemVariables(reg)

	assert.Equal(t, "{{$echo}}", r.Resolve("{{$echo}}", nil, nil))
}

func TestResolve_VariableValueMayContainSystemVariable(t *testing.T) {
	// System variables are expanded before user variables, so a value that
	// introduces {{$guid}} keeps it verbatim.
	got := Resolve("{{id}}", map[string]string{"id": "{{$guid}}"}, nil)
	assert.Equal(t, "{{$guid}}", got)
}

func TestResolve_EncodedSystemVariableUntouched(t *testing.T) {
	got := Resolve("%7B%7B$guid%7D%7D", nil, nil)
	assert.Equal(t, "%7B%7B$guid%7D%7D", got)
}

func TestResolver_WarnFunc(t *testing.T) {
	r := NewResolver()
	var warnings []string
	r.SetWarnFunc(func(format string, args ...any) {
		warnings = append(warnings, fmt.Sprintf(format, args...))
	})

	got := r.Resolve("{{a}}/{{missing}}/{{missing}}/%7B%7Bgone%7D%7D", map[string]string{"a": "1"}, nil)

	assert.Equal(t, "1/{{missing}}/{{missing}}/%7B%7Bgone%7D%7D", got)
	assert.Equal(t, []string{"unresolved variable: gone", "unresolved variable: missing"}, warnings)
}

func TestResolver_ResolveSet(t *testing.T) {
	set := &Set{}
	global := &Environment{Name: "globals", IsGlobal: true, Variables: []Variable{{Key: "host", Value: "prod"}, {Key: "v", Value: "1"}}}
	dev := &Environment{Name: "dev", IsActive: true, Variables: []Variable{{Key: "host", Value: "dev"}}}
	require.NoError(t, set.Add(global))
	require.NoError(t, set.Add(dev))

	r := NewResolver()
	assert.Equal(t, "dev/1", r.ResolveSet("{{host}}/{{v}}", set))
	assert.Equal(t, "{{host}}", r.ResolveSet("{{host}}", nil))
}

func TestResolver_ResolveRequest(t *testing.T) {
	req := &model.Request{
		Name:   "Get {{id}}",
		Method: "GET",
		URL:    "{{base}}/users/{{id}}",
		Body:   `{"id": "{{id}}"}`,
		Headers: []model.KeyValue{
			{Key: "Authorization", Value: "Bearer {{token}}", Enabled: true},
			{Key: "X-{{hdr}}", Value: "v", Enabled: false},
		},
		QueryParams: []model.KeyValue{{Key: "page", Value: "{{page}}", Enabled: true}},
		Cookies:     []model.KeyValue{{Key: "sid", Value: "{{sid}}", Enabled: true}},
		Auth: model.Auth{
			Type:        model.AuthAPIKey,
			APIKeyName:  "{{keyName}}",
			APIKeyValue: "{{keyValue}}",
		},
	}
	active := map[string]string{"id": "42", "token": "t0k", "page": "2", "sid": "s1", "hdr": "Trace", "keyName": "X-Key", "keyValue": "k"}
	global := map[string]string{"base": "https://api.example.com"}

	out := NewResolver().ResolveRequest(req, active, global)

	assert.Equal(t, "https://api.example.com/users/42", out.URL)
	assert.Equal(t, `{"id": "42"}`, out.Body)
	assert.Equal(t, "Bearer t0k", out.Headers[0].Value)
	assert.Equal(t, "X-Trace", out.Headers[1].Key)
	assert.Equal(t, "2", out.QueryParams[0].Value)
	assert.Equal(t, "s1", out.Cookies[0].Value)
	assert.Equal(t, "X-Key", out.Auth.APIKeyName)
	assert.Equal(t, "k", out.Auth.APIKeyValue)

	// name is not part of the wire request
	assert.Equal(t, "Get {{id}}", out.Name)
	// the original is untouched
	assert.Equal(t, "{{base}}/users/{{id}}", req.URL)
	assert.Equal(t, "Bearer {{token}}", req.Headers[0].Value)
}

func TestUnresolved(t *testing.T) {
	tests := []struct {
		input    string
		expected []string
	}{
		{"hello world", nil},
		{"{{foo}} and {{bar}}", []string{"foo", "bar"}},
		{"{{foo}} {{foo}}", []string{"foo"}},
		{"%7B%7Benc%7D%7D {{plain}}", []string{"enc", "plain"}},
		{"{{setupProject.projectId}}/tasks", []string{"setupProject.projectId"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.expected, Unresolved(tt.input))
		})
	}
	assert.False(t, HasUnresolved("plain"))
}

func TestResolve_PlainTextProperty(t *testing.T) {
	inputs := []string{
		"https://api.example.com/users?page=1",
		"{ single } braces } {",
		"%7B not a placeholder %7D",
		"unicode ✓ text",
	}
	vars := map[string]string{"page": "9"}

	for _, in := range inputs {
		assert.Equal(t, in, Resolve(in, vars, vars))
	}
}
