package insomnia

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

func convert(t *testing.T, c *Converter, export string) *Result {
	t.Helper()
	result, err := c.Convert([]byte(export))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return result
}

func TestConvert_SimpleRequest(t *testing.T) {
	export := `{
		"_type": "export",
		"__export_format": 4,
		"resources": [
			{"_id": "wrk_1", "_type": "workspace", "parentId": null, "name": "Users API", "description": "demo"},
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Get Users",
				"method": "GET",
				"url": "https://api.example.com/users"
			}
		]
	}`

	result := convert(t, NewConverter(), export)

	if result.Collection.Name != "Users API" || result.Collection.Description != "demo" {
		t.Errorf("unexpected collection %q %q", result.Collection.Name, result.Collection.Description)
	}
	req, err := result.Collection.Find("Get Users")
	if err != nil {
		t.Fatalf("expected Get Users: %v", err)
	}
	if req.Method != "GET" || req.URL != "https://api.example.com/users" {
		t.Errorf("unexpected request %s %s", req.Method, req.URL)
	}
	if req.ID == "" {
		t.Error("expected an ID")
	}
}

func TestConvert_DefaultCollectionName(t *testing.T) {
	result := convert(t, NewConverter(), `{"resources": []}`)
	if result.Collection.Name != "Insomnia import" {
		t.Errorf("unexpected name %q", result.Collection.Name)
	}
	if len(result.Environments) != 0 {
		t.Errorf("expected no environments, got %d", len(result.Environments))
	}
}

func TestConvert_HeadersAndCookies(t *testing.T) {
	export := `{
		"resources": [
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Create User",
				"method": "post",
				"url": "https://api.example.com/users",
				"headers": [
					{"name": "Content-Type", "value": "application/json"},
					{"name": "X-Debug", "value": "1", "disabled": true},
					{"name": "Cookie", "value": "a=1; b=2"}
				]
			}
		]
	}`

	req := convert(t, NewConverter(), export).Collection.Requests[0]

	if req.Method != "POST" {
		t.Errorf("expected POST, got %s", req.Method)
	}
	if len(req.Headers) != 2 {
		t.Fatalf("expected 2 headers, got %v", req.Headers)
	}
	if req.Headers[1].Key != "X-Debug" || req.Headers[1].Enabled {
		t.Errorf("expected disabled X-Debug header, got %+v", req.Headers[1])
	}
	if len(req.Cookies) != 2 || req.Cookies[1].Key != "b" || req.Cookies[1].Value != "2" {
		t.Errorf("unexpected cookies %v", req.Cookies)
	}
}

func TestConvert_DropDisabled(t *testing.T) {
	export := `{
		"resources": [
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Search",
				"url": "https://api.example.com/search",
				"headers": [{"name": "X-Debug", "value": "1", "disabled": true}],
				"parameters": [
					{"name": "q", "value": "{{ _.term }}"},
					{"name": "debug", "value": "1", "disabled": true}
				]
			}
		]
	}`

	req := convert(t, NewConverter(WithDisabled(false)), export).Collection.Requests[0]

	if len(req.Headers) != 0 {
		t.Errorf("expected disabled header dropped, got %v", req.Headers)
	}
	if len(req.QueryParams) != 1 || req.QueryParams[0] != (model.KeyValue{Key: "q", Value: "{{term}}", Enabled: true}) {
		t.Errorf("unexpected query params %v", req.QueryParams)
	}
	if req.Method != "GET" {
		t.Errorf("expected default GET, got %s", req.Method)
	}
}

func TestConvert_Body(t *testing.T) {
	export := `{
		"resources": [
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Create User",
				"method": "POST",
				"url": "https://api.example.com/users",
				"body": {
					"mimeType": "application/json",
					"text": "{\"name\":\"{{ _.user }}\"}"
				}
			}
		]
	}`

	req := convert(t, NewConverter(), export).Collection.Requests[0]

	if req.Body != `{"name":"{{user}}"}` {
		t.Errorf("unexpected body %q", req.Body)
	}
	if len(req.Headers) != 1 || req.Headers[0].Key != "Content-Type" || req.Headers[0].Value != "application/json" {
		t.Errorf("expected Content-Type from mime type, got %v", req.Headers)
	}
}

func TestConvert_Variables(t *testing.T) {
	export := `{
		"resources": [
			{
				"_id": "req_1",
				"_type": "request",
				"parentId": "wrk_1",
				"name": "Get User",
				"url": "{{ _.baseUrl }}/users/{{ userId }}?x={{ _.api.version }}"
			}
		]
	}`

	req := convert(t, NewConverter(), export).Collection.Requests[0]

	if req.URL != "{{baseUrl}}/users/{{userId}}?x={{api.version}}" {
		t.Errorf("expected variables to be converted, got: %s", req.URL)
	}
}

func TestConvert_Auth(t *testing.T) {
	tests := []struct {
		name string
		auth string
		want model.Auth
	}{
		{
			name: "basic",
			auth: `{"type": "basic", "username": "admin", "password": "{{ _.pass }}"}`,
			want: model.Auth{Type: model.AuthBasic, Username: "admin", Password: "{{pass}}"},
		},
		{
			name: "bearer",
			auth: `{"type": "bearer", "token": "abc"}`,
			want: model.Auth{Type: model.AuthBearer, Token: "abc"},
		},
		{
			name: "api key in query",
			auth: `{"type": "apikey", "key": "api_key", "value": "k", "addTo": "queryParams"}`,
			want: model.Auth{Type: model.AuthAPIKey, APIKeyName: "api_key", APIKeyValue: "k", APIKeyLocation: model.APIKeyInQuery},
		},
		{
			name: "api key in header",
			auth: `{"type": "apikey", "key": "X-Key", "value": "k"}`,
			want: model.Auth{Type: model.AuthAPIKey, APIKeyName: "X-Key", APIKeyValue: "k", APIKeyLocation: model.APIKeyInHeader},
		},
		{
			name: "disabled",
			auth: `{"type": "bearer", "token": "abc", "disabled": true}`,
			want: model.Auth{Type: model.AuthNone},
		},
		{
			name: "unsupported",
			auth: `{"type": "oauth2"}`,
			want: model.Auth{Type: model.AuthNone},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			export := `{"resources": [{"_id": "r", "_type": "request", "parentId": "w", "name": "R",
				"url": "https://example.com", "authentication": ` + tt.auth + `}]}`
			req := convert(t, NewConverter(), export).Collection.Requests[0]
			if req.Auth != tt.want {
				t.Errorf("got %+v, want %+v", req.Auth, tt.want)
			}
		})
	}
}

func TestConvert_Folders(t *testing.T) {
	export := `{
		"resources": [
			{"_id": "wrk_1", "_type": "workspace", "name": "Shop"},
			{"_id": "req_3", "_type": "request", "parentId": "fld_2", "name": "Get Order", "url": "https://x/orders/1"},
			{"_id": "fld_1", "_type": "request_group", "parentId": "wrk_1", "name": "Admin/Ops"},
			{"_id": "fld_2", "_type": "request_group", "parentId": "fld_1", "name": "Orders"},
			{"_id": "req_1", "_type": "request", "parentId": "fld_1", "name": "Health", "url": "https://x/health"},
			{"_id": "req_2", "_type": "request", "parentId": "wrk_1", "name": "Root", "url": "https://x/"}
		]
	}`

	collection := convert(t, NewConverter(), export).Collection

	if len(collection.Folders) != 1 || collection.Folders[0].Name != "Admin-Ops" {
		t.Fatalf("unexpected folders %+v", collection.Folders)
	}
	if _, err := collection.Find("Admin-Ops/Orders/Get Order"); err != nil {
		t.Errorf("expected nested request: %v", err)
	}
	if _, err := collection.Find("Admin-Ops/Health"); err != nil {
		t.Errorf("expected folder request: %v", err)
	}
	if _, err := collection.Find("Root"); err != nil {
		t.Errorf("expected top-level request: %v", err)
	}
	if collection.Count() != 3 {
		t.Errorf("expected 3 requests, got %d", collection.Count())
	}
}

func TestConvert_Environments(t *testing.T) {
	export := `{
		"resources": [
			{"_id": "wrk_1", "_type": "workspace", "name": "Shop"},
			{"_id": "env_base", "_type": "environment", "parentId": "wrk_1", "name": "Base Environment",
				"data": {"baseUrl": "https://api.example.com", "api": {"version": "v2", "retries": 3}}},
			{"_id": "env_dev", "_type": "environment", "parentId": "env_base", "name": "Dev",
				"data": {"token": "{{ _.devToken }}", "tags": ["a", "b"], "debug": true}},
			{"_id": "env_dev2", "_type": "environment", "parentId": "env_base", "name": "Dev", "data": {}}
		]
	}`

	envs := convert(t, NewConverter(), export).Environments

	if len(envs) != 3 {
		t.Fatalf("expected 3 environments, got %d", len(envs))
	}

	base := envs[0]
	if !base.IsGlobal || base.Name != "Base Environment" {
		t.Errorf("expected global base environment, got %+v", base)
	}
	wantKeys := []string{"baseUrl", "api.version", "api.retries"}
	for i, key := range wantKeys {
		if base.Variables[i].Key != key {
			t.Errorf("variable %d: expected %s, got %s", i, key, base.Variables[i].Key)
		}
	}
	if v, _ := base.Get("api.retries"); v != "3" {
		t.Errorf("expected api.retries 3, got %q", v)
	}

	dev := envs[1]
	if dev.IsGlobal {
		t.Error("sub environment must not be global")
	}
	if v, _ := dev.Get("token"); v != "{{devToken}}" {
		t.Errorf("unexpected token %q", v)
	}
	if v, _ := dev.Get("tags"); v != `["a", "b"]` {
		t.Errorf("unexpected tags %q", v)
	}
	if v, _ := dev.Get("debug"); v != "true" {
		t.Errorf("unexpected debug %q", v)
	}

	if envs[2].Name != "Dev (2)" {
		t.Errorf("expected duplicate name suffixed, got %q", envs[2].Name)
	}
}

func TestConvert_InvalidJSON(t *testing.T) {
	if _, err := NewConverter().Convert([]byte(`{not json`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestConvert_WrongType(t *testing.T) {
	if _, err := NewConverter().Convert([]byte(`{"_type": "collection", "resources": []}`)); err == nil {
		t.Error("expected error for unsupported export type")
	}
}

func TestConvertFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.json")
	data := `{"resources": [{"_id": "r", "_type": "request", "name": "Ping", "url": "https://x/ping"}]}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	result, err := NewConverter().ConvertFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Collection.Count() != 1 {
		t.Errorf("expected 1 request, got %d", result.Collection.Count())
	}

	if _, err := NewConverter().ConvertFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestConvertVariable(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"{{ _.host }}", "{{host}}"},
		{"{{host}}", "{{host}}"},
		{"{{  token  }}", "{{token}}"},
		{"{{ $guid }}", "{{$guid}}"},
		{"plain", "plain"},
	}

	for _, tt := range tests {
		if got := convertVariable(tt.input); got != tt.want {
			t.Errorf("convertVariable(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}
