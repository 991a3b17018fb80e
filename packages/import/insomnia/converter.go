// Package insomnia converts Insomnia v4 exports into hitdesk collections and
// environments.
package insomnia

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

const (
	typeWorkspace    = "workspace"
	typeRequest      = "request"
	typeRequestGroup = "request_group"
	typeEnvironment  = "environment"
)

// Converter converts Insomnia exports to hitdesk collections.
type Converter struct {
	keepDisabled bool
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithDisabled controls whether disabled headers and parameters are imported
// as disabled entries or dropped.
func WithDisabled(keep bool) Option {
	return func(c *Converter) {
		c.keepDisabled = keep
	}
}

// NewConverter creates a new Insomnia converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		keepDisabled: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Export represents an Insomnia export file.
type Export struct {
	Type         string     `json:"_type"`
	ExportFormat int        `json:"__export_format"`
	Resources    []Resource `json:"resources"`
}

// Resource represents an Insomnia resource (request, folder, environment, etc).
type Resource struct {
	ID             string          `json:"_id"`
	Type           string          `json:"_type"`
	ParentID       string          `json:"parentId"`
	Name           string          `json:"name"`
	Description    string          `json:"description,omitempty"`
	Method         string          `json:"method,omitempty"`
	URL            string          `json:"url,omitempty"`
	Headers        []Header        `json:"headers,omitempty"`
	Body           *Body           `json:"body,omitempty"`
	Parameters     []Parameter     `json:"parameters,omitempty"`
	Authentication *Auth           `json:"authentication,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
}

// Header represents an Insomnia header.
type Header struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Body represents an Insomnia request body.
type Body struct {
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
}

// Parameter represents an Insomnia query parameter.
type Parameter struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Disabled bool   `json:"disabled,omitempty"`
}

// Auth represents Insomnia authentication.
type Auth struct {
	Type     string `json:"type"`
	Disabled bool   `json:"disabled,omitempty"`
	Username string `json:"username,omitempty"`
	Password string `json:"password,omitempty"`
	Token    string `json:"token,omitempty"`
	Key      string `json:"key,omitempty"`
	Value    string `json:"value,omitempty"`
	AddTo    string `json:"addTo,omitempty"`
}

// Result is the outcome of converting one export.
type Result struct {
	Collection   *model.Collection
	Environments []*env.Environment
}

// ConvertFile converts an Insomnia export file.
func (c *Converter) ConvertFile(path string) (*Result, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	return c.Convert(data)
}

// Convert converts Insomnia export JSON. Requests and folders keep their
// export order; the base environment becomes the global environment and its
// sub-environments become regular ones.
func (c *Converter) Convert(data []byte) (*Result, error) {
	var export Export
	if err := json.Unmarshal(data, &export); err != nil {
		return nil, fmt.Errorf("failed to parse Insomnia export: %w", err)
	}
	if export.Type != "" && export.Type != "export" {
		return nil, fmt.Errorf("unsupported Insomnia export type %q", export.Type)
	}

	collection := model.NewCollection("Insomnia import")
	folders := make(map[string]*model.Folder)
	workspaces := make(map[string]bool)
	named := false

	for _, res := range export.Resources {
		switch res.Type {
		case typeWorkspace:
			workspaces[res.ID] = true
			if !named && res.Name != "" {
				named = true
				collection.Name = res.Name
				collection.Description = res.Description
			}
		case typeRequestGroup:
			folders[res.ID] = model.NewFolder(cleanName(res.Name))
		}
	}

	// Attach folders after all are known so children may precede parents.
	for _, res := range export.Resources {
		if res.Type != typeRequestGroup {
			continue
		}
		folder := folders[res.ID]
		if parent, ok := folders[res.ParentID]; ok {
			parent.Folders = append(parent.Folders, folder)
		} else {
			collection.Folders = append(collection.Folders, folder)
		}
	}

	for _, res := range export.Resources {
		if res.Type != typeRequest {
			continue
		}
		req := c.convertRequest(res)
		if parent, ok := folders[res.ParentID]; ok {
			parent.Requests = append(parent.Requests, req)
		} else {
			collection.Requests = append(collection.Requests, req)
		}
	}

	return &Result{
		Collection:   collection,
		Environments: c.convertEnvironments(export.Resources, workspaces),
	}, nil
}

func (c *Converter) convertRequest(res Resource) *model.Request {
	method := res.Method
	if method == "" {
		method = "GET"
	}
	req := model.NewRequest(cleanName(res.Name), method, convertVariable(res.URL))
	req.ID = model.NewID()

	for _, h := range res.Headers {
		if h.Disabled && !c.keepDisabled {
			continue
		}
		kv := model.KeyValue{Key: h.Name, Value: convertVariable(h.Value), Enabled: !h.Disabled}
		if strings.EqualFold(h.Name, "Cookie") {
			req.Cookies = append(req.Cookies, splitCookies(kv)...)
			continue
		}
		req.Headers = append(req.Headers, kv)
	}

	for _, p := range res.Parameters {
		if p.Disabled && !c.keepDisabled {
			continue
		}
		req.QueryParams = append(req.QueryParams, model.KeyValue{
			Key:     p.Name,
			Value:   convertVariable(p.Value),
			Enabled: !p.Disabled,
		})
	}

	if res.Body != nil && res.Body.Text != "" {
		req.Body = convertVariable(res.Body.Text)
		if res.Body.MimeType != "" && !hasHeader(req.Headers, "Content-Type") {
			req.AddHeader("Content-Type", res.Body.MimeType)
		}
	}

	if res.Authentication != nil && !res.Authentication.Disabled {
		req.Auth = convertAuth(res.Authentication)
	}

	return req
}

func convertAuth(auth *Auth) model.Auth {
	switch auth.Type {
	case "basic":
		return model.Auth{
			Type:     model.AuthBasic,
			Username: convertVariable(auth.Username),
			Password: convertVariable(auth.Password),
		}
	case "bearer":
		return model.Auth{Type: model.AuthBearer, Token: convertVariable(auth.Token)}
	case "apikey":
		location := model.APIKeyInHeader
		if auth.AddTo == "queryParams" {
			location = model.APIKeyInQuery
		}
		return model.Auth{
			Type:           model.AuthAPIKey,
			APIKeyName:     convertVariable(auth.Key),
			APIKeyValue:    convertVariable(auth.Value),
			APIKeyLocation: location,
		}
	}
	return model.Auth{Type: model.AuthNone}
}

// convertEnvironments maps environment resources. An environment parented by
// a workspace is the base environment.
func (c *Converter) convertEnvironments(resources []Resource, workspaces map[string]bool) []*env.Environment {
	var out []*env.Environment
	seen := make(map[string]int)
	haveGlobal := false

	for _, res := range resources {
		if res.Type != typeEnvironment {
			continue
		}

		name := res.Name
		if name == "" {
			name = "Environment"
		}
		seen[name]++
		if n := seen[name]; n > 1 {
			name = fmt.Sprintf("%s (%d)", name, n)
		}

		e := env.NewEnvironment(name)
		if workspaces[res.ParentID] && !haveGlobal {
			e.IsGlobal = true
			haveGlobal = true
		}
		flatten("", gjson.ParseBytes(res.Data), e)
		out = append(out, e)
	}
	return out
}

// flatten writes nested environment data as dotted keys in document order.
func flatten(prefix string, value gjson.Result, e *env.Environment) {
	if !value.IsObject() {
		return
	}
	value.ForEach(func(key, val gjson.Result) bool {
		name := key.String()
		if prefix != "" {
			name = prefix + "." + name
		}
		switch {
		case val.IsObject():
			flatten(name, val, e)
		case val.IsArray():
			e.Set(name, val.Raw)
		default:
			e.Set(name, convertVariable(val.String()))
		}
		return true
	})
}

var (
	templateVarPattern = regexp.MustCompile(`\{\{\s*_\.([\w.-]+)\s*\}\}`)
	spacedVarPattern   = regexp.MustCompile(`\{\{\s*([\w.$-]+)\s*\}\}`)
)

// convertVariable converts Insomnia variable syntax to hitdesk syntax.
// Insomnia uses {{ _.variableName }} or {{ variableName }}
func convertVariable(s string) string {
	s = templateVarPattern.ReplaceAllString(s, "{{$1}}")
	return spacedVarPattern.ReplaceAllString(s, "{{$1}}")
}

// cleanName keeps names addressable by slash-separated collection paths.
func cleanName(name string) string {
	name = strings.TrimSpace(strings.ReplaceAll(name, "/", "-"))
	if name == "" {
		return "untitled"
	}
	return name
}

func splitCookies(header model.KeyValue) []model.KeyValue {
	var cookies []model.KeyValue
	for _, part := range strings.Split(header.Value, ";") {
		if kv, ok := model.ParseKeyValue(part, "="); ok {
			kv.Enabled = header.Enabled
			cookies = append(cookies, kv)
		}
	}
	return cookies
}

func hasHeader(headers []model.KeyValue, name string) bool {
	for _, h := range headers {
		if strings.EqualFold(h.Key, name) {
			return true
		}
	}
	return false
}
