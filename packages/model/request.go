package model

import "strings"

// KeyValue is one header, query parameter or cookie entry. Entries are ordered
// and duplicate keys are allowed since HTTP permits repeated header names.
type KeyValue struct {
	Key     string `json:"key"`
	Value   string `json:"value"`
	Enabled bool   `json:"enabled"`
}

type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthAPIKey AuthType = "apikey"
)

type APIKeyLocation string

const (
	APIKeyInHeader APIKeyLocation = "header"
	APIKeyInQuery  APIKeyLocation = "query"
)

// Auth describes how a request authenticates. Only the fields matching Type
// are used when the request is sent; the rest are kept so switching types in
// an editor does not lose what the user typed.
type Auth struct {
	Type           AuthType       `json:"type"`
	Username       string         `json:"username,omitempty"`
	Password       string         `json:"password,omitempty"`
	Token          string         `json:"token,omitempty"`
	APIKeyName     string         `json:"apiKeyName,omitempty"`
	APIKeyValue    string         `json:"apiKeyValue,omitempty"`
	APIKeyLocation APIKeyLocation `json:"apiKeyLocation,omitempty"`
}

// Request is a saved HTTP request.
type Request struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	URL         string     `json:"url"`
	Method      string     `json:"method"`
	Body        string     `json:"body,omitempty"`
	Headers     []KeyValue `json:"headers,omitempty"`
	QueryParams []KeyValue `json:"queryParams,omitempty"`
	Cookies     []KeyValue `json:"cookies,omitempty"`
	Auth        Auth       `json:"auth"`

	// Selected is UI state only.
	Selected bool `json:"-"`
}

func NewRequest(name, method, url string) *Request {
	return &Request{
		Name:   name,
		Method: strings.ToUpper(method),
		URL:    url,
		Auth:   Auth{Type: AuthNone},
	}
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	c.Headers = cloneKeyValues(r.Headers)
	c.QueryParams = cloneKeyValues(r.QueryParams)
	c.Cookies = cloneKeyValues(r.Cookies)
	return &c
}

// EffectiveMethod returns the upper-cased method, defaulting to GET.
func (r *Request) EffectiveMethod() string {
	if r.Method == "" {
		return "GET"
	}
	return strings.ToUpper(r.Method)
}

func (r *Request) AddHeader(key, value string) {
	r.Headers = append(r.Headers, KeyValue{Key: key, Value: value, Enabled: true})
}

func (r *Request) AddQueryParam(key, value string) {
	r.QueryParams = append(r.QueryParams, KeyValue{Key: key, Value: value, Enabled: true})
}

func (r *Request) AddCookie(key, value string) {
	r.Cookies = append(r.Cookies, KeyValue{Key: key, Value: value, Enabled: true})
}

// EnabledHeaders returns the enabled header entries in order.
func (r *Request) EnabledHeaders() []KeyValue {
	return enabledOnly(r.Headers)
}

func (r *Request) EnabledQueryParams() []KeyValue {
	return enabledOnly(r.QueryParams)
}

func (r *Request) EnabledCookies() []KeyValue {
	return enabledOnly(r.Cookies)
}

// ParseKeyValue splits "key: value" or "key=value" into an enabled entry.
func ParseKeyValue(s, sep string) (KeyValue, bool) {
	key, value, found := strings.Cut(s, sep)
	if !found {
		return KeyValue{}, false
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return KeyValue{}, false
	}
	return KeyValue{Key: key, Value: strings.TrimSpace(value), Enabled: true}, true
}

func cloneKeyValues(in []KeyValue) []KeyValue {
	if in == nil {
		return nil
	}
	out := make([]KeyValue, len(in))
	copy(out, in)
	return out
}

func enabledOnly(in []KeyValue) []KeyValue {
	var out []KeyValue
	for _, kv := range in {
		if kv.Enabled {
			out = append(out, kv)
		}
	}
	return out
}
