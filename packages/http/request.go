package http

import (
	"encoding/base64"
	"net/url"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

// Request is a wire-ready request. Headers and QueryParams keep their order
// and may repeat keys.
type Request struct {
	Method      string
	URL         string
	Headers     []model.KeyValue
	QueryParams []model.KeyValue
	Body        string
	Timeout     time.Duration
}

func NewRequest(method, requestURL string) *Request {
	return &Request{
		Method: strings.ToUpper(method),
		URL:    requestURL,
	}
}

func (r *Request) AddHeader(key, value string) *Request {
	r.Headers = append(r.Headers, model.KeyValue{Key: key, Value: value, Enabled: true})
	return r
}

func (r *Request) SetBody(body string) *Request {
	r.Body = body
	return r
}

func (r *Request) SetTimeout(d time.Duration) *Request {
	r.Timeout = d
	return r
}

func (r *Request) AddQueryParam(key, value string) *Request {
	r.QueryParams = append(r.QueryParams, model.KeyValue{Key: key, Value: value, Enabled: true})
	return r
}

// Header returns the first value of key, matched case-insensitively.
func (r *Request) Header(key string) string {
	for _, h := range r.Headers {
		if strings.EqualFold(h.Key, key) {
			return h.Value
		}
	}
	return ""
}

// BuildURL appends the query parameters to URL in order, after any query
// already present in it.
func (r *Request) BuildURL() string {
	if len(r.QueryParams) == 0 {
		return r.URL
	}

	base, fragment, _ := strings.Cut(r.URL, "#")
	var sb strings.Builder
	sb.WriteString(base)
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
		if strings.HasSuffix(base, "?") || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}
	for _, p := range r.QueryParams {
		sb.WriteString(sep)
		sb.WriteString(url.QueryEscape(p.Key))
		sb.WriteString("=")
		sb.WriteString(url.QueryEscape(p.Value))
		sep = "&"
	}
	if fragment != "" {
		sb.WriteString("#")
		sb.WriteString(fragment)
	}
	return sb.String()
}

// ApplyAuth adds the headers or query parameters auth calls for.
func (r *Request) ApplyAuth(auth model.Auth) {
	switch auth.Type {
	case model.AuthBasic:
		creds := auth.Username + ":" + auth.Password
		encoded := base64.StdEncoding.EncodeToString([]byte(creds))
		r.AddHeader("Authorization", "Basic "+encoded)
	case model.AuthBearer:
		if auth.Token != "" {
			r.AddHeader("Authorization", "Bearer "+auth.Token)
		}
	case model.AuthAPIKey:
		if auth.APIKeyName == "" {
			return
		}
		if auth.APIKeyLocation == model.APIKeyInQuery {
			r.AddQueryParam(auth.APIKeyName, auth.APIKeyValue)
		} else {
			r.AddHeader(auth.APIKeyName, auth.APIKeyValue)
		}
	}
}

// Build turns an already resolved model request into a wire request.
// Only enabled entries are sent; enabled cookies are joined into a single
// Cookie header after the regular headers.
func Build(req *model.Request) *Request {
	r := NewRequest(req.EffectiveMethod(), req.URL)

	for _, h := range req.EnabledHeaders() {
		r.AddHeader(h.Key, h.Value)
	}
	for _, qp := range req.EnabledQueryParams() {
		r.AddQueryParam(qp.Key, qp.Value)
	}

	if cookies := req.EnabledCookies(); len(cookies) > 0 {
		pairs := make([]string, len(cookies))
		for i, c := range cookies {
			pairs[i] = c.Key + "=" + c.Value
		}
		r.AddHeader("Cookie", strings.Join(pairs, "; "))
	}

	r.ApplyAuth(req.Auth)

	if req.Body != "" {
		r.SetBody(req.Body)
		if r.Header("Content-Type") == "" && looksLikeJSON(req.Body) {
			r.AddHeader("Content-Type", "application/json")
		}
	}

	return r
}

func looksLikeJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}
