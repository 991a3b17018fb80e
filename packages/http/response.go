package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

// Timing breaks a request down into its phases. Phases that did not happen,
// such as DNS on a reused connection, are zero.
type Timing struct {
	DNS        time.Duration `json:"dns"`
	Connect    time.Duration `json:"connect"`
	TLS        time.Duration `json:"tls"`
	Wait       time.Duration `json:"wait"`
	Download   time.Duration `json:"download"`
	Total      time.Duration `json:"total"`
	ReusedConn bool          `json:"reusedConn"`
}

type Response struct {
	StatusCode int
	Status     string
	Proto      string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	Timing     Timing
	URL        string
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Header returns the first value of key.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := r.ContentType()
	return strings.Contains(ct, "json") || (ct == "" && gjson.ValidBytes(r.Body))
}

// Pretty returns the body indented when it is valid JSON, and unchanged otherwise.
func (r *Response) Pretty() string {
	if len(r.Body) == 0 || !gjson.ValidBytes(r.Body) {
		return r.BodyString()
	}
	return strings.TrimRight(gjson.GetBytes(r.Body, "@pretty").Raw, "\n")
}

// Query evaluates a gjson path against a JSON body.
func (r *Response) Query(path string) (string, bool) {
	if !gjson.ValidBytes(r.Body) {
		return "", false
	}
	result := gjson.GetBytes(r.Body, path)
	if !result.Exists() {
		return "", false
	}
	if result.IsObject() || result.IsArray() {
		return strings.TrimRight(gjson.Get(result.Raw, "@pretty").Raw, "\n"), true
	}
	return result.String(), true
}

func (r *Response) Size() int {
	return len(r.Body)
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}
