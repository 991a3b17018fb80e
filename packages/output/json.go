package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/runner"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

// JSONRunOutput represents a collection run
type JSONRunOutput struct {
	Collection string         `json:"collection"`
	Summary    JSONSummary    `json:"summary"`
	Requests   []JSONExchange `json:"requests"`
	Duration   float64        `json:"duration"`
	Time       string         `json:"time"`
}

// JSONSummary represents the run summary
type JSONSummary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
}

// JSONExchange is one request and its response
type JSONExchange struct {
	Path        string        `json:"path"`
	Environment string        `json:"environment,omitempty"`
	Passed      bool          `json:"passed"`
	Skipped     bool          `json:"skipped,omitempty"`
	SkipReason  string        `json:"skipReason,omitempty"`
	Attempts    int           `json:"attempts,omitempty"`
	Error       string        `json:"error,omitempty"`
	Unresolved  []string      `json:"unresolved,omitempty"`
	Request     *JSONRequest  `json:"request,omitempty"`
	Response    *JSONResponse `json:"response,omitempty"`
}

// JSONRequest represents request details
type JSONRequest struct {
	Method string `json:"method"`
	URL    string `json:"url"`
}

// JSONResponse represents response details
type JSONResponse struct {
	StatusCode int                 `json:"statusCode"`
	Status     string              `json:"status"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Body       json.RawMessage     `json:"body,omitempty"`
	Text       string              `json:"text,omitempty"`
	Duration   float64             `json:"duration"`
	Timing     http.Timing         `json:"timing"`
}

// JSONFormatter writes results as indented JSON
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func exchangeFrom(path string, result *workspace.Result) JSONExchange {
	ex := JSONExchange{Path: path}
	if result == nil {
		return ex
	}
	ex.Environment = result.Environment
	ex.Unresolved = result.Unresolved
	if result.Err != nil {
		ex.Error = result.Err.Error()
	}
	if result.Request != nil {
		ex.Request = &JSONRequest{
			Method: result.Request.EffectiveMethod(),
			URL:    result.Request.URL,
		}
	}
	if resp := result.Response; resp != nil {
		ex.Passed = resp.IsSuccess()
		ex.Response = &JSONResponse{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Headers:    resp.Headers,
			Duration:   float64(resp.Duration.Milliseconds()),
			Timing:     resp.Timing,
		}
		if json.Valid(resp.Body) {
			ex.Response.Body = resp.Body
		} else {
			ex.Response.Text = resp.BodyString()
		}
	}
	return ex
}

// FormatResponse writes a single send result.
func (f *JSONFormatter) FormatResponse(result *workspace.Result) error {
	return f.encode(exchangeFrom(result.Path, result))
}

// FormatRunResult writes a whole collection run.
func (f *JSONFormatter) FormatRunResult(result *runner.RunResult) error {
	out := JSONRunOutput{
		Collection: result.Collection,
		Summary: JSONSummary{
			Total:   len(result.Results),
			Passed:  result.Passed,
			Failed:  result.Failed,
			Skipped: result.Skipped,
		},
		Requests: make([]JSONExchange, 0, len(result.Results)),
		Duration: float64(result.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	for _, r := range result.Results {
		ex := exchangeFrom(r.Path, r.Result)
		ex.Passed = r.Passed
		ex.Skipped = r.Skipped
		ex.Attempts = r.Attempts
		if r.SkipReason != "" && r.SkipReason != "filtered out" {
			ex.SkipReason = r.SkipReason
		}
		if r.Error != nil {
			ex.Error = r.Error.Error()
		}
		out.Requests = append(out.Requests, ex)
	}

	return f.encode(out)
}

func (f *JSONFormatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
