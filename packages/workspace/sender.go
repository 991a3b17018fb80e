package workspace

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

// ErrUnresolvedURL is returned when placeholders left in a request URL make
// it invalid, such as an unresolved scheme or host. Placeholders elsewhere in
// the URL are sent as literal text.
var ErrUnresolvedURL = errors.New("unresolved variables in URL")

// Doer sends a wire request.
type Doer interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Recorder stores a sent request.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (int64, error)
}

// Result is the outcome of one send. Response is nil when the request
// failed before a response arrived.
type Result struct {
	Path        string
	Environment string
	Request     *model.Request
	Response    *http.Response
	Unresolved  []string
	Err         error
}

// Sender resolves requests against an environment set and sends them.
type Sender struct {
	client   Doer
	envs     *env.Set
	resolver *env.Resolver
	recorder Recorder
}

type SenderOption func(*Sender)

// WithResolver replaces the default resolver.
func WithResolver(r *env.Resolver) SenderOption {
	return func(s *Sender) {
		s.resolver = r
	}
}

// WithRecorder records every send, successful or not.
func WithRecorder(r Recorder) SenderOption {
	return func(s *Sender) {
		s.recorder = r
	}
}

func NewSender(client Doer, envs *env.Set, opts ...SenderOption) *Sender {
	s := &Sender{
		client:   client,
		envs:     envs,
		resolver: env.NewResolver(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.envs == nil {
		s.envs = &env.Set{}
	}
	return s
}

// Environments returns the set requests are resolved against.
func (s *Sender) Environments() *env.Set {
	return s.envs
}

// Resolve returns a resolved copy of req and the placeholder names that
// could not be resolved.
func (s *Sender) Resolve(req *model.Request) (*model.Request, []string) {
	resolved := s.resolver.ResolveRequest(req, s.envs.ActiveVars(), s.envs.GlobalVars())
	return resolved, unresolvedIn(resolved)
}

// Send sends req and records it under its name.
func (s *Sender) Send(ctx context.Context, req *model.Request) (*Result, error) {
	return s.SendAs(ctx, req.Name, req)
}

// SendAs sends req and records it under path. A non-nil error is also
// stored in the returned Result.
func (s *Sender) SendAs(ctx context.Context, path string, req *model.Request) (*Result, error) {
	resolved, unresolved := s.Resolve(req)
	result := &Result{
		Path:       path,
		Request:    resolved,
		Unresolved: unresolved,
	}
	if active := s.envs.Active(); active != nil {
		result.Environment = active.Name
	}

	if len(unresolved) > 0 {
		slog.Warn("sending request with unresolved variables", "request", path, "variables", unresolved)
	}

	if names := env.Unresolved(resolved.URL); len(names) > 0 {
		if err := http.ValidateURL(resolved.URL); err != nil {
			result.Err = fmt.Errorf("%w: %s: %v", ErrUnresolvedURL, strings.Join(names, ", "), err)
		}
	}
	if result.Err == nil {
		result.Response, result.Err = s.client.Do(ctx, http.Build(resolved))
	}

	s.record(ctx, result)
	return result, result.Err
}

func (s *Sender) record(ctx context.Context, result *Result) {
	if s.recorder == nil {
		return
	}
	entry := history.Entry{
		Environment: result.Environment,
		RequestPath: result.Path,
		Method:      result.Request.EffectiveMethod(),
		URL:         result.Request.URL,
	}
	if result.Response != nil {
		entry.Status = result.Response.StatusCode
		entry.Duration = result.Response.Duration
	}
	if result.Err != nil {
		entry.Error = result.Err.Error()
	}
	if _, err := s.recorder.Record(context.WithoutCancel(ctx), entry); err != nil {
		slog.Warn("failed to record history", "request", result.Path, "error", err)
	}
}

// unresolvedIn lists the placeholders left in the parts of req that are sent.
func unresolvedIn(req *model.Request) []string {
	var names []string
	seen := make(map[string]bool)
	add := func(text string) {
		for _, name := range env.Unresolved(text) {
			if !seen[name] {
				seen[name] = true
				names = append(names, name)
			}
		}
	}

	add(req.URL)
	for _, kv := range req.EnabledQueryParams() {
		add(kv.Key)
		add(kv.Value)
	}
	for _, kv := range req.EnabledHeaders() {
		add(kv.Key)
		add(kv.Value)
	}
	for _, kv := range req.EnabledCookies() {
		add(kv.Key)
		add(kv.Value)
	}
	switch req.Auth.Type {
	case model.AuthBasic:
		add(req.Auth.Username)
		add(req.Auth.Password)
	case model.AuthBearer:
		add(req.Auth.Token)
	case model.AuthAPIKey:
		add(req.Auth.APIKeyName)
		add(req.Auth.APIKeyValue)
	}
	add(req.Body)
	return names
}
