package runner

import (
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

const (
	// DefaultRetryDelay is the default delay between retries
	DefaultRetryDelay = time.Second
)

// Sender sends one request and records it under path.
type Sender interface {
	SendAs(ctx context.Context, path string, req *model.Request) (*workspace.Result, error)
}

type Runner struct {
	sender  Sender
	limiter *rate.Limiter
	config  *Config
}

type Config struct {
	// Folder restricts the run to one folder path of the collection.
	Folder     string
	NameFilter string
	Bail       bool
	// Rate is the maximum number of requests per second. Zero means unlimited.
	Rate       float64
	Retries    int
	RetryDelay time.Duration
	RetryOn    []int
}

func NewRunner(sender Sender, cfg *Config) *Runner {
	if cfg == nil {
		cfg = &Config{}
	}

	r := &Runner{
		sender: sender,
		config: cfg,
	}
	if cfg.Rate > 0 {
		r.limiter = rate.NewLimiter(rate.Limit(cfg.Rate), 1)
	}
	return r
}

type RunResult struct {
	Collection string
	Results    []*RequestResult
	Duration   time.Duration
	Passed     int
	Failed     int
	Skipped    int
}

type RequestResult struct {
	Path       string
	Name       string
	Passed     bool
	Skipped    bool
	SkipReason string
	Attempts   int
	Duration   time.Duration
	Result     *workspace.Result
	Error      error
}

// Success reports whether every request that ran passed.
func (res *RunResult) Success() bool {
	return res.Failed == 0
}

type target struct {
	path string
	req  *model.Request
}

// RunCollection sends the requests of c in tree order. A canceled context
// stops the run and is returned together with the partial result.
func (r *Runner) RunCollection(ctx context.Context, c *model.Collection) (*RunResult, error) {
	start := time.Now()
	result := &RunResult{
		Collection: c.Name,
	}

	targets, err := r.collect(c)
	if err != nil {
		return nil, err
	}

	for i, t := range targets {
		if !matchesPattern(t.req.Name, r.config.NameFilter) {
			result.add(&RequestResult{
				Path:       t.path,
				Name:       t.req.Name,
				Skipped:    true,
				SkipReason: "filtered out",
			})
			continue
		}

		reqResult, err := r.runRequestWithRetry(ctx, t)
		if err != nil {
			result.Duration = time.Since(start)
			return result, err
		}
		result.add(reqResult)

		if !reqResult.Passed && r.config.Bail {
			for _, rest := range targets[i+1:] {
				result.add(&RequestResult{
					Path:       rest.path,
					Name:       rest.req.Name,
					Skipped:    true,
					SkipReason: "bail",
				})
			}
			break
		}
	}

	result.Duration = time.Since(start)
	return result, nil
}

func (res *RunResult) add(rr *RequestResult) {
	res.Results = append(res.Results, rr)
	switch {
	case rr.Skipped:
		res.Skipped++
	case rr.Passed:
		res.Passed++
	default:
		res.Failed++
	}
}

func (r *Runner) collect(c *model.Collection) ([]target, error) {
	var targets []target
	visit := func(folderPath string, req *model.Request) error {
		targets = append(targets, target{path: path.Join(folderPath, req.Name), req: req})
		return nil
	}

	folder := strings.Trim(r.config.Folder, "/")
	if folder == "" {
		if err := c.Walk(visit); err != nil {
			return nil, err
		}
		return targets, nil
	}

	if _, err := c.FindFolder(folder); err != nil {
		return nil, fmt.Errorf("folder %q: %w", folder, err)
	}
	prefix := folder + "/"
	err := c.Walk(func(folderPath string, req *model.Request) error {
		if folderPath == folder || strings.HasPrefix(folderPath, prefix) {
			return visit(folderPath, req)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return targets, nil
}

// runRequestWithRetry only returns an error when ctx ends the run.
func (r *Runner) runRequestWithRetry(ctx context.Context, t target) (*RequestResult, error) {
	retryDelay := r.config.RetryDelay
	if retryDelay <= 0 {
		retryDelay = DefaultRetryDelay
	}

	var result *RequestResult
	for attempt := 0; attempt <= r.config.Retries; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		result = r.executeRequest(ctx, t)
		result.Attempts = attempt + 1
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if result.Passed {
			return result, nil
		}

		// Check if we should retry based on status code
		if len(r.config.RetryOn) > 0 && result.Result != nil && result.Result.Response != nil {
			shouldRetry := false
			for _, status := range r.config.RetryOn {
				if result.Result.Response.StatusCode == status {
					shouldRetry = true
					break
				}
			}
			if !shouldRetry {
				return result, nil
			}
		}

		if attempt < r.config.Retries {
			select {
			case <-time.After(retryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	return result, nil
}

func (r *Runner) executeRequest(ctx context.Context, t target) *RequestResult {
	result := &RequestResult{
		Path: t.path,
		Name: t.req.Name,
	}

	start := time.Now()
	sent, err := r.sender.SendAs(ctx, t.path, t.req)
	result.Duration = time.Since(start)
	result.Result = sent

	if err != nil {
		result.Error = err
		return result
	}
	result.Passed = sent.Response.IsSuccess()
	return result
}

func matchesPattern(name, pattern string) bool {
	if pattern == "" {
		return true
	}

	if pattern[0] == '*' && pattern[len(pattern)-1] == '*' && len(pattern) > 1 {
		substr := pattern[1 : len(pattern)-1]
		for i := 0; i <= len(name)-len(substr); i++ {
			if name[i:i+len(substr)] == substr {
				return true
			}
		}
		return false
	}

	if pattern[0] == '*' {
		suffix := pattern[1:]
		return len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix
	}

	if pattern[len(pattern)-1] == '*' {
		prefix := pattern[:len(pattern)-1]
		return len(name) >= len(prefix) && name[:len(prefix)] == prefix
	}

	return name == pattern
}
