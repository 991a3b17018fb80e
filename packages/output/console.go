package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/runner"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

// truncate shortens s to maxLen bytes, marking the cut.
func truncate(s string, maxLen int) string {
	if maxLen <= 0 || len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

type ConsoleFormatter struct {
	writer      io.Writer
	verbose     bool
	noColor     bool
	showHeaders bool
	showTiming  bool
	query       string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose shows headers and the timing breakdown.
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func WithHeaders(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.showHeaders = show
	}
}

func WithTiming(show bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.showTiming = show
	}
}

// WithQuery prints only the part of a JSON body selected by a gjson path.
func WithQuery(path string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.query = path
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgYellow, color.Bold)
	case code >= 300:
		return color.New(color.FgCyan, color.Bold)
	case code >= 200:
		return color.New(color.FgGreen, color.Bold)
	}
	return color.New(color.Bold)
}

// FormatResponse prints a send result: status line, optional headers and
// timing, then the body.
func (f *ConsoleFormatter) FormatResponse(result *workspace.Result) {
	yellow := color.New(color.FgYellow).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	for _, name := range result.Unresolved {
		fmt.Fprintf(f.writer, "%s unresolved variable %s\n", yellow("!"), bold(name))
	}

	resp := result.Response
	if resp == nil {
		if result.Err != nil {
			f.FormatError(result.Err)
		}
		return
	}

	fmt.Fprintf(f.writer, "%s %s %s\n",
		resp.Proto,
		statusColor(resp.StatusCode).Sprint(resp.Status),
		faint(fmt.Sprintf("%dms %s", resp.DurationMs(), formatSize(resp.Size()))),
	)

	if f.verbose || f.showHeaders {
		f.formatHeaders(resp)
	}
	if f.verbose || f.showTiming {
		fmt.Fprintln(f.writer)
		f.FormatTiming(resp.Timing)
	}

	body := resp.Pretty()
	if f.query != "" {
		value, ok := resp.Query(f.query)
		if !ok {
			fmt.Fprintf(f.writer, "%s no match for %s\n", yellow("!"), f.query)
			return
		}
		body = value
	}
	if body != "" {
		fmt.Fprintln(f.writer)
		fmt.Fprintln(f.writer, body)
	}
}

func (f *ConsoleFormatter) formatHeaders(resp *http.Response) {
	cyan := color.New(color.FgCyan).SprintFunc()

	keys := make([]string, 0, len(resp.Headers))
	for k := range resp.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		for _, v := range resp.Headers[k] {
			fmt.Fprintf(f.writer, "%s: %s\n", cyan(k), v)
		}
	}
}

// FormatTiming prints each phase with a proportional bar.
func (f *ConsoleFormatter) FormatTiming(t http.Timing) {
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	phases := []struct {
		name string
		d    time.Duration
	}{
		{"DNS lookup", t.DNS},
		{"TCP connect", t.Connect},
		{"TLS handshake", t.TLS},
		{"Waiting (TTFB)", t.Wait},
		{"Download", t.Download},
	}

	const width = 30
	for _, p := range phases {
		bar := 0
		if t.Total > 0 {
			bar = int(float64(width) * float64(p.d) / float64(t.Total))
		}
		fmt.Fprintf(f.writer, "  %-15s %10s %s\n", p.name, formatDuration(p.d), cyan(strings.Repeat("█", bar)))
	}
	total := formatDuration(t.Total)
	if t.ReusedConn {
		total += " " + faint("(reused connection)")
	}
	fmt.Fprintf(f.writer, "  %-15s %10s\n", "Total", total)
}

func (f *ConsoleFormatter) FormatRunResult(result *runner.RunResult) {
	green := color.New(color.FgGreen).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintf(f.writer, "\n%s\n", bold("Running: "+result.Collection))
	fmt.Fprintf(f.writer, "\n")

	for _, r := range result.Results {
		if r.Skipped {
			fmt.Fprintf(f.writer, "  %s %s", yellow("-"), r.Path)
			if r.SkipReason != "" && r.SkipReason != "filtered out" {
				fmt.Fprintf(f.writer, " (%s)", r.SkipReason)
			}
			fmt.Fprintf(f.writer, "\n")
			continue
		}

		if r.Error != nil {
			fmt.Fprintf(f.writer, "  %s %s %s\n", red("x"), r.Path, red(fmt.Sprintf("(%v)", r.Error)))
			continue
		}

		symbol := green("✓")
		if !r.Passed {
			symbol = red("✗")
		}

		resp := r.Result.Response
		fmt.Fprintf(f.writer, "  %s %s %s %s\n", symbol, r.Path,
			statusColor(resp.StatusCode).Sprint(resp.StatusCode),
			cyan(fmt.Sprintf("(%dms)", r.Duration.Milliseconds())))

		if r.Attempts > 1 {
			fmt.Fprintf(f.writer, "    %s\n", yellow(fmt.Sprintf("%d attempts", r.Attempts)))
		}
		if f.verbose {
			fmt.Fprintf(f.writer, "    %s %s\n", r.Result.Request.EffectiveMethod(), r.Result.Request.URL)
			for _, name := range r.Result.Unresolved {
				fmt.Fprintf(f.writer, "    %s unresolved variable %s\n", yellow("!"), name)
			}
		}
	}

	fmt.Fprintf(f.writer, "\n")
	fmt.Fprintf(f.writer, "Requests: ")
	if result.Passed > 0 {
		fmt.Fprintf(f.writer, "%s, ", green(fmt.Sprintf("%d passed", result.Passed)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(f.writer, "%s, ", red(fmt.Sprintf("%d failed", result.Failed)))
	}
	if result.Skipped > 0 {
		fmt.Fprintf(f.writer, "%s, ", yellow(fmt.Sprintf("%d skipped", result.Skipped)))
	}
	total := result.Passed + result.Failed + result.Skipped
	fmt.Fprintf(f.writer, "%d total\n", total)
	fmt.Fprintf(f.writer, "Time:     %dms\n", result.Duration.Milliseconds())
	fmt.Fprintf(f.writer, "\n")
}

// FormatRequest prints a saved request the way it will be sent, disabled
// entries marked.
func (f *ConsoleFormatter) FormatRequest(path string, req *model.Request) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	fmt.Fprintf(f.writer, "%s %s\n", bold(path), faint(req.ID))
	fmt.Fprintf(f.writer, "%s %s\n", cyan(req.EffectiveMethod()), req.URL)

	sections := []struct {
		title   string
		entries []model.KeyValue
	}{
		{"Query", req.QueryParams},
		{"Headers", req.Headers},
		{"Cookies", req.Cookies},
	}
	for _, s := range sections {
		if len(s.entries) == 0 {
			continue
		}
		fmt.Fprintf(f.writer, "\n%s\n", bold(s.title))
		for _, kv := range s.entries {
			line := fmt.Sprintf("  %s: %s", kv.Key, kv.Value)
			if !kv.Enabled {
				line = faint(line + " (disabled)")
			}
			fmt.Fprintln(f.writer, line)
		}
	}

	if req.Auth.Type != "" && req.Auth.Type != model.AuthNone {
		fmt.Fprintf(f.writer, "\n%s %s\n", bold("Auth"), req.Auth.Type)
	}
	if req.Body != "" {
		fmt.Fprintf(f.writer, "\n%s\n%s\n", bold("Body"), req.Body)
	}
}

// FormatEnvironments lists every environment with its role.
func (f *ConsoleFormatter) FormatEnvironments(set *env.Set) {
	green := color.New(color.FgGreen).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(set.Environments) == 0 {
		fmt.Fprintln(f.writer, faint("no environments"))
		return
	}
	for _, e := range set.Environments {
		marker := " "
		suffix := ""
		switch {
		case e.IsGlobal:
			marker = cyan("G")
			suffix = cyan(" (global)")
		case e.IsActive:
			marker = green("*")
			suffix = green(" (active)")
		}
		fmt.Fprintf(f.writer, "%s %s%s %s\n", marker, e.Name, suffix, faint(fmt.Sprintf("%d vars", len(e.Variables))))
	}
}

func (f *ConsoleFormatter) FormatEnvironment(e *env.Environment) {
	bold := color.New(color.Bold).SprintFunc()
	cyan := color.New(color.FgCyan).SprintFunc()

	fmt.Fprintln(f.writer, bold(e.Name))
	for _, v := range e.Variables {
		fmt.Fprintf(f.writer, "  %s = %s\n", cyan(v.Key), v.Value)
	}
}

func (f *ConsoleFormatter) FormatHistory(entries []history.Entry) {
	red := color.New(color.FgRed).SprintFunc()
	faint := color.New(color.Faint).SprintFunc()

	if len(entries) == 0 {
		fmt.Fprintln(f.writer, faint("no history"))
		return
	}
	for _, e := range entries {
		status := statusColor(e.Status).Sprint(e.Status)
		if e.Failed() {
			status = red("ERR")
		}
		fmt.Fprintf(f.writer, "%s %s %-6s %s %s %s\n",
			faint(e.Time.Local().Format("2006-01-02 15:04:05")),
			status,
			e.Method,
			e.RequestPath,
			faint(truncate(e.URL, 60)),
			faint(formatDuration(e.Duration)),
		)
		if f.verbose && e.Failed() {
			fmt.Fprintf(f.writer, "    %s\n", red(e.Error))
		}
	}
}

func (f *ConsoleFormatter) FormatStats(label string, s history.Stats) {
	bold := color.New(color.Bold).SprintFunc()

	fmt.Fprintln(f.writer, bold(label))
	fmt.Fprintf(f.writer, "  %-8s %d (%d failed)\n", "Requests", s.Count, s.Errors)
	if s.Count == s.Errors {
		return
	}
	rows := []struct {
		name string
		d    time.Duration
	}{
		{"Min", s.Min},
		{"Mean", s.Mean},
		{"P50", s.P50},
		{"P90", s.P90},
		{"P99", s.P99},
		{"Max", s.Max},
	}
	for _, r := range rows {
		fmt.Fprintf(f.writer, "  %-8s %s\n", r.name, formatDuration(r.d))
	}
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

func (f *ConsoleFormatter) FormatHeader(version string) {
	bold := color.New(color.Bold).SprintFunc()
	fmt.Fprintf(f.writer, "%s %s\n", bold("hitdesk"), version)
}

func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Second:
		return fmt.Sprintf("%.2fs", d.Seconds())
	case d >= time.Millisecond:
		return fmt.Sprintf("%dms", d.Milliseconds())
	default:
		return fmt.Sprintf("%dµs", d.Microseconds())
	}
}

func formatSize(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKB", float64(n)/(1<<10))
	default:
		return fmt.Sprintf("%dB", n)
	}
}
