package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/config"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/history"
	"github.com/abdul-hamid-achik/hitdesk/packages/http"
	"github.com/abdul-hamid-achik/hitdesk/packages/logging"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/output"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

// Settings resolved once per invocation by setupApp.
var (
	cfg      = config.DefaultConfig()
	closeLog = func() error { return nil }
)

// Environment variable helpers
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		return val == "true" || val == "1" || val == "yes"
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// setupApp loads the config file, applies flag overrides and installs the
// logger.
func setupApp(cmd *cobra.Command, args []string) error {
	fileConfig, err := config.LoadConfig(configFlag)
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("load config: %w", err))
	}

	overrides := &config.Config{
		WorkspaceDir: workspaceFlag,
		Proxy:        proxyFlag,
		LogFile:      logFileFlag,
		LogLevel:     logLevelFlag,
	}
	if timeoutFlag != "" {
		timeout, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return withExitCode(ExitUsageError, fmt.Errorf("invalid timeout value %q: %w (use format like 30s, 1m, 500ms)", timeoutFlag, err))
		}
		overrides.Timeout = int(timeout.Milliseconds())
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}
	if verboseFlag && logLevelFlag == "" {
		overrides.LogLevel = "debug"
	}
	cfg = fileConfig.Merge(overrides)

	closeLog, err = logging.Setup(logging.Options{
		Level: cfg.LogLevel,
		File:  cfg.LogPath(),
	})
	if err != nil {
		return withExitCode(ExitConfigError, fmt.Errorf("set up logging: %w", err))
	}

	slog.Debug("configuration loaded", "workspace", cfg.WorkspaceDir, "timeout", cfg.TimeoutDuration())
	return nil
}

func teardownApp(cmd *cobra.Command, args []string) error {
	return closeLog()
}

func openStore() (*store.Store, error) {
	st, err := store.Open(cfg.WorkspaceDir)
	if err != nil {
		return nil, withExitCode(ExitConfigError, err)
	}
	return st, nil
}

// loadEnvironments loads the environment set and applies --env, or the
// configured default environment when none is active. Neither is persisted.
func loadEnvironments(ctx context.Context, st *store.Store) (*env.Set, error) {
	set, err := st.LoadEnvironments(ctx)
	if err != nil {
		return nil, err
	}

	switch {
	case envFlag != "":
		if err := set.Activate(envFlag); err != nil {
			return nil, err
		}
	case set.Active() == nil && cfg.DefaultEnvironment != "":
		if err := set.Activate(cfg.DefaultEnvironment); err != nil {
			slog.Warn("default environment not usable", "environment", cfg.DefaultEnvironment, "error", err)
		}
	}
	return set, nil
}

func newClient() *http.Client {
	opts := []http.ClientOption{
		http.WithTimeout(cfg.TimeoutDuration()),
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	return http.NewClient(opts...)
}

// newResolver reports unresolved placeholders through slog.
func newResolver() *env.Resolver {
	r := env.NewResolver()
	r.SetWarnFunc(func(format string, args ...any) {
		slog.Debug(fmt.Sprintf(format, args...))
	})
	return r
}

func openHistory() (*history.Store, error) {
	return history.Open(cfg.HistoryPath())
}

// newSender wires a sender with history recording. The returned close
// function releases the history database.
func newSender(set *env.Set, record bool) (*workspace.Sender, func()) {
	opts := []workspace.SenderOption{workspace.WithResolver(newResolver())}
	closeFn := func() {}

	if record {
		hist, err := openHistory()
		if err != nil {
			slog.Warn("history disabled", "path", cfg.HistoryPath(), "error", err)
		} else {
			opts = append(opts, workspace.WithRecorder(hist))
			closeFn = func() {
				if err := hist.Close(); err != nil {
					slog.Warn("failed to close history", "error", err)
				}
			}
		}
	}

	return workspace.NewSender(newClient(), set, opts...), closeFn
}

// findRequest loads a collection and one request from it. With no
// arguments the last opened request from the session is used.
func findRequest(ctx context.Context, st *store.Store, args []string) (*model.Collection, string, *model.Request, error) {
	var collectionRef, path string
	switch len(args) {
	case 2:
		collectionRef, path = args[0], args[1]
	case 0:
		session, err := st.LoadSession(ctx)
		if err != nil {
			return nil, "", nil, err
		}
		if session.LastCollection == "" || session.LastRequest == "" {
			return nil, "", nil, withExitCode(ExitUsageError, fmt.Errorf("no request given and no previous request in this workspace"))
		}
		collectionRef, path = session.LastCollection, session.LastRequest
	default:
		return nil, "", nil, withExitCode(ExitUsageError, fmt.Errorf("expected <collection> <request-path>"))
	}

	collection, err := st.FindCollection(ctx, collectionRef)
	if err != nil {
		return nil, "", nil, err
	}
	req, err := collection.Find(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("request %q in %s: %w", path, collection.Name, err)
	}

	if err := st.SaveSession(ctx, store.Session{LastCollection: collection.ID, LastRequest: path}); err != nil {
		slog.Warn("failed to save session", "error", err)
	}
	return collection, path, req, nil
}

func newConsole(cmd *cobra.Command, opts ...output.ConsoleOption) *output.ConsoleFormatter {
	base := []output.ConsoleOption{
		output.WithWriter(cmd.OutOrStdout()),
		output.WithVerbose(verboseFlag),
		output.WithNoColor(cfg.GetNoColor()),
	}
	return output.NewConsoleFormatter(append(base, opts...)...)
}
