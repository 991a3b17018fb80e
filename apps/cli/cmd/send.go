package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/output"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

const (
	// WatchDebounceDelay is the debounce delay for file watch events
	WatchDebounceDelay = 300 * time.Millisecond
)

var (
	sendQueryFlag     string
	sendIncludeFlag   bool
	sendTimingFlag    bool
	sendOutputFlag    string
	sendWatchFlag     bool
	sendNoHistoryFlag bool
	sendFailFlag      bool
)

var sendCmd = &cobra.Command{
	Use:   "send [collection] [request-path]",
	Short: "Send one saved request",
	Long: `Resolve a saved request against the active and global environments and send it.

The request path is "folder/sub/request name". With no arguments the last
request sent or shown in this workspace is used.

Examples:
  hitdesk send Users "admin/list users"
  hitdesk send Users "get user" --env staging -i -t
  hitdesk send Users "get user" --query data.email
  hitdesk send --watch`,
	Args: cobra.MaximumNArgs(2),
	RunE: sendCommand,
}

func init() {
	sendCmd.Flags().StringVarP(&sendQueryFlag, "query", "q", "", "Print only this JSON path of the response body (gjson syntax)")
	sendCmd.Flags().BoolVarP(&sendIncludeFlag, "include", "i", false, "Print response headers")
	sendCmd.Flags().BoolVarP(&sendTimingFlag, "timing", "t", false, "Print the timing breakdown")
	sendCmd.Flags().StringVarP(&sendOutputFlag, "output", "o", getEnvString("HITDESK_OUTPUT", "console"), "Output format: console, json (env: HITDESK_OUTPUT)")
	sendCmd.Flags().BoolVar(&sendWatchFlag, "watch", false, "Resend whenever the collection or environments change")
	sendCmd.Flags().BoolVar(&sendNoHistoryFlag, "no-history", getEnvBool("HITDESK_NO_HISTORY", false), "Do not record the request in history (env: HITDESK_NO_HISTORY)")
	sendCmd.Flags().BoolVarP(&sendFailFlag, "fail", "f", false, "Exit with an error on HTTP status 400 and above")
}

func sendCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := openStore()
	if err != nil {
		return err
	}

	collection, path, _, err := findRequest(ctx, st, args)
	if err != nil {
		return err
	}

	sendOnce := func() error {
		return sendRequest(ctx, cmd, st, collection.ID, path)
	}

	if !sendWatchFlag {
		return sendOnce()
	}

	if err := sendOnce(); err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return watchAndResend(ctx, cmd, st, collection.ID, sendOnce)
}

// sendRequest reloads the request so watch mode always sends the saved state.
func sendRequest(ctx context.Context, cmd *cobra.Command, st *store.Store, collectionID, path string) error {
	collection, err := st.LoadCollection(ctx, collectionID)
	if err != nil {
		return err
	}
	req, err := collection.Find(path)
	if err != nil {
		return fmt.Errorf("request %q in %s: %w", path, collection.Name, err)
	}

	set, err := loadEnvironments(ctx, st)
	if err != nil {
		return err
	}

	sender, closeHistory := newSender(set, !sendNoHistoryFlag)
	defer closeHistory()

	result, sendErr := sender.SendAs(ctx, historyPath(collection, path), req)

	switch strings.ToLower(sendOutputFlag) {
	case "json":
		if err := output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout())).FormatResponse(result); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	default:
		newConsole(cmd,
			output.WithHeaders(sendIncludeFlag),
			output.WithTiming(sendTimingFlag),
			output.WithQuery(sendQueryFlag),
		).FormatResponse(result)
	}

	if sendErr != nil {
		if errors.Is(sendErr, workspace.ErrUnresolvedURL) {
			return withExitCode(ExitUsageError, nil)
		}
		return withExitCode(ExitNetworkError, nil)
	}
	if sendFailFlag && result.Response.StatusCode >= 400 {
		return withExitCode(ExitRequestFailure, nil)
	}
	return nil
}

// historyPath names a request in history as "collection/folder/request".
func historyPath(c *model.Collection, path string) string {
	return c.Name + "/" + strings.Trim(path, "/")
}

// watchAndResend resends after the collection file or the environments
// change. Stores replace files by rename, so the directories are watched.
func watchAndResend(ctx context.Context, cmd *cobra.Command, st *store.Store, collectionID string, send func() error) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	collectionFile := filepath.Clean(st.CollectionPath(collectionID))
	envFile := filepath.Clean(st.EnvironmentsPath())
	watched := map[string]bool{
		collectionFile: true,
		envFile:        true,
	}
	for file := range watched {
		dir := filepath.Dir(file)
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n\n")

	var debounce <-chan time.Time
	var changed string
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if !watched[filepath.Clean(event.Name)] {
				continue
			}
			changed = event.Name
			debounce = time.After(WatchDebounceDelay)

		case <-debounce:
			debounce = nil
			fmt.Fprintf(cmd.OutOrStdout(), "\n\nFile changed: %s\nResending...\n\n", changed)
			if err := send(); err != nil {
				var exitErr *exitError
				if !errors.As(err, &exitErr) || exitErr.err != nil {
					fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\nWatching for changes... (press Ctrl+C to stop)\n")

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Error: watcher error: %v\n", err)
		}
	}
}
