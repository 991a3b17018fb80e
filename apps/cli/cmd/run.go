package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/runner"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/output"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

var (
	runFolderFlag     string
	runNameFlag       string
	runBailFlag       bool
	runRateFlag       float64
	runRetriesFlag    int
	runRetryDelayFlag string
	runRetryOnFlag    []int
	runOutputFlag     string
	runNoHistoryFlag  bool
)

var runCmd = &cobra.Command{
	Use:   "run <collection>",
	Short: "Send every request in a collection",
	Long: `Send the requests of a collection, or of one folder, in tree order.

A request passes when it gets a 2xx response. The command exits with status 1
when any request fails.

Examples:
  hitdesk run Users
  hitdesk run Users --folder admin --env staging
  hitdesk run Users --name "get*" --bail
  hitdesk run Users --rate 5 --retries 2 --retry-on 502,503`,
	Args: cobra.ExactArgs(1),
	RunE: runCommand,
}

func init() {
	runCmd.Flags().StringVar(&runFolderFlag, "folder", "", "Run only requests under this folder path")
	runCmd.Flags().StringVarP(&runNameFlag, "name", "n", "", "Run only requests whose name matches this pattern")
	runCmd.Flags().BoolVar(&runBailFlag, "bail", getEnvBool("HITDESK_BAIL", false), "Stop on first failure (env: HITDESK_BAIL)")
	runCmd.Flags().Float64VarP(&runRateFlag, "rate", "r", getEnvFloat("HITDESK_RATE", 0), "Maximum requests per second, 0 for unlimited (env: HITDESK_RATE)")
	runCmd.Flags().IntVar(&runRetriesFlag, "retries", getEnvInt("HITDESK_RETRIES", 0), "Retries for failed requests (env: HITDESK_RETRIES)")
	runCmd.Flags().StringVar(&runRetryDelayFlag, "retry-delay", "1s", "Delay between retries")
	runCmd.Flags().IntSliceVar(&runRetryOnFlag, "retry-on", nil, "Retry only on these status codes (default: any failure)")
	runCmd.Flags().StringVarP(&runOutputFlag, "output", "o", getEnvString("HITDESK_OUTPUT", "console"), "Output format: console, json (env: HITDESK_OUTPUT)")
	runCmd.Flags().BoolVar(&runNoHistoryFlag, "no-history", getEnvBool("HITDESK_NO_HISTORY", false), "Do not record requests in history (env: HITDESK_NO_HISTORY)")
}

func runCommand(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	retryDelay, err := time.ParseDuration(runRetryDelayFlag)
	if err != nil {
		return withExitCode(ExitUsageError, fmt.Errorf("invalid retry delay %q: %w", runRetryDelayFlag, err))
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	collection, err := st.FindCollection(ctx, args[0])
	if err != nil {
		return err
	}
	set, err := loadEnvironments(ctx, st)
	if err != nil {
		return err
	}

	sender, closeHistory := newSender(set, !runNoHistoryFlag)
	defer closeHistory()

	rate := runRateFlag
	if !cmd.Flags().Changed("rate") && rate == 0 {
		rate = cfg.RunRate
	}
	bail := runBailFlag
	if !cmd.Flags().Changed("bail") && !bail {
		bail = cfg.GetBail()
	}

	r := runner.NewRunner(prefixedSender{sender: sender, prefix: collection.Name}, &runner.Config{
		Folder:     runFolderFlag,
		NameFilter: runNameFlag,
		Bail:       bail,
		Rate:       rate,
		Retries:    runRetriesFlag,
		RetryDelay: retryDelay,
		RetryOn:    runRetryOnFlag,
	})

	result, runErr := r.RunCollection(ctx, collection)
	if result == nil {
		return runErr
	}

	switch strings.ToLower(runOutputFlag) {
	case "json":
		if err := output.NewJSONFormatter(output.JSONWithWriter(cmd.OutOrStdout())).FormatRunResult(result); err != nil {
			return fmt.Errorf("error writing output: %w", err)
		}
	default:
		console := newConsole(cmd)
		console.FormatHeader(version)
		console.FormatRunResult(result)
	}

	if runErr != nil && !errors.Is(runErr, ctx.Err()) {
		return runErr
	}
	if !result.Success() {
		return withExitCode(ExitRequestFailure, nil)
	}
	return nil
}

// prefixedSender records run requests in history under their collection name.
type prefixedSender struct {
	sender *workspace.Sender
	prefix string
}

func (p prefixedSender) SendAs(ctx context.Context, path string, req *model.Request) (*workspace.Result, error) {
	return p.sender.SendAs(ctx, p.prefix+"/"+path, req)
}
