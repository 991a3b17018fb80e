package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

var (
	configFlag    string
	workspaceFlag string
	envFlag       string
	timeoutFlag   string
	proxyFlag     string
	insecureFlag  bool
	noColorFlag   bool
	verboseFlag   bool
	logLevelFlag  string
	logFileFlag   string
)

var rootCmd = &cobra.Command{
	Use:   "hitdesk",
	Short: "Saved HTTP requests, environments and variables from the terminal.",
	Long: `hitdesk keeps collections of HTTP requests and named environments in a
workspace directory. Requests reference variables as {{name}}; sending a
request substitutes the active and global environment values first.`,
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setupApp,
	PersistentPostRunE: teardownApp,
}

func Execute(v, bt string) {
	version = v
	buildTime = bt
	if err := rootCmd.Execute(); err != nil {
		var exitErr *exitError
		if !errors.As(err, &exitErr) || exitErr.err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configFlag, "config", getEnvString("HITDESK_CONFIG", ""), "Path to config file (env: HITDESK_CONFIG)")
	flags.StringVarP(&workspaceFlag, "workspace", "w", getEnvString("HITDESK_WORKSPACE", ""), "Workspace directory (env: HITDESK_WORKSPACE)")
	flags.StringVarP(&envFlag, "env", "e", getEnvString("HITDESK_ENV", ""), "Environment to activate for this command (env: HITDESK_ENV)")
	flags.StringVar(&timeoutFlag, "timeout", getEnvString("HITDESK_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITDESK_TIMEOUT)")
	flags.StringVar(&proxyFlag, "proxy", getEnvString("HITDESK_PROXY", ""), "Proxy URL for HTTP requests (env: HITDESK_PROXY)")
	flags.BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITDESK_INSECURE", false), "Disable SSL certificate validation (env: HITDESK_INSECURE)")
	flags.BoolVar(&noColorFlag, "no-color", getEnvBool("HITDESK_NO_COLOR", false), "Disable colored output (env: HITDESK_NO_COLOR)")
	flags.BoolVarP(&verboseFlag, "verbose", "v", false, "Verbose output")
	flags.StringVar(&logLevelFlag, "log-level", getEnvString("HITDESK_LOG_LEVEL", ""), "Log level: debug, info, warn, error (env: HITDESK_LOG_LEVEL)")
	flags.StringVar(&logFileFlag, "log-file", getEnvString("HITDESK_LOG_FILE", ""), "Also write logs to a rotating file (env: HITDESK_LOG_FILE)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(envCmd)
	rootCmd.AddCommand(requestCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(historyCmd)
}
