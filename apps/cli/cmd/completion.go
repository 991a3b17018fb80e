package cmd

import (
	"github.com/spf13/cobra"
)

var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate shell completion scripts for hitdesk.

To load completions:

Bash:
  $ source <(hitdesk completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ hitdesk completion bash > /etc/bash_completion.d/hitdesk
  # macOS:
  $ hitdesk completion bash > $(brew --prefix)/etc/bash_completion.d/hitdesk

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it. Execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ hitdesk completion zsh > "${fpath[1]}/_hitdesk"

  # You will need to start a new shell for this setup to take effect.

Fish:
  $ hitdesk completion fish | source

  # To load completions for each session, execute once:
  $ hitdesk completion fish > ~/.config/fish/completions/hitdesk.fish

PowerShell:
  PS> hitdesk completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, run:
  PS> hitdesk completion powershell > hitdesk.ps1
  # and source this file from your PowerShell profile.
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return cmd.Root().GenBashCompletionV2(out, true)
		case "zsh":
			return cmd.Root().GenZshCompletion(out)
		case "fish":
			return cmd.Root().GenFishCompletion(out, true)
		case "powershell":
			return cmd.Root().GenPowerShellCompletionWithDesc(out)
		}
		return nil
	},
}

func init() {
	// Completion scripts need no config or logging.
	noop := func(cmd *cobra.Command, args []string) error { return nil }
	completionCmd.PersistentPreRunE = noop
	completionCmd.PersistentPostRunE = noop

	rootCmd.AddCommand(completionCmd)
}
