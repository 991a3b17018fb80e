package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
)

var (
	resolveRequestFlag bool
	resolveStrictFlag  bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <text>... | --request <collection> <request-path>",
	Short: "Show text or a saved request with variables substituted",
	Long: `Substitute {{name}}, %7B%7Bname%7D%7D and {{$system}} placeholders the same
way sending does, without sending anything. Text "-" is read from stdin.

Unresolved names are listed on stderr.

Examples:
  hitdesk resolve "{{baseUrl}}/users/{{userId}}"
  hitdesk resolve --env staging "{{baseUrl}}"
  echo '{"id":"{{$guid}}"}' | hitdesk resolve -
  hitdesk resolve --request Users "get user"`,
	Args: cobra.MinimumNArgs(1),
	RunE: resolveCommand,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveRequestFlag, "request", false, "Resolve a saved request instead of text")
	resolveCmd.Flags().BoolVar(&resolveStrictFlag, "strict", false, "Exit with an error when anything stays unresolved")
}

func resolveCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	set, err := loadEnvironments(ctx, st)
	if err != nil {
		return err
	}

	var unresolved []string
	if resolveRequestFlag {
		if len(args) != 2 {
			return withExitCode(ExitUsageError, fmt.Errorf("--request expects <collection> <request-path>"))
		}
		_, path, req, err := findRequest(ctx, st, args)
		if err != nil {
			return err
		}
		sender, _ := newSender(set, false)
		resolved, names := sender.Resolve(req)
		newConsole(cmd).FormatRequest(path, resolved)
		unresolved = names
	} else {
		text := strings.Join(args, " ")
		if text == "-" {
			data, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			text = string(data)
		}
		resolved := newResolver().ResolveSet(text, set)
		fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(resolved, "\n"))
		unresolved = env.Unresolved(resolved)
	}

	for _, name := range unresolved {
		fmt.Fprintf(cmd.ErrOrStderr(), "unresolved: %s\n", name)
	}
	if resolveStrictFlag && len(unresolved) > 0 {
		return withExitCode(ExitUsageError, nil)
	}
	return nil
}
