package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate [file]...",
	Short: "Validate collection files against the collection schema",
	Long: `Validate collection files without loading them into a workspace. With no
arguments every collection of the workspace is checked.

Examples:
  hitdesk validate
  hitdesk validate exported.json`,
	RunE: validateCommand,
}

func validateCommand(cmd *cobra.Command, args []string) error {
	files := args
	if len(files) == 0 {
		st, err := openStore()
		if err != nil {
			return err
		}
		matches, err := filepath.Glob(filepath.Join(st.CollectionsDir(), "*.json"))
		if err != nil {
			return err
		}
		files = matches
	}

	if len(files) == 0 {
		return fmt.Errorf("no collection files found")
	}

	hasErrors := false
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err == nil {
			err = store.ValidateCollection(data)
		}
		if err != nil {
			fmt.Fprintf(cmd.OutOrStderr(), "Error in %s: %v\n", file, err)
			hasErrors = true
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "Valid: %s\n", file)
		}
	}

	if hasErrors {
		return withExitCode(ExitInvalidWorkspace, fmt.Errorf("validation failed"))
	}

	return nil
}
