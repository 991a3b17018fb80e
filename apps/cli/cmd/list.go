package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

var listCmd = &cobra.Command{
	Use:   "list [collection]",
	Short: "List collections, or the requests of one collection",
	Long: `List the collections of the workspace, or the request tree of one collection.

Examples:
  hitdesk list
  hitdesk list Users`,
	Args: cobra.MaximumNArgs(1),
	RunE: listCommand,
}

func listCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		collections, err := st.Collections(ctx)
		if err != nil {
			return err
		}
		if len(collections) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No collections. Create one with 'hitdesk init' or 'hitdesk import'.")
			return nil
		}
		for _, c := range collections {
			fmt.Fprintf(cmd.OutOrStdout(), "%s (%d requests)\n", c.Name, c.Count())
			if c.Description != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "    %s\n", c.Description)
			}
		}
		return nil
	}

	collection, err := st.FindCollection(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "\n%s:\n", collection.Name)
	printRequests(cmd, collection.Requests, 1)
	printFolders(cmd, collection.Folders, 1)
	return nil
}

func printFolders(cmd *cobra.Command, folders []*model.Folder, depth int) {
	for _, f := range folders {
		fmt.Fprintf(cmd.OutOrStdout(), "%s%s/\n", strings.Repeat("  ", depth), f.Name)
		printRequests(cmd, f.Requests, depth+1)
		printFolders(cmd, f.Folders, depth+1)
	}
}

func printRequests(cmd *cobra.Command, requests []*model.Request, depth int) {
	for _, req := range requests {
		fmt.Fprintf(cmd.OutOrStdout(), "%s- %-7s %s\n", strings.Repeat("  ", depth), req.EffectiveMethod(), req.Name)
	}
}
