package cmd

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/import/curl"
	"github.com/abdul-hamid-achik/hitdesk/packages/import/insomnia"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

var (
	importCollectionFlag string
	importCurlTargetFlag string
	importNoEnvsFlag     bool
	importNoDisabledFlag bool
	importKeepQueryFlag  bool
	importFolderFlag     string
)

var importCmd = &cobra.Command{
	Use:   "import <format> <source>",
	Short: "Import requests from other tools",
	Long: `Import requests from other tools into the workspace.

Supported formats:
  insomnia - Insomnia v4 export (requests, folders and environments)
  curl     - curl command, or a file of curl commands

Examples:
  hitdesk import insomnia export.json
  hitdesk import insomnia export.json --collection "Shop API" --no-envs
  hitdesk import curl "curl -X POST https://api.example.com/users -d '{\"name\":\"a\"}'"
  hitdesk import curl requests.sh --collection Smoke`,
}

var importInsomniaCmd = &cobra.Command{
	Use:   "insomnia <export-file>",
	Short: "Import from an Insomnia export",
	Long: `Import a collection and its environments from an Insomnia v4 export.

Folders become folders, the base environment becomes the global environment
and sub-environments become regular environments. Environments whose name
already exists in the workspace are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: importInsomniaCommand,
}

var importCurlCmd = &cobra.Command{
	Use:   "curl <command|file|->",
	Short: "Import from curl commands",
	Long: `Import a curl command as a request. A file argument may hold several
commands; "-" reads them from stdin.

Requests are added to the collection named by --collection, which is created
when missing.`,
	Args: cobra.ExactArgs(1),
	RunE: importCurlCommand,
}

func init() {
	importInsomniaCmd.Flags().StringVar(&importCollectionFlag, "collection", "", "Collection name (default: the Insomnia workspace name)")
	importInsomniaCmd.Flags().BoolVar(&importNoEnvsFlag, "no-envs", false, "Don't import environments")
	importInsomniaCmd.Flags().BoolVar(&importNoDisabledFlag, "no-disabled", false, "Drop disabled headers and parameters")

	importCurlCmd.Flags().StringVar(&importCurlTargetFlag, "collection", "Imported", "Collection to add the requests to")
	importCurlCmd.Flags().StringVar(&importFolderFlag, "folder", "", "Folder path to add the requests to")
	importCurlCmd.Flags().BoolVar(&importKeepQueryFlag, "keep-query", false, "Keep the query string in the URL instead of splitting it into parameters")

	importCmd.AddCommand(importInsomniaCmd)
	importCmd.AddCommand(importCurlCmd)
}

func importInsomniaCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	converter := insomnia.NewConverter(insomnia.WithDisabled(!importNoDisabledFlag))
	result, err := converter.ConvertFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to convert Insomnia export: %w", err)
	}
	if importCollectionFlag != "" {
		result.Collection.Name = importCollectionFlag
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	if err := st.SaveCollection(ctx, result.Collection); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported collection %s (%d requests)\n", result.Collection.Name, result.Collection.Count())

	if importNoEnvsFlag || len(result.Environments) == 0 {
		return nil
	}

	set, err := st.LoadEnvironments(ctx)
	if err != nil {
		return err
	}
	added := mergeEnvironments(set, result.Environments)
	if added == 0 {
		return nil
	}
	if err := st.SaveEnvironments(ctx, set); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Imported %d environments\n", added)
	return nil
}

// mergeEnvironments adds imported environments that do not clash with
// existing names. An imported global only stays global when the set has none.
func mergeEnvironments(set *env.Set, imported []*env.Environment) int {
	hasGlobal := set.Global() != nil
	added := 0
	for _, e := range imported {
		if e.IsGlobal && hasGlobal {
			e.IsGlobal = false
		}
		if err := set.Add(e); err != nil {
			if errors.Is(err, env.ErrDuplicateEnvironment) {
				slog.Warn("skipping environment", "environment", e.Name, "reason", "name already exists")
				continue
			}
			slog.Warn("skipping environment", "environment", e.Name, "error", err)
			continue
		}
		added++
	}
	return added
}

func importCurlCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	converter := curl.NewConverter(curl.WithSplitQuery(!importKeepQueryFlag))

	source := args[0]
	var imported *model.Collection
	var err error
	switch {
	case source == "-":
		imported, err = converter.ConvertReader(cmd.InOrStdin(), importCurlTargetFlag)
	case strings.HasPrefix(strings.TrimSpace(source), "curl"):
		var req *model.Request
		req, err = converter.ConvertCommand(source)
		if err == nil {
			imported = model.NewCollection(importCurlTargetFlag)
			imported.Requests = append(imported.Requests, req)
		}
	default:
		imported, err = convertCurlFile(converter, source)
	}
	if err != nil {
		return fmt.Errorf("failed to convert curl command: %w", err)
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	target, err := st.FindCollection(ctx, importCurlTargetFlag)
	if errors.Is(err, model.ErrNotFound) {
		target, err = model.NewCollection(importCurlTargetFlag), nil
	}
	if err != nil {
		return err
	}

	requests := imported.Requests
	if folderPath := strings.Trim(importFolderFlag, "/"); folderPath != "" {
		folder := ensureFolder(target, folderPath)
		folder.Requests = append(folder.Requests, requests...)
	} else {
		target.Requests = append(target.Requests, requests...)
	}

	if err := st.SaveCollection(ctx, target); err != nil {
		return err
	}
	for _, req := range requests {
		fmt.Fprintf(cmd.OutOrStdout(), "Imported %s %s as %q\n", req.Method, req.URL, req.Name)
	}
	return nil
}

func convertCurlFile(converter *curl.Converter, path string) (*model.Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return converter.ConvertReader(f, importCurlTargetFlag)
}
