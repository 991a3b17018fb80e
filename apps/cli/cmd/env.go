package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

var (
	envImportNameFlag  string
	envImportMergeFlag bool
	envExportFileFlag  string
)

var envCmd = &cobra.Command{
	Use:     "env",
	Aliases: []string{"environment"},
	Short:   "Manage environments and their variables",
	Long: `Manage the named environments of the workspace.

The global environment applies to every request. At most one other
environment is active; its values override the global ones.

Examples:
  hitdesk env list
  hitdesk env create staging
  hitdesk env set staging baseUrl=https://staging.example.com token=abc
  hitdesk env activate staging
  hitdesk env global shared
  hitdesk env import .env.local
  hitdesk env export staging -o staging.yaml`,
}

var envListCmd = &cobra.Command{
	Use:   "list",
	Short: "List environments",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, set, err := openEnvironments(cmd)
		if err != nil {
			return err
		}
		newConsole(cmd).FormatEnvironments(set)
		return nil
	},
}

var envShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the variables of an environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, set, err := openEnvironments(cmd)
		if err != nil {
			return err
		}
		e, err := set.Get(args[0])
		if err != nil {
			return err
		}
		newConsole(cmd).FormatEnvironment(e)
		return nil
	},
}

var envCreateCmd = &cobra.Command{
	Use:   "create <name> [key=value]...",
	Short: "Create an environment",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, set, err := openEnvironments(cmd)
		if err != nil {
			return err
		}
		vars, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		e := env.NewEnvironment(args[0])
		e.Import(vars)
		if err := set.Add(e); err != nil {
			return err
		}
		if err := st.SaveEnvironments(cmd.Context(), set); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created environment %s\n", e.Name)
		return nil
	},
}

var envDeleteCmd = &cobra.Command{
	Use:   "delete <name>",
	Short: "Delete an environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, set, err := openEnvironments(cmd)
		if err != nil {
			return err
		}
		if err := set.Remove(args[0]); err != nil {
			return err
		}
		if err := st.SaveEnvironments(cmd.Context(), set); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted environment %s\n", args[0])
		return nil
	},
}

var envSetCmd = &cobra.Command{
	Use:   "set <name> <key=value>...",
	Short: "Set variables in an environment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		vars, err := parseAssignments(args[1:])
		if err != nil {
			return err
		}
		return editEnvironment(cmd, args[0], func(editor *workspace.EnvironmentEditor) error {
			for _, v := range vars {
				editor.SetVariable(v.Key, v.Value)
			}
			return nil
		})
	},
}

var envUnsetCmd = &cobra.Command{
	Use:   "unset <name> <key>...",
	Short: "Remove variables from an environment",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editEnvironment(cmd, args[0], func(editor *workspace.EnvironmentEditor) error {
			for _, key := range args[1:] {
				if !editor.UnsetVariable(key) {
					fmt.Fprintf(cmd.ErrOrStderr(), "%s is not set in %s\n", key, args[0])
				}
			}
			return nil
		})
	},
}

var envRenameCmd = &cobra.Command{
	Use:   "rename <name> <new-name>",
	Short: "Rename an environment",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return editEnvironment(cmd, args[0], func(editor *workspace.EnvironmentEditor) error {
			return editor.Rename(args[1])
		})
	},
}

var envActivateCmd = &cobra.Command{
	Use:   "activate [name]",
	Short: "Make an environment active, or deactivate all with no name",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := ""
		if len(args) == 1 {
			name = args[0]
		}
		return updateFlags(cmd, func(set *env.Set) error {
			return set.Activate(name)
		})
	},
}

var envGlobalCmd = &cobra.Command{
	Use:   "global <name>",
	Short: "Make an environment the global environment",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return updateFlags(cmd, func(set *env.Set) error {
			return set.SetGlobal(args[0])
		})
	},
}

var envImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import an environment from a YAML or .env file",
	Long: `Import an environment from YAML (as written by "env export", or a flat
key: value mapping) or from a .env file.

An existing environment with the same name has its variables replaced, or
merged with --merge.`,
	Args: cobra.ExactArgs(1),
	RunE: envImportCommand,
}

var envExportCmd = &cobra.Command{
	Use:   "export <name>",
	Short: "Export an environment as YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, set, err := openEnvironments(cmd)
		if err != nil {
			return err
		}
		e, err := set.Get(args[0])
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		if envExportFileFlag != "" {
			f, err := os.Create(envExportFileFlag)
			if err != nil {
				return fmt.Errorf("cannot create output file: %w", err)
			}
			defer f.Close()
			out = f
		}
		return store.ExportEnvironmentYAML(out, e)
	},
}

func init() {
	envImportCmd.Flags().StringVar(&envImportNameFlag, "name", "", "Environment name (default: from the file)")
	envImportCmd.Flags().BoolVar(&envImportMergeFlag, "merge", false, "Merge into an existing environment instead of replacing its variables")
	envExportCmd.Flags().StringVarP(&envExportFileFlag, "output", "o", "", "Output file path (default: stdout)")

	envCmd.AddCommand(envListCmd, envShowCmd, envCreateCmd, envDeleteCmd, envSetCmd, envUnsetCmd,
		envRenameCmd, envActivateCmd, envGlobalCmd, envImportCmd, envExportCmd)
}

// openEnvironments loads the stored set as is; --env is not applied so
// saving never persists a temporary activation.
func openEnvironments(cmd *cobra.Command) (*store.Store, *env.Set, error) {
	st, err := openStore()
	if err != nil {
		return nil, nil, err
	}
	set, err := st.LoadEnvironments(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	return st, set, nil
}

func editEnvironment(cmd *cobra.Command, name string, edit func(*workspace.EnvironmentEditor) error) error {
	st, set, err := openEnvironments(cmd)
	if err != nil {
		return err
	}
	editor, err := workspace.NewEnvironmentEditor(set, name, st)
	if err != nil {
		return err
	}
	if err := edit(editor); err != nil {
		return err
	}

	saved, err := editor.Save(cmd.Context())
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintf(cmd.OutOrStdout(), "No changes to %s\n", name)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved environment %s\n", editor.Environment().Name)
	return nil
}

func updateFlags(cmd *cobra.Command, update func(*env.Set) error) error {
	st, set, err := openEnvironments(cmd)
	if err != nil {
		return err
	}
	if err := update(set); err != nil {
		return err
	}
	if err := st.SaveEnvironments(cmd.Context(), set); err != nil {
		return err
	}
	newConsole(cmd).FormatEnvironments(set)
	return nil
}

func envImportCommand(cmd *cobra.Command, args []string) error {
	imported, err := readEnvironmentFile(args[0])
	if err != nil {
		return err
	}
	if envImportNameFlag != "" {
		imported.Name = envImportNameFlag
	}

	st, set, err := openEnvironments(cmd)
	if err != nil {
		return err
	}

	if _, err := set.Get(imported.Name); err != nil {
		if err := set.Add(imported); err != nil {
			return err
		}
		if err := st.SaveEnvironments(cmd.Context(), set); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Imported environment %s (%d variables)\n", imported.Name, len(imported.Variables))
		return nil
	}

	return editEnvironment(cmd, imported.Name, func(editor *workspace.EnvironmentEditor) error {
		if envImportMergeFlag {
			for _, v := range imported.Variables {
				editor.SetVariable(v.Key, v.Value)
			}
			return nil
		}
		editor.ReplaceVariables(imported.Variables)
		return nil
	})
}

func readEnvironmentFile(path string) (*env.Environment, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		e, err := store.ImportEnvironmentYAML(f)
		if err != nil {
			return nil, err
		}
		if e.Name == "" {
			e.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		}
		return e, nil
	default:
		return env.EnvironmentFromDotEnv("", path)
	}
}

// parseAssignments turns key=value arguments into variables.
func parseAssignments(args []string) ([]env.Variable, error) {
	vars := make([]env.Variable, 0, len(args))
	for _, arg := range args {
		key, value, found := strings.Cut(arg, "=")
		if !found || strings.TrimSpace(key) == "" {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("expected key=value, got %q", arg))
		}
		vars = append(vars, env.Variable{Key: strings.TrimSpace(key), Value: value})
	}
	return vars, nil
}
