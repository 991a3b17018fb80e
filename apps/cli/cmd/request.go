package cmd

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/workspace"
)

var (
	editNameFlag     string
	editURLFlag      string
	editMethodFlag   string
	editBodyFlag     string
	editBodyFileFlag string
	editAuthFlag     string
	editHeaderFlags  []string
	editQueryFlags   []string
	editCookieFlags  []string
	editRemoveFlags  []string
	editDisableFlags []string
	editEnableFlags  []string
	editDryRunFlag   bool

	addFolderFlag string
)

var requestCmd = &cobra.Command{
	Use:     "request",
	Aliases: []string{"req"},
	Short:   "Show, create and edit saved requests",
}

var requestShowCmd = &cobra.Command{
	Use:   "show [collection] [request-path]",
	Short: "Show a saved request",
	Args:  cobra.MaximumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}
		_, path, req, err := findRequest(cmd.Context(), st, args)
		if err != nil {
			return err
		}
		newConsole(cmd).FormatRequest(path, req)
		return nil
	},
}

var requestAddCmd = &cobra.Command{
	Use:   "add <collection> <name> <method> <url>",
	Short: "Add a request to a collection",
	Args:  cobra.ExactArgs(4),
	RunE:  requestAddCommand,
}

var requestEditCmd = &cobra.Command{
	Use:   "edit [collection] [request-path]",
	Short: "Edit a saved request",
	Long: `Apply edits to a saved request and save it. Nothing is written when the
edits leave the request unchanged.

Entries are addressed as <section>:<index> with sections headers, query and
cookies, indexes starting at 0.

Auth is one of: none, basic:<user>:<password>, bearer:<token>,
apikey:<name>:<value>[:query].

Examples:
  hitdesk request edit Users "get user" --url "{{baseUrl}}/users/{{id}}"
  hitdesk request edit Users "get user" -H "Accept: application/json" --query page=2
  hitdesk request edit Users "get user" --disable headers:0 --remove query:1
  hitdesk request edit Users "login" --auth "basic:{{user}}:{{pass}}" --dry-run`,
	Args: cobra.MaximumNArgs(2),
	RunE: requestEditCommand,
}

func init() {
	requestEditCmd.Flags().StringVar(&editNameFlag, "name", "", "New request name")
	requestEditCmd.Flags().StringVar(&editURLFlag, "url", "", "New URL")
	requestEditCmd.Flags().StringVarP(&editMethodFlag, "method", "X", "", "New HTTP method")
	requestEditCmd.Flags().StringVarP(&editBodyFlag, "body", "d", "", "New body")
	requestEditCmd.Flags().StringVar(&editBodyFileFlag, "body-file", "", "Read the new body from a file")
	requestEditCmd.Flags().StringVar(&editAuthFlag, "auth", "", "New auth settings")
	requestEditCmd.Flags().StringArrayVarP(&editHeaderFlags, "header", "H", nil, "Add a header (\"Name: value\")")
	requestEditCmd.Flags().StringArrayVar(&editQueryFlags, "query", nil, "Add a query parameter (key=value)")
	requestEditCmd.Flags().StringArrayVar(&editCookieFlags, "cookie", nil, "Add a cookie (key=value)")
	requestEditCmd.Flags().StringArrayVar(&editRemoveFlags, "remove", nil, "Remove an entry (section:index)")
	requestEditCmd.Flags().StringArrayVar(&editDisableFlags, "disable", nil, "Disable an entry (section:index)")
	requestEditCmd.Flags().StringArrayVar(&editEnableFlags, "enable", nil, "Enable an entry (section:index)")
	requestEditCmd.Flags().BoolVar(&editDryRunFlag, "dry-run", false, "Show the edited request without saving")

	requestAddCmd.Flags().StringVar(&addFolderFlag, "folder", "", "Folder path to add the request to (created when missing)")

	requestCmd.AddCommand(requestShowCmd, requestAddCmd, requestEditCmd)
}

func requestEditCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	_, path, req, err := findRequest(ctx, st, args)
	if err != nil {
		return err
	}

	editor := workspace.NewRequestEditor(req, st)
	if err := applyEdits(cmd, editor); err != nil {
		return err
	}

	if editDryRunFlag {
		newConsole(cmd).FormatRequest(path, editor.Request())
		if editor.IsDirty() {
			fmt.Fprintln(cmd.OutOrStdout(), "\n(dry run, not saved)")
		}
		return editor.Revert()
	}

	saved, err := editor.Save(ctx)
	if err != nil {
		return err
	}
	if !saved {
		fmt.Fprintf(cmd.OutOrStdout(), "No changes to %s\n", path)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Saved %s\n", editor.Request().Name)
	return nil
}

// applyEdits runs flag edits through the editor in a fixed order: scalar
// fields, removals, toggles, then additions. Removals run from the highest
// index down so earlier indexes stay valid.
func applyEdits(cmd *cobra.Command, editor *workspace.RequestEditor) error {
	flags := cmd.Flags()
	if flags.Changed("name") {
		editor.SetName(editNameFlag)
	}
	if flags.Changed("url") {
		editor.SetURL(editURLFlag)
	}
	if flags.Changed("method") {
		editor.SetMethod(editMethodFlag)
	}
	if flags.Changed("body") {
		editor.SetBody(editBodyFlag)
	}
	if editBodyFileFlag != "" {
		data, err := os.ReadFile(editBodyFileFlag)
		if err != nil {
			return fmt.Errorf("read body file: %w", err)
		}
		editor.SetBody(string(data))
	}
	if flags.Changed("auth") {
		auth, err := parseAuth(editAuthFlag)
		if err != nil {
			return err
		}
		editor.SetAuth(auth)
	}

	removals, err := parseEntryRefs(editRemoveFlags)
	if err != nil {
		return err
	}
	for i := len(removals) - 1; i >= 0; i-- {
		if err := editor.RemoveEntry(removals[i].section, removals[i].index); err != nil {
			return withExitCode(ExitUsageError, err)
		}
	}

	for _, toggle := range []struct {
		refs    []string
		enabled bool
	}{
		{editDisableFlags, false},
		{editEnableFlags, true},
	} {
		refs, err := parseEntryRefs(toggle.refs)
		if err != nil {
			return err
		}
		for _, ref := range refs {
			if err := editor.SetEntryEnabled(ref.section, ref.index, toggle.enabled); err != nil {
				return withExitCode(ExitUsageError, err)
			}
		}
	}

	additions := []struct {
		section workspace.Section
		values  []string
		sep     string
	}{
		{workspace.Headers, editHeaderFlags, ":"},
		{workspace.QueryParams, editQueryFlags, "="},
		{workspace.Cookies, editCookieFlags, "="},
	}
	for _, add := range additions {
		for _, v := range add.values {
			kv, ok := model.ParseKeyValue(v, add.sep)
			if !ok {
				return withExitCode(ExitUsageError, fmt.Errorf("invalid %s entry %q", add.section, v))
			}
			if err := editor.AddEntry(add.section, kv.Key, kv.Value); err != nil {
				return err
			}
		}
	}
	return nil
}

type entryRef struct {
	section workspace.Section
	index   int
}

// parseEntryRefs parses section:index references, sorted by index within
// each section so removals can run in reverse.
func parseEntryRefs(values []string) ([]entryRef, error) {
	refs := make([]entryRef, 0, len(values))
	for _, v := range values {
		name, idx, found := strings.Cut(v, ":")
		if !found {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("expected section:index, got %q", v))
		}
		section, err := parseSection(name)
		if err != nil {
			return nil, err
		}
		index, err := strconv.Atoi(idx)
		if err != nil {
			return nil, withExitCode(ExitUsageError, fmt.Errorf("invalid index in %q", v))
		}
		refs = append(refs, entryRef{section: section, index: index})
	}
	sort.SliceStable(refs, func(i, j int) bool {
		return refs[i].index < refs[j].index
	})
	return refs, nil
}

func parseSection(name string) (workspace.Section, error) {
	switch strings.ToLower(name) {
	case "headers", "header", "h":
		return workspace.Headers, nil
	case "query", "params", "q":
		return workspace.QueryParams, nil
	case "cookies", "cookie", "c":
		return workspace.Cookies, nil
	}
	return 0, withExitCode(ExitUsageError, fmt.Errorf("unknown section %q (use headers, query or cookies)", name))
}

func parseAuth(value string) (model.Auth, error) {
	parts := strings.SplitN(value, ":", 2)
	kind := strings.ToLower(parts[0])
	rest := ""
	if len(parts) == 2 {
		rest = parts[1]
	}

	switch model.AuthType(kind) {
	case model.AuthNone, "":
		return model.Auth{Type: model.AuthNone}, nil
	case model.AuthBasic:
		user, pass, _ := strings.Cut(rest, ":")
		return model.Auth{Type: model.AuthBasic, Username: user, Password: pass}, nil
	case model.AuthBearer:
		return model.Auth{Type: model.AuthBearer, Token: rest}, nil
	case model.AuthAPIKey:
		fields := strings.Split(rest, ":")
		if len(fields) < 2 {
			return model.Auth{}, withExitCode(ExitUsageError, fmt.Errorf("apikey auth needs apikey:<name>:<value>[:query]"))
		}
		auth := model.Auth{
			Type:           model.AuthAPIKey,
			APIKeyName:     fields[0],
			APIKeyValue:    fields[1],
			APIKeyLocation: model.APIKeyInHeader,
		}
		if len(fields) > 2 && fields[2] == string(model.APIKeyInQuery) {
			auth.APIKeyLocation = model.APIKeyInQuery
		}
		return auth, nil
	}
	return model.Auth{}, withExitCode(ExitUsageError, fmt.Errorf("unknown auth type %q", kind))
}

func requestAddCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	st, err := openStore()
	if err != nil {
		return err
	}
	collection, err := st.FindCollection(ctx, args[0])
	if err != nil {
		return err
	}

	req := model.NewRequest(args[1], args[2], args[3])
	req.ID = model.NewID()

	path := req.Name
	if folderPath := strings.Trim(addFolderFlag, "/"); folderPath != "" {
		folder := ensureFolder(collection, folderPath)
		folder.Requests = append(folder.Requests, req)
		path = folderPath + "/" + req.Name
	} else {
		collection.Requests = append(collection.Requests, req)
	}

	if err := st.SaveCollection(ctx, collection); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s to %s\n", path, collection.Name)
	return nil
}

// ensureFolder walks a folder path, creating missing folders.
func ensureFolder(c *model.Collection, path string) *model.Folder {
	folders := &c.Folders
	var current *model.Folder
	for _, name := range strings.Split(path, "/") {
		current = nil
		for _, f := range *folders {
			if f.Name == name {
				current = f
				break
			}
		}
		if current == nil {
			current = model.NewFolder(name)
			*folders = append(*folders, current)
		}
		folders = &current.Folders
	}
	return current
}
