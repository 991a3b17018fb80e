package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/abdul-hamid-achik/hitdesk/packages/core/config"
	"github.com/abdul-hamid-achik/hitdesk/packages/core/env"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
	"github.com/abdul-hamid-achik/hitdesk/packages/store"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hitdesk workspace",
	Long: `Initialize a new hitdesk workspace in the current directory.

This creates:
  - .hitdesk.config.json  - Configuration file
  - .hitdesk/             - Workspace with an example collection and
                            dev, staging and shared environments

Examples:
  hitdesk init
  hitdesk init --force`,
	RunE: initCommand,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Overwrite existing files")
}

func initCommand(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cwd, err := os.Getwd()
	if err != nil {
		return err
	}

	configFile := filepath.Join(cwd, config.ConfigFilenames[0])
	if !forceInit {
		if _, err := os.Stat(configFile); err == nil {
			return fmt.Errorf("file already exists: %s (use --force to overwrite)", configFile)
		}
	}

	initConfig := config.DefaultConfig()
	initConfig.DefaultEnvironment = "dev"
	if workspaceFlag != "" {
		initConfig.WorkspaceDir = workspaceFlag
	}
	initConfig.Headers = map[string]string{
		"User-Agent": "hitdesk/1.0",
	}
	if err := initConfig.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", configFile)

	wsDir := initConfig.WorkspaceDir
	if !filepath.IsAbs(wsDir) {
		wsDir = filepath.Join(cwd, wsDir)
	}
	st, err := store.Open(wsDir)
	if err != nil {
		return err
	}

	set := exampleEnvironments()
	if err := st.SaveEnvironments(ctx, set); err != nil {
		return fmt.Errorf("failed to create environments: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", st.EnvironmentsPath())

	collection := exampleCollection()
	if err := st.SaveCollection(ctx, collection); err != nil {
		return fmt.Errorf("failed to create example collection: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created: %s\n", st.CollectionPath(collection.ID))

	fmt.Fprintf(cmd.OutOrStdout(), "\nhitdesk workspace initialized!\n")
	fmt.Fprintf(cmd.OutOrStdout(), "Run 'hitdesk send Example \"health check\"' to send the first request.\n")

	return nil
}

func exampleEnvironments() *env.Set {
	shared := env.NewEnvironment("shared")
	shared.IsGlobal = true
	shared.Set("apiVersion", "v1")

	dev := env.NewEnvironment("dev")
	dev.IsActive = true
	dev.Set("baseUrl", "http://localhost:3000")
	dev.Set("token", "dev-token")

	staging := env.NewEnvironment("staging")
	staging.Set("baseUrl", "https://staging.api.example.com")
	staging.Set("token", "")

	return &env.Set{Environments: []*env.Environment{shared, dev, staging}}
}

func exampleCollection() *model.Collection {
	c := model.NewCollection("Example")
	c.Description = "Requests created by hitdesk init"

	health := model.NewRequest("health check", "GET", "{{baseUrl}}/health")
	health.ID = model.NewID()
	c.Requests = append(c.Requests, health)

	resources := model.NewFolder("resources")

	list := model.NewRequest("list resources", "GET", "{{baseUrl}}/{{apiVersion}}/resources")
	list.ID = model.NewID()
	list.AddQueryParam("limit", "10")
	list.AddHeader("Accept", "application/json")
	list.Auth = model.Auth{Type: model.AuthBearer, Token: "{{token}}"}

	create := model.NewRequest("create resource", "POST", "{{baseUrl}}/{{apiVersion}}/resources")
	create.ID = model.NewID()
	create.AddHeader("Content-Type", "application/json")
	create.Body = `{
  "id": "{{$guid}}",
  "name": "Test Resource",
  "createdAt": "{{$isoTimestamp}}"
}`
	create.Auth = model.Auth{Type: model.AuthBearer, Token: "{{token}}"}

	resources.Requests = append(resources.Requests, list, create)
	c.Folders = append(c.Folders, resources)
	return c
}
