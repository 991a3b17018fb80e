// Package cmd implements the hitdesk CLI commands using Cobra.
//
// Available commands:
//   - init: Create a workspace with an example collection and environments
//   - list: Display collections and their request trees
//   - send: Resolve and send one saved request, optionally on every change
//   - run: Send every request of a collection or folder
//   - resolve: Show text or a request with variables substituted
//   - env: Create, edit, activate, import and export environments
//   - request: Show, add and edit saved requests
//   - import: Import Insomnia exports and curl commands
//   - history: List, summarize and clear sent requests
//   - validate: Check collection files against the collection schema
//   - version: Show hitdesk version information
//
// Global flags select the config file, workspace and environment, and
// every flag has a HITDESK_* environment variable default.
package cmd
