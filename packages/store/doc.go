// Package store persists a hitdesk workspace as JSON files.
//
// Layout under the workspace directory:
//
//	collections/<id>.json   one file per collection
//	environments.json       the environment set, flags included
//	session.json            last opened collection and request
//
// Every write goes through a temporary file and a rename so a crash never
// leaves a half-written file behind. Collection files are validated against
// an embedded JSON schema when loaded.
package store
