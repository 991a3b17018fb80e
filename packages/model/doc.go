// Package model defines the workspace data types shared by hitdesk packages.
//
// A workspace is made of:
//   - Collections, each holding folders and requests in user-defined order
//   - Requests with ordered header, query parameter and cookie entries
//   - An authentication descriptor per request (none, basic, bearer, api key)
//
// Environments live in the env package since they belong to variable resolution.
package model
