// Package env handles environments and variable resolution for hitdesk.
//
// It provides functionality for:
//   - Named environments with ordered key/value variables
//   - One global environment applied beneath the active one
//   - Variable interpolation using {{name}} and %7B%7Bname%7D%7D syntax
//   - System variables such as {{$guid}} and {{$timestamp}}
//   - Importing environments from .env files
package env
