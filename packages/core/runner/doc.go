// Package runner sends every request of a collection in tree order.
//
// It provides functionality for:
//   - Running a whole collection or a single folder
//   - Filtering requests by name pattern
//   - Pacing sends with a rate limit
//   - Retrying failed requests
//   - Stopping at the first failure (bail)
package runner
