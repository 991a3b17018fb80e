// Package builtin provides the system variables available in hitdesk templates.
//
// Available variables:
//   - $guid: a random UUID, fresh for every occurrence
//   - $timestamp: current Unix timestamp in seconds (UTC)
//   - $isoTimestamp: current UTC time as 2006-01-02T15:04:05.000Z
//   - $randomInt: random integer in [0, 1000)
//   - $date: current local date as 2006-01-02
//   - $time: current local time as 15:04:05
//   - $dateTime: current local date and time as 2006-01-02 15:04:05
//
// Variables are referenced with the {{$name}} syntax. Names match case-insensitively.
package builtin
