// Package workspace holds the headless view models behind the request and
// environment editors.
//
// An editor wraps a live entity together with a snapshot tracker. Every edit
// goes through the editor, which reports the new dirty state to an optional
// callback. Save is gated on that state: a clean editor never touches the
// repository.
package workspace
