package env

import (
	"strings"
	"sync"

	"github.com/abdul-hamid-achik/hitdesk/packages/builtin"
	"github.com/abdul-hamid-achik/hitdesk/packages/model"
)

// MaxPasses bounds re-expansion of nested placeholders. A cyclic definition
// stops after this many passes and keeps its residual placeholder text.
const MaxPasses = 10

type delimiters struct {
	open  string
	close string
	fold  bool
}

var (
	bracePlaceholder   = delimiters{open: "{{", close: "}}"}
	encodedPlaceholder = delimiters{open: "%7B%7B", close: "%7D%7D", fold: true}
)

// WarnFunc is a function type for handling warnings
type WarnFunc func(format string, args ...any)

// Resolver expands placeholders using an active and a global variable set.
// It holds no per-call state and is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	system   *builtin.Registry
	warnFunc WarnFunc
}

func NewResolver() *Resolver {
	return &Resolver{
		system: builtin.NewRegistry(),
	}
}

// SetWarnFunc sets a function to be called for every placeholder left unresolved.
func (r *Resolver) SetWarnFunc(fn WarnFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warnFunc = fn
}

// SetSystemVariables replaces the registry used for {{$name}} placeholders.
func (r *Resolver) SetSystemVariables(reg *builtin.Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.system = reg
}

func (r *Resolver) warn(format string, args ...any) {
	r.mu.RLock()
	fn := r.warnFunc
	r.mu.RUnlock()
	if fn != nil {
		fn(format, args...)
	}
}

var defaultResolver = NewResolver()

// Resolve expands text with the default resolver.
func Resolve(text string, activeVars, globalVars map[string]string) string {
	return defaultResolver.Resolve(text, activeVars, globalVars)
}

// Resolve substitutes system variables once, then percent-encoded and brace
// placeholders from the merged variables, where activeVars override globalVars.
// Unknown names are left verbatim; Resolve never fails.
func (r *Resolver) Resolve(text string, activeVars, globalVars map[string]string) string {
	if text == "" {
		return text
	}

	vars := MergeVariables(globalVars, activeVars)

	r.mu.RLock()
	system := r.system
	r.mu.RUnlock()

	text, _ = expandPass(text, bracePlaceholder, func(name string) (string, bool) {
		if !strings.HasPrefix(name, "$") || system == nil {
			return "", false
		}
		return system.Lookup(name)
	})

	lookup := func(name string) (string, bool) {
		if strings.HasPrefix(name, "$") {
			return "", false
		}
		v, ok := vars[name]
		return v, ok
	}
	text = expandRepeated(text, encodedPlaceholder, lookup)
	text = expandRepeated(text, bracePlaceholder, lookup)

	if r.hasWarnFunc() {
		for _, name := range Unresolved(text) {
			r.warn("unresolved variable: %s", name)
		}
	}
	return text
}

// ResolveSet expands text against the active and global members of set.
func (r *Resolver) ResolveSet(text string, set *Set) string {
	if set == nil {
		return r.Resolve(text, nil, nil)
	}
	return r.Resolve(text, set.ActiveVars(), set.GlobalVars())
}

// ResolveRequest returns a copy of req with every user-editable text field
// resolved: URL, body, entry keys and values, and auth fields.
func (r *Resolver) ResolveRequest(req *model.Request, activeVars, globalVars map[string]string) *model.Request {
	out := req.Clone()
	resolve := func(s string) string {
		return r.Resolve(s, activeVars, globalVars)
	}

	out.URL = resolve(out.URL)
	out.Body = resolve(out.Body)
	for _, entries := range [][]model.KeyValue{out.Headers, out.QueryParams, out.Cookies} {
		for i := range entries {
			entries[i].Key = resolve(entries[i].Key)
			entries[i].Value = resolve(entries[i].Value)
		}
	}
	out.Auth.Username = resolve(out.Auth.Username)
	out.Auth.Password = resolve(out.Auth.Password)
	out.Auth.Token = resolve(out.Auth.Token)
	out.Auth.APIKeyName = resolve(out.Auth.APIKeyName)
	out.Auth.APIKeyValue = resolve(out.Auth.APIKeyValue)
	return out
}

func (r *Resolver) hasWarnFunc() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.warnFunc != nil
}

// Unresolved lists the distinct placeholder names still present in text, in
// order of first appearance.
func Unresolved(text string) []string {
	var names []string
	seen := make(map[string]bool)
	collect := func(name string) (string, bool) {
		if name != "" && !seen[name] {
			seen[name] = true
			names = append(names, name)
		}
		return "", false
	}
	expandPass(text, encodedPlaceholder, collect)
	expandPass(text, bracePlaceholder, collect)
	return names
}

// HasUnresolved reports whether text still contains a placeholder.
func HasUnresolved(text string) bool {
	return len(Unresolved(text)) > 0
}

func expandRepeated(text string, d delimiters, lookup func(string) (string, bool)) string {
	for i := 0; i < MaxPasses; i++ {
		var n int
		text, n = expandPass(text, d, lookup)
		if n == 0 {
			break
		}
	}
	return text
}

// expandPass scans text once, left to right, replacing every placeholder whose
// trimmed name lookup resolves. Substituted values are not rescanned within
// the same pass. It returns the new text and the number of substitutions.
func expandPass(text string, d delimiters, lookup func(string) (string, bool)) (string, int) {
	var sb strings.Builder
	replaced := 0
	last := 0
	pos := 0

	for {
		start := d.index(text, pos)
		if start < 0 {
			break
		}
		nameStart := start + len(d.open)
		end := d.closeAt(text, nameStart)
		if end < 0 {
			pos = start + 1
			continue
		}

		match := text[start : end+len(d.close)]
		name := strings.TrimSpace(text[nameStart:end])
		if value, ok := lookup(name); ok {
			if replaced == 0 {
				sb.Grow(len(text))
			}
			sb.WriteString(text[last:start])
			sb.WriteString(value)
			last = start + len(match)
			replaced++
		}
		pos = start + len(match)
	}

	if replaced == 0 {
		return text, 0
	}
	sb.WriteString(text[last:])
	return sb.String(), replaced
}

// index finds the next opening delimiter at or after from.
func (d delimiters) index(s string, from int) int {
	if !d.fold {
		i := strings.Index(s[from:], d.open)
		if i < 0 {
			return -1
		}
		return from + i
	}
	return indexFold(s, d.open, from)
}

// closeAt returns the offset of the closing delimiter that ends the name
// starting at from, or -1. Brace names stop at the first '}' and must be
// non-empty; encoded names end at the nearest closing delimiter.
func (d delimiters) closeAt(s string, from int) int {
	if !d.fold {
		i := strings.IndexByte(s[from:], '}')
		if i <= 0 {
			return -1
		}
		end := from + i
		if !strings.HasPrefix(s[end:], d.close) {
			return -1
		}
		return end
	}
	end := indexFold(s, d.close, from)
	if end <= from {
		return -1
	}
	return end
}

// indexFold is an ASCII case-insensitive strings.Index starting at from.
func indexFold(s, sub string, from int) int {
	for i := from; i+len(sub) <= len(s); i++ {
		if strings.EqualFold(s[i:i+len(sub)], sub) {
			return i
		}
	}
	return -1
}
