package env

import (
	"errors"
	"fmt"
)

var (
	ErrEnvironmentNotFound  = errors.New("environment not found")
	ErrDuplicateEnvironment = errors.New("environment already exists")
	ErrGlobalActivation     = errors.New("the global environment cannot be activated")
)

// Variable is one binding inside an environment.
type Variable struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// Environment is a named, ordered set of variables. Keys are unique and
// matched case-sensitively.
type Environment struct {
	Name      string     `json:"name" yaml:"name"`
	Variables []Variable `json:"variables" yaml:"variables"`
	IsGlobal  bool       `json:"isGlobal,omitempty" yaml:"isGlobal,omitempty"`
	IsActive  bool       `json:"isActive,omitempty" yaml:"isActive,omitempty"`
}

func NewEnvironment(name string) *Environment {
	return &Environment{Name: name}
}

func (e *Environment) Get(key string) (string, bool) {
	for _, v := range e.Variables {
		if v.Key == key {
			return v.Value, true
		}
	}
	return "", false
}

// Set updates key in place, or appends it when missing.
func (e *Environment) Set(key, value string) {
	for i := range e.Variables {
		if e.Variables[i].Key == key {
			e.Variables[i].Value = value
			return
		}
	}
	e.Variables = append(e.Variables, Variable{Key: key, Value: value})
}

// Unset removes key and reports whether it was present.
func (e *Environment) Unset(key string) bool {
	for i, v := range e.Variables {
		if v.Key == key {
			e.Variables = append(e.Variables[:i], e.Variables[i+1:]...)
			return true
		}
	}
	return false
}

// Import applies vars in order; later entries win over earlier ones and over
// existing values.
func (e *Environment) Import(vars []Variable) {
	for _, v := range vars {
		e.Set(v.Key, v.Value)
	}
}

// Map returns the variables as a lookup table.
func (e *Environment) Map() map[string]string {
	if e == nil {
		return make(map[string]string)
	}
	result := make(map[string]string, len(e.Variables))
	for _, v := range e.Variables {
		result[v.Key] = v.Value
	}
	return result
}

func (e *Environment) Clone() *Environment {
	c := *e
	c.Variables = make([]Variable, len(e.Variables))
	copy(c.Variables, e.Variables)
	return &c
}

// Set is the ordered list of environments in a workspace. At most one member
// is global and at most one non-global member is active.
type Set struct {
	Environments []*Environment `json:"environments"`
}

func (s *Set) Get(name string) (*Environment, error) {
	for _, e := range s.Environments {
		if e.Name == name {
			return e, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
}

// Add appends env. Flags on env are normalized against the existing members.
func (s *Set) Add(env *Environment) error {
	if _, err := s.Get(env.Name); err == nil {
		return fmt.Errorf("%w: %s", ErrDuplicateEnvironment, env.Name)
	}
	s.Environments = append(s.Environments, env)
	switch {
	case env.IsGlobal:
		return s.SetGlobal(env.Name)
	case env.IsActive:
		return s.Activate(env.Name)
	}
	return nil
}

func (s *Set) Remove(name string) error {
	for i, e := range s.Environments {
		if e.Name == name {
			s.Environments = append(s.Environments[:i], s.Environments[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrEnvironmentNotFound, name)
}

// Activate marks name as the active environment and clears the flag elsewhere.
// An empty name deactivates every environment.
func (s *Set) Activate(name string) error {
	if name == "" {
		for _, e := range s.Environments {
			e.IsActive = false
		}
		return nil
	}
	target, err := s.Get(name)
	if err != nil {
		return err
	}
	if target.IsGlobal {
		return fmt.Errorf("%w: %s", ErrGlobalActivation, name)
	}
	for _, e := range s.Environments {
		e.IsActive = e == target
	}
	return nil
}

// SetGlobal marks name as the global environment. A global environment is
// never active at the same time.
func (s *Set) SetGlobal(name string) error {
	target, err := s.Get(name)
	if err != nil {
		return err
	}
	for _, e := range s.Environments {
		e.IsGlobal = e == target
	}
	target.IsActive = false
	return nil
}

// Normalize keeps the first global and the first active non-global
// environment and clears those flags on every other member.
func (s *Set) Normalize() {
	var global, active *Environment
	for _, e := range s.Environments {
		if e.IsGlobal && global == nil {
			global = e
		}
	}
	for _, e := range s.Environments {
		e.IsGlobal = e == global
		if e.IsActive && !e.IsGlobal && active == nil {
			active = e
		}
	}
	for _, e := range s.Environments {
		e.IsActive = e == active
	}
}

// Active returns the active environment or nil.
func (s *Set) Active() *Environment {
	for _, e := range s.Environments {
		if e.IsActive && !e.IsGlobal {
			return e
		}
	}
	return nil
}

// Global returns the global environment or nil.
func (s *Set) Global() *Environment {
	for _, e := range s.Environments {
		if e.IsGlobal {
			return e
		}
	}
	return nil
}

// ActiveVars never returns nil.
func (s *Set) ActiveVars() map[string]string {
	return s.Active().Map()
}

// GlobalVars never returns nil.
func (s *Set) GlobalVars() map[string]string {
	return s.Global().Map()
}

// Names lists environment names in order.
func (s *Set) Names() []string {
	names := make([]string, len(s.Environments))
	for i, e := range s.Environments {
		names[i] = e.Name
	}
	return names
}

// MergeVariables copies sources in order into a new map; later sources win.
func MergeVariables(sources ...map[string]string) map[string]string {
	result := make(map[string]string)
	for _, src := range sources {
		for k, v := range src {
			result[k] = v
		}
	}
	return result
}
