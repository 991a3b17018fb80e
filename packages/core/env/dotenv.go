package env

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv parses a .env file and returns key-value pairs.
// Supports: KEY=value, KEY="quoted value", KEY='single quoted', export KEY=value, # comments
// Unquoted and double-quoted values expand $VAR and ${VAR} from earlier keys
// in the file, falling back to the OS environment, before any {{var}}
// resolution. Single-quoted values are kept literally.
// Note: This does NOT export to the OS environment.
func LoadDotEnv(path string) (map[string]string, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read env file: %w", err)
	}
	return values, nil
}

// ParseDotEnv parses .env content from r, expanding variables the same way
// as LoadDotEnv.
func ParseDotEnv(r io.Reader) (map[string]string, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parsing env content: %w", err)
	}
	return values, nil
}

// EnvironmentFromDotEnv builds an environment from a .env file. Keys are
// sorted since .env parsing does not keep file order. An empty name derives
// one from the file name (".env.staging" becomes "staging").
func EnvironmentFromDotEnv(name, path string) (*Environment, error) {
	values, err := LoadDotEnv(path)
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = dotEnvName(path)
	}
	e := NewEnvironment(name)
	e.Import(sortedVariables(values))
	return e, nil
}

func dotEnvName(path string) string {
	base := filepath.Base(path)
	switch {
	case base == ".env":
		return "default"
	case strings.HasPrefix(base, ".env."):
		return strings.TrimPrefix(base, ".env.")
	case strings.HasSuffix(base, ".env"):
		return strings.TrimSuffix(base, ".env")
	}
	return base
}

func sortedVariables(values map[string]string) []Variable {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	vars := make([]Variable, len(keys))
	for i, k := range keys {
		vars[i] = Variable{Key: k, Value: values[k]}
	}
	return vars
}
