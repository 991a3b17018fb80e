package store

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalidCollection is returned when a collection file does not match the schema.
var ErrInvalidCollection = errors.New("invalid collection")

//go:embed collection.schema.json
var collectionSchema []byte

var collectionSchemaLoader = gojsonschema.NewBytesLoader(collectionSchema)

// ValidateCollection checks raw collection JSON against the embedded schema.
func ValidateCollection(data []byte) error {
	result, err := gojsonschema.Validate(collectionSchemaLoader, gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCollection, err)
	}

	if result.Valid() {
		return nil
	}

	var problems []string
	for _, desc := range result.Errors() {
		problems = append(problems, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalidCollection, strings.Join(problems, "; "))
}
