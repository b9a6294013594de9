package tools

import (
	"encoding/json"
	"fmt"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/desertthunder/resonance/internal/shared"
)

// Pagination bounds shared by the listing tools.
const (
	DefaultLimit = 20
	MaxLimit     = 50
)

// inputSchema infers the schema for T and attaches default values to the named properties.
//
// Ranges are left out of the schema and checked by the handlers so violations surface as error results
// rather than protocol errors.
func inputSchema[T any](defaults map[string]any) *jsonschema.Schema {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		panic(fmt.Sprintf("infer input schema: %v", err))
	}

	for name, value := range defaults {
		prop, ok := schema.Properties[name]
		if !ok {
			panic(fmt.Sprintf("input schema has no property %q", name))
		}
		raw, err := json.Marshal(value)
		if err != nil {
			panic(fmt.Sprintf("encode default for %q: %v", name, err))
		}
		prop.Default = raw
	}
	return schema
}

// paginationDefaults are applied to every paginated tool.
var paginationDefaults = map[string]any{"limit": DefaultLimit, "offset": 0}

// page resolves optional pagination arguments, rejecting values outside 1..50 and offsets below zero.
func page(limit, offset *int) (int, int, error) {
	l, o := DefaultLimit, 0
	if limit != nil {
		l = *limit
	}
	if offset != nil {
		o = *offset
	}

	if l < 1 || l > MaxLimit {
		return 0, 0, invalidArgument("limit must be between 1 and %d, got %d", MaxLimit, l)
	}
	if o < 0 {
		return 0, 0, invalidArgument("offset must be non-negative, got %d", o)
	}
	return l, o, nil
}

// argumentError is a rejected tool argument. Its text is the bare message; errors.Is matches the sentinel.
type argumentError struct {
	sentinel error
	message  string
}

func (e *argumentError) Error() string { return e.message }
func (e *argumentError) Unwrap() error { return e.sentinel }

func invalidArgument(format string, args ...any) error {
	return &argumentError{sentinel: shared.ErrInvalidArgument, message: fmt.Sprintf(format, args...)}
}

// missingArgument reports a required argument that is empty or blank.
func missingArgument(name string) error {
	return &argumentError{sentinel: shared.ErrMissingArgument, message: name + " must not be empty"}
}
