package tools

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode maps validated tool arguments onto a typed input struct using its json
// tags. Numbers arriving as float64 or strings are coerced to the field type.
func Decode[T any](args map[string]any) (T, error) {
	var out T
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		TagName:          "json",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return out, fmt.Errorf("create decoder: %w", err)
	}
	if err := dec.Decode(args); err != nil {
		return out, fmt.Errorf("decode arguments: %w", err)
	}
	return out, nil
}
