package core

import (
	"errors"
	"fmt"
)

// ErrMaxTurns is returned when a request exhausts the configured turn ceiling.
var ErrMaxTurns = errors.New("maximum turns exceeded")

// UnknownToolError is reported when the model asks for a tool that is not registered.
type UnknownToolError struct {
	Name string
}

func (e *UnknownToolError) Error() string {
	return fmt.Sprintf("unknown tool %q", e.Name)
}

// DuplicateToolError is a startup configuration error: two tools share a name.
type DuplicateToolError struct {
	Name string
}

func (e *DuplicateToolError) Error() string {
	return fmt.Sprintf("tool %q already registered", e.Name)
}

// MissingCredentialError names the setting a handler or provider needs but did not get.
type MissingCredentialError struct {
	Setting string
}

func (e *MissingCredentialError) Error() string {
	return fmt.Sprintf("missing credential: %s is not set", e.Setting)
}

// HTTPStatusError is a non-2xx upstream response.
type HTTPStatusError struct {
	Service string
	Status  int
	Body    string
}

func (e *HTTPStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.Status)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.Status, e.Body)
}
