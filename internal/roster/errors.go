package roster

import (
	"fmt"
	"strings"
)

// UnknownMoveError is returned when a submitted move is not in the taxonomy.
type UnknownMoveError struct {
	Input       string
	Suggestions []string
}

// Error implements the error interface
func (e *UnknownMoveError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("unknown move %q (did you mean: %s?)", e.Input, strings.Join(e.Suggestions, ", "))
	}
	return fmt.Sprintf("unknown move %q", e.Input)
}
