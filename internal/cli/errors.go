package cli

import (
	"errors"
	"fmt"
)

// NotFoundError reports a project (or node) id that neither the catalog nor
// the tree store knows.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

func errNotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// ExitCode maps a command error to the process exit status: 0 on success,
// 3 when a project was not found, 1 otherwise.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return 3
	}
	return 1
}
