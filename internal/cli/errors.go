package cli

import (
	"errors"
	"fmt"

	"checklist-cli/internal/store"
)

var errNoCurrentTask = errors.New("no current task; run `checklist tasks create <title> --use` or `checklist tasks use <task-id>` (or pass --task)")

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

// asNotFound maps store.ErrNotFound to a notFoundError and passes other errors through.
func asNotFound(kind, id string, err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return errNotFound(kind, id)
	}
	return err
}
