package checklist

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ErrReorderInProgress is returned by DragStart while a drop is being persisted.
var ErrReorderInProgress = errors.New("reorder in progress")

type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

type NotFoundError struct {
	Kind string
	ID   string
}

func (e NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.ID)
}

// PersistenceError wraps a store failure with the operation that hit it.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e PersistenceError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.ID, e.Err)
}

func (e PersistenceError) Unwrap() error { return e.Err }

var opVerbs = map[string]string{
	"add":     "add item",
	"toggle":  "update item",
	"delete":  "delete item",
	"import":  "import items",
	"reorder": "save new order",
	"refresh": "reload checklist",
}

// UserMessage turns an engine error into a line suitable for a status bar.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ve ValidationError
	if errors.As(err, &ve) {
		return fmt.Sprintf("%s %s", capitalize(ve.Field), ve.Reason)
	}
	var nf NotFoundError
	if errors.As(err, &nf) {
		return fmt.Sprintf("%s not found: %s", capitalize(nf.Kind), nf.ID)
	}
	if errors.Is(err, context.Canceled) {
		return "Cancelled"
	}
	if errors.Is(err, ErrReorderInProgress) {
		return "Still saving the previous move"
	}
	var pe PersistenceError
	if errors.As(err, &pe) {
		verb, ok := opVerbs[pe.Op]
		if !ok {
			verb = pe.Op
		}
		return fmt.Sprintf("Could not %s: %v", verb, pe.Err)
	}
	return err.Error()
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
