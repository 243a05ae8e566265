package format

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"checklist-cli/internal/model"
)

// Write writes output in the requested format.
//
// Supported formats:
// - json (default)
// - tree (checklist forests and single items only)
func Write(w io.Writer, v any, format string, pretty bool) error {
	switch format {
	case "", "json":
		return WriteJSON(w, v, pretty)
	case "tree":
		switch x := v.(type) {
		case []*model.ChecklistItem:
			return WriteTree(w, x)
		case *model.ChecklistItem:
			return WriteTree(w, []*model.ChecklistItem{x})
		default:
			return WriteJSON(w, v, pretty)
		}
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}

// WriteJSON writes strict JSON output for CLI commands.
func WriteJSON(w io.Writer, v any, pretty bool) error {
	var b []byte
	var err error
	if pretty {
		b, err = json.MarshalIndent(v, "", "  ")
	} else {
		b, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))
	return err
}

// WriteTree writes one line per item, indented two spaces per level:
//
//	[ ] Write copy  chk-1
//	  [x] Headline  chk-3
func WriteTree(w io.Writer, roots []*model.ChecklistItem) error {
	var b strings.Builder
	var walk func(level []*model.ChecklistItem, depth int)
	walk = func(level []*model.ChecklistItem, depth int) {
		for _, n := range level {
			box := "[ ]"
			if n.IsCompleted {
				box = "[x]"
			}
			fmt.Fprintf(&b, "%s%s %s  %s\n", strings.Repeat("  ", depth), box, strings.Join(strings.Fields(n.Text), " "), n.ID)
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	_, err := io.WriteString(w, b.String())
	return err
}
