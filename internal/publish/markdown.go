package publish

import (
	"bytes"
	"fmt"
	"strings"
	"sync"

	"checklist-cli/internal/model"
	"checklist-cli/internal/tree"

	"github.com/charmbracelet/glamour"
)

// Markdown renders a task's checklist as a GitHub task list, two spaces per level.
func Markdown(task model.Task, roots []*model.ChecklistItem) string {
	var buf bytes.Buffer
	writeLn := func(s string) {
		buf.WriteString(s)
		buf.WriteString("\n")
	}

	title := strings.TrimSpace(task.Title)
	if title == "" {
		title = task.ID
	}
	writeLn("# " + title)
	writeLn("")

	all := tree.Flatten(roots)
	if len(all) == 0 {
		writeLn("_No checklist items._")
		return buf.String()
	}
	done := 0
	for _, n := range all {
		if n.IsCompleted {
			done++
		}
	}
	writeLn(fmt.Sprintf("%d of %d done", done, len(all)))
	writeLn("")

	var walk func(level []*model.ChecklistItem, depth int)
	walk = func(level []*model.ChecklistItem, depth int) {
		for _, n := range level {
			box := "[ ]"
			if n.IsCompleted {
				box = "[x]"
			}
			writeLn(strings.Repeat("  ", depth) + "- " + box + " " + oneLine(n.Text))
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return buf.String()
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

var (
	rendererMu sync.Mutex
	// Keyed by style + width. Fixed styles avoid terminal background queries.
	renderers = map[string]*glamour.TermRenderer{}
)

// Render renders markdown for a terminal. style is a glamour standard style name
// ("dark", "light", "notty", ...); width <= 0 disables wrapping.
func Render(md, style string, width int) (string, error) {
	style = strings.TrimSpace(style)
	if style == "" {
		style = "dark"
	}
	key := fmt.Sprintf("%s:%d", style, width)

	rendererMu.Lock()
	defer rendererMu.Unlock()
	r := renderers[key]
	if r == nil {
		opts := []glamour.TermRendererOption{glamour.WithStandardStyle(style)}
		if width > 0 {
			opts = append(opts, glamour.WithWordWrap(width))
		}
		rr, err := glamour.NewTermRenderer(opts...)
		if err != nil {
			return "", fmt.Errorf("markdown renderer: %w", err)
		}
		renderers[key] = rr
		r = rr
	}
	out, err := r.Render(md)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(out, "\n"), nil
}
