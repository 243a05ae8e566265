package tui

import (
	"fmt"
	"strings"

	"checklist-cli/internal/checklist"
	"checklist-cli/internal/tree"

	xansi "github.com/charmbracelet/x/ansi"
)

func (m appModel) View() string {
	var b strings.Builder

	b.WriteString(m.headerView())
	b.WriteString("\n\n")

	switch m.mode {
	case modeAdd:
		label := "Add item"
		if m.addParent != "" {
			if it, ok := m.mgr.Item(m.addParent); ok {
				label = "Add sub-item to " + it.Text
			}
		}
		b.WriteString(m.styles.title.Render(truncateToWidth(label, m.contentWidth())))
		b.WriteString("\n")
		b.WriteString(m.styles.input.Render(m.input.View()))
		b.WriteString("\n")
		b.WriteString(m.styles.muted.Render("enter: save  esc: cancel"))
		return b.String()
	case modeImport:
		b.WriteString(m.styles.title.Render("Import items"))
		b.WriteString("\n")
		b.WriteString(m.styles.input.Render(m.importArea.View()))
		b.WriteString("\n")
		b.WriteString(m.styles.muted.Render("ctrl+s: import  esc: cancel"))
		return b.String()
	}

	if len(m.rows) == 0 {
		b.WriteString(m.styles.muted.Render("No items yet. Press a to add one or i to import a list."))
		b.WriteString("\n")
	}
	dragged, dragging := m.mgr.Dragged()
	start, end := m.window()
	for i := start; i < end; i++ {
		row := m.rows[i]
		line := truncateToWidth(m.rowText(row), m.contentWidth())
		switch {
		case dragging && row.Item.ID == dragged.ID:
			line = m.styles.dragged.Render(line)
		case i == m.cursor:
			line = m.styles.selected.Render(line)
		case row.Item.IsCompleted:
			line = m.styles.done.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(m.statusView())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m appModel) headerView() string {
	done, total := 0, 0
	for _, it := range tree.Flatten(m.mgr.Roots()) {
		total++
		if it.IsCompleted {
			done++
		}
	}
	title := m.task.Title
	if title == "" {
		title = m.task.ID
	}
	head := m.styles.title.Render(truncateToWidth(title, m.contentWidth()-16))
	return head + m.styles.muted.Render(fmt.Sprintf("  %d of %d done", done, total))
}

func (m appModel) rowText(row tree.Row) string {
	var b strings.Builder
	if row.Item != nil && m.cursor < len(m.rows) && m.rows[m.cursor].Item == row.Item {
		b.WriteString("› ")
	} else {
		b.WriteString("  ")
	}
	b.WriteString(strings.Repeat("  ", row.Depth))
	switch {
	case !row.HasChildren:
		b.WriteString("  ")
	case row.Collapsed:
		b.WriteString("▸ ")
	default:
		b.WriteString("▾ ")
	}
	if row.Item.IsCompleted {
		b.WriteString("[x] ")
	} else {
		b.WriteString("[ ] ")
	}
	b.WriteString(row.Item.Text)
	if row.HasChildren {
		fmt.Fprintf(&b, "  %d/%d", row.Done, row.Total)
	}
	return b.String()
}

func (m appModel) statusView() string {
	switch {
	case m.notice != "" && m.noticeErr:
		return m.styles.errorMsg.Render(m.notice)
	case m.notice != "":
		return m.styles.notice.Render(m.notice)
	}
	switch m.mgr.State() {
	case checklist.Dragging:
		it, _ := m.mgr.Dragged()
		return m.styles.muted.Render(truncateToWidth("Moving "+it.Text+". m: drop here  esc: cancel", m.contentWidth()))
	case checklist.Reordering:
		return m.styles.muted.Render("Saving new order…")
	}
	if m.pending > 0 {
		return m.styles.muted.Render("Saving…")
	}
	return ""
}

func (m appModel) contentWidth() int {
	if m.width <= 0 {
		return 100
	}
	return m.width
}

// window returns the visible row range, keeping the cursor on screen.
func (m appModel) window() (int, int) {
	n := len(m.rows)
	h := m.height - 6
	if m.height <= 0 || h >= n || h <= 0 {
		return 0, n
	}
	start := 0
	if m.cursor >= h {
		start = m.cursor - h + 1
	}
	return start, min(n, start+h)
}

func truncateToWidth(s string, w int) string {
	if w <= 0 {
		return ""
	}
	if xansi.StringWidth(s) <= w {
		return s
	}
	if w == 1 {
		return xansi.Cut(s, 0, 1)
	}
	return xansi.Cut(s, 0, w-1) + "…"
}
