// Package publish exports checklists as markdown.
package publish

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"checklist-cli/internal/model"
)

type WriteOptions struct {
	Overwrite bool
}

type WriteResult struct {
	Written []string `json:"written"`
}

// WriteChecklist writes <toDir>/<task-id>.md.
func WriteChecklist(task model.Task, roots []*model.ChecklistItem, toDir string, opt WriteOptions) (WriteResult, error) {
	if strings.TrimSpace(task.ID) == "" {
		return WriteResult{}, errors.New("missing task id")
	}
	toDir = strings.TrimSpace(toDir)
	if toDir == "" {
		return WriteResult{}, errors.New("missing --to")
	}
	toDir = filepath.Clean(toDir)
	if err := os.MkdirAll(toDir, 0o755); err != nil {
		return WriteResult{}, err
	}

	outPath := filepath.Join(toDir, task.ID+".md")
	if err := writeFile(outPath, []byte(Markdown(task, roots)), opt.Overwrite); err != nil {
		return WriteResult{}, err
	}
	return WriteResult{Written: []string{outPath}}, nil
}

func writeFile(path string, b []byte, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return errors.New("file exists (use --overwrite): " + path)
		}
	}
	return os.WriteFile(path, b, 0o644)
}
