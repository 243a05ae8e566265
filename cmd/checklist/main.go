package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"checklist-cli/internal/cli"
	"checklist-cli/internal/store"
)

func rewriteDirectItemLookupArgs(argv []string) []string {
	// Convenience: `checklist <item-id>` works like `checklist items show <item-id>`.
	//
	// Cobra treats the first non-flag token as a subcommand, so argv is rewritten before
	// parsing. Persistent flags may come first (`checklist --dir ... <item-id>`), so look for
	// the first positional token rather than argv[1].
	if len(argv) < 2 {
		return argv
	}

	// Unknown flags are skipped without consuming a value so the item id is never eaten.
	valueFlags := map[string]bool{
		"--dir":        true,
		"--db":         true,
		"--task":       true,
		"--actor":      true,
		"--format":     true,
		"--log-level":  true,
		"--log-format": true,
	}
	boolFlags := map[string]bool{
		"--pretty": true,
	}

	showAt := func(i int) []string {
		out := make([]string, 0, len(argv)+2)
		out = append(out, argv[:i]...)
		out = append(out, "items", "show")
		return append(out, argv[i:]...)
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && store.LooksLikeItemID(argv[i+1]) {
				return showAt(i + 1)
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if strings.Contains(a, "=") || boolFlags[a] {
				continue
			}
			if valueFlags[a] {
				i++
			}
			continue
		}
		if store.LooksLikeItemID(a) {
			return showAt(i)
		}
		return argv
	}
	return argv
}

func main() {
	os.Args = rewriteDirectItemLookupArgs(os.Args)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
