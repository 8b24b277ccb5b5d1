package hook

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// LoadHooks registers every script in hooks, keyed by hook type name. A value
// starting with "@" is read from the file path that follows it.
func LoadHooks(manager HookManager, hooks map[string]string) error {
	names := make([]string, 0, len(hooks))
	for name := range hooks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		content := hooks[name]
		if path, ok := strings.CutPrefix(content, "@"); ok {
			data, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("error reading hook file %s: %w", path, err)
			}
			content = string(data)
		}

		if err := manager.AddHook(Hook{Type: HookType(name), Content: content}); err != nil {
			return fmt.Errorf("error adding hook %s: %w", name, err)
		}
	}

	return nil
}

// HookTemplate generates a template for a hook script
func HookTemplate(hookType HookType) string {
	switch hookType {
	case PostDownload:
		return `// Post-download hook
// Runs after a transfer completed and the file was closed.
// Available variables:
// - url: string - the requested URL
// - path: string - location of the temporary file
// - size: int - reported size, or bytes written when unknown
// - session: string - session identifier
// Set err to a non-empty string to report a failure.
/*
fmt := import("fmt")
fmt.println("downloaded ", path)
*/`

	case PostStop:
		return `// Post-stop hook
// Runs after a transfer was stopped and the partial file removed.
// Available variables: url, session`

	case PostFailure:
		return `// Post-failure hook
// Runs after a transfer failed.
// Available variables: url, message, session`

	case PostDelete:
		return `// Post-delete hook
// Runs after the temporary file was deleted.
// Available variables: url, path, session`

	default:
		return "// Unknown hook type: " + string(hookType)
	}
}
