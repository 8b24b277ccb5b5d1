package hook

// HookType represents the type of hook.
type HookType string

// Supported hook types.
const (
	PostDownload HookType = "post-download"
	PostStop     HookType = "post-stop"
	PostFailure  HookType = "post-failure"
	PostDelete   HookType = "post-delete"
)

// AllHookTypes lists the hook types in lifecycle order.
var AllHookTypes = []HookType{PostDownload, PostStop, PostFailure, PostDelete}

// IsValid reports whether t is a supported hook type.
func (t HookType) IsValid() bool {
	for _, known := range AllHookTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Hook represents a hook script with its type and content.
type Hook struct {
	Type    HookType
	Content string
}

// HookContext contains information passed to hooks.
type HookContext struct {
	URL       string
	Path      string
	Size      int64
	Message   string
	SessionID string
	Vars      map[string]interface{}
}

// HookManager defines the interface for managing hooks.
type HookManager interface {
	// Execute runs the specified hook type with the given context
	Execute(hookType HookType, ctx HookContext) error

	// AddHook adds a new hook
	AddHook(hook Hook) error

	// RemoveHook removes a hook of the specified type
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the specified type exists
	HasHook(hookType HookType) bool
}
