package fsutil

// File and directory permission constants.
const (
	// Default file modes.
	FileModeDefault = 0o644 // -rw-r--r--: Default for regular files
	FileModeSecure  = 0o600 // -rw-------: Downloaded artifacts and config temp files

	// Directory modes.
	DirModeDefault = 0o755 // drwxr-xr-x: Default for directories
)
