package cli

// Default values for CLI output.
const (
	// TabWidth is the width of tabs in formatted output.
	TabWidth = 2
	// ProgressBarWidth is the width of the progress bar in cells.
	ProgressBarWidth = 40
	// TUILogLines is how many session log lines the interactive view shows.
	TUILogLines = 8
	// eventBuffer is the capacity of the channel carrying session events to a renderer.
	eventBuffer = 256
)
