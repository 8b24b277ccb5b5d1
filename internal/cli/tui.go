package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/spf13/cobra"
)

// NewTUICmd creates the interactive tui command.
func NewTUICmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "tui [URL]",
		Short: "Download interactively",
		Long: `Open an interactive session: enter a URL, watch progress, stop the transfer,
and deliver the finished file to --output. The temporary file is deleted once
it has been delivered.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			initialURL := ""
			if len(args) == 1 {
				initialURL = args[0]
			}

			// progress samples are superseded by the next snapshot, so they may be dropped
			sink := newEventSink(true)
			sess, err := newSession(cfg, sink.Send)
			if err != nil {
				return err
			}

			model := newTUIModel(cmd.Context(), sess, sink.Events(), initialURL, output)
			_, runErr := tea.NewProgram(model, tea.WithContext(cmd.Context())).Run()
			sink.Close()

			if err := sess.Close(); err != nil {
				logger.Warn("Temporary file was not removed", logger.Fields{"error": err})
			}
			if runErr != nil {
				return fmt.Errorf("interactive session failed: %w", runErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&output, "output", "", "directory or bucket URL files are delivered to")

	return cmd
}
