package cli

import (
	"fmt"

	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/spf13/cobra"
)

// NewValidateCmd creates the validate command.
func NewValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate URL",
		Short: "Check whether a URL can be downloaded",
		Long:  "Report whether a URL is eligible for download and the file name it would be saved under",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			raw := args[0]

			valid := download.IsValidURL(raw)
			_, _ = fmt.Fprintf(out, "url:      %s\n", raw)
			_, _ = fmt.Fprintf(out, "valid:    %t\n", valid)
			_, _ = fmt.Fprintf(out, "filename: %s\n", download.FilenameFromURL(raw))

			if !valid {
				return errors.ErrInvalidURL
			}
			return nil
		},
	}

	return cmd
}
