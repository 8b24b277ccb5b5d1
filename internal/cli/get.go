package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/dustin/go-humanize"
	"github.com/glorpus-work/tempfetch/internal/logger"
	"github.com/glorpus-work/tempfetch/pkg/config"
	"github.com/glorpus-work/tempfetch/pkg/download"
	"github.com/glorpus-work/tempfetch/pkg/errors"
	"github.com/glorpus-work/tempfetch/pkg/handoff"
	"github.com/glorpus-work/tempfetch/pkg/session"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var errStopped = fmt.Errorf("download stopped by user")

type getOptions struct {
	output string
	key    string
	keep   bool
}

// NewGetCmd creates the get command.
func NewGetCmd() *cobra.Command {
	var opts getOptions

	cmd := &cobra.Command{
		Use:   "get URL",
		Short: "Download a file to a temporary location",
		Long: `Download a single file over HTTP(S) into the download directory.

Press ctrl-c once to stop the transfer at the next chunk; the partial file is
removed. With --output the file is delivered to a directory or bucket URL
(file:///path, mem://) and the temporary copy is deleted afterwards.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			interrupts := make(chan os.Signal, 2)
			signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(interrupts)

			return runGet(cmd.Context(), cfg, args[0], opts, interrupts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVar(&opts.output, "output", "", "directory or bucket URL to deliver the file to")
	cmd.Flags().StringVar(&opts.key, "key", "", "object name at the destination (default: downloaded file name)")
	cmd.Flags().BoolVar(&opts.keep, "keep", false, "keep the temporary file after delivering it")

	return cmd
}

func runGet(
	ctx context.Context,
	cfg *config.Config,
	rawURL string,
	opts getOptions,
	interrupts <-chan os.Signal,
	stdout, stderr io.Writer,
) error {
	if !download.IsValidURL(rawURL) {
		return fmt.Errorf("%w: %s", errors.ErrInvalidURL, rawURL)
	}

	sink := newEventSink(false)
	sess, err := newSession(cfg, sink.Send)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			logger.Warn("Temporary file was not removed", logger.Fields{"error": err})
		}
	}()

	// interrupts drive cancellation of the transfer, not the parent context
	transferCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	defer cancel()

	done := make(chan struct{})
	var res download.Result

	g := new(errgroup.Group)
	g.Go(func() error {
		defer close(done)
		defer sink.Close()
		var err error
		res, err = sess.Start(transferCtx, rawURL)
		return err
	})
	g.Go(func() error {
		renderEvents(stderr, sink.Events())
		return nil
	})
	g.Go(func() error {
		watchInterrupts(interrupts, done, sess, cancel)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}

	return finishGet(ctx, sess, res, opts, stdout)
}

// watchInterrupts maps the first interrupt to a cooperative stop and a second one to
// cancelling the transfer outright.
func watchInterrupts(interrupts <-chan os.Signal, done <-chan struct{}, sess *session.Session, cancel context.CancelFunc) {
	stopping := false
	for {
		select {
		case <-done:
			return
		case <-interrupts:
			if stopping {
				cancel()
				return
			}
			stopping = true
			if err := sess.Stop(); err != nil {
				logger.Debug("Stop not accepted, cancelling", logger.Fields{"error": err})
				cancel()
				return
			}
		}
	}
}

func renderEvents(w io.Writer, events <-chan session.Event) {
	bar := progress.New(progress.WithDefaultGradient(), progress.WithWidth(ProgressBarWidth))
	onBar := false

	for ev := range events {
		switch ev.Kind {
		case session.EventProgress:
			_, _ = fmt.Fprintf(w, "\r%s", bar.ViewAs(ev.Progress))
			onBar = true
			continue
		case session.EventIndeterminate:
			ev.Message = "Size unknown, downloading without progress..."
		}

		if ev.Message == "" {
			continue
		}
		if onBar {
			_, _ = fmt.Fprintln(w)
			onBar = false
		}
		_, _ = fmt.Fprintln(w, ev.Message)
	}

	if onBar {
		_, _ = fmt.Fprintln(w)
	}
}

func finishGet(ctx context.Context, sess *session.Session, res download.Result, opts getOptions, stdout io.Writer) error {
	switch res.Outcome {
	case download.OutcomeStopped:
		return errStopped
	case download.OutcomeFailed:
		return fmt.Errorf("%w: %s", errors.ErrDownloadFailed, res.Message())
	}

	handle := sess.Snapshot().Artifact
	if handle == nil {
		return errors.ErrNoArtifact
	}

	if opts.output == "" {
		_, _ = fmt.Fprintln(stdout, handle.Path)
		return nil
	}

	n, err := handoff.Deliver(ctx, opts.output, opts.key, handle.Path)
	if err != nil {
		return fmt.Errorf("download kept at %s: %w", handle.Path, err)
	}

	key := opts.key
	if key == "" {
		key = handle.Name()
	}
	logger.Success("File delivered", logger.Fields{
		"destination": opts.output,
		"key":         key,
		"size":        humanize.IBytes(uint64(n)),
	})
	_, _ = fmt.Fprintf(stdout, "%s/%s\n", strings.TrimSuffix(opts.output, "/"), key)

	if opts.keep {
		_, _ = fmt.Fprintln(stdout, handle.Path)
		return nil
	}

	if err := sess.MarkConsumed(handle.Path); err != nil {
		return err
	}
	return sess.CollectGarbage()
}
