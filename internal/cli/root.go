// Package cli implements the slides-checker commands using Cobra.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/smorand/slides-checker/internal/session"
)

// Global flags.
var (
	configFile string
	outputDir  string
)

var rootCmd = &cobra.Command{
	Use:   "slides-checker",
	Short: "Check read access to Google Slides presentations and extract their content",
	Long: `slides-checker verifies that your Google account can read a presentation and
flattens its slides (text, images and speaker notes) into a JSON file.

Without a subcommand it starts an interactive session: paste a presentation
URL or ID, review the sample content, and choose whether to extract it.

The first run opens a browser for read-only consent; the token is stored and
refreshed automatically afterwards.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.NoArgs,
	RunE:          runInteractive,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, toml or json)")
	rootCmd.PersistentFlags().StringVarP(&outputDir, "output-dir", "o", "", "directory for extracted content (overrides output_dir)")
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		reportError(os.Stderr, err)
		os.Exit(1)
	}
}

// reportError prints err unless a command already explained it.
func reportError(w io.Writer, err error) {
	var reported *reportedError
	if errors.As(err, &reported) {
		return
	}
	fmt.Fprintln(w, "error:", err)
}

// reportedError marks a failure whose guidance was already printed, so
// Execute only sets the exit status.
type reportedError struct {
	err error
}

func (e *reportedError) Error() string { return e.err.Error() }

func (e *reportedError) Unwrap() error { return e.err }

func runInteractive(cmd *cobra.Command, _ []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	prompts := isTerminal(cmd.InOrStdin())
	if prompts {
		fmt.Fprintln(out, "Google Slides read access checker")
	}

	return a.controller.Run(cmd.Context(), session.LoopConfig{
		In:      cmd.InOrStdin(),
		Out:     out,
		Prompts: prompts,
	})
}

// isTerminal reports whether r is an interactive terminal.
func isTerminal(r any) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
