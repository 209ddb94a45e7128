package cli

import (
	"github.com/spf13/cobra"

	"github.com/smorand/slides-checker/internal/session"
)

var checkCmd = &cobra.Command{
	Use:   "check <url-or-id>",
	Short: "Check read access to a presentation",
	Long: `Check that the authorized account can read a presentation and print a
sample of its content. Nothing is written.

Examples:
  slides-checker check https://docs.google.com/presentation/d/PRESENTATION_ID/edit
  slides-checker check PRESENTATION_ID`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

var extractCmd = &cobra.Command{
	Use:   "extract <url-or-id>",
	Short: "Extract a presentation's content to JSON",
	Long: `Check access to a presentation and write its flattened content to
<output_dir>/slides_content_<id>.json.

Examples:
  slides-checker extract PRESENTATION_ID --output-dir ./extractions`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(extractCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v, err := a.controller.Check(cmd.Context(), args[0])
	if err != nil {
		session.PrintFailure(cmd.OutOrStdout(), err)
		return &reportedError{err: err}
	}
	session.PrintVerdict(cmd.OutOrStdout(), v)
	return nil
}

func runExtract(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	v, extraction, err := a.controller.Extract(cmd.Context(), args[0])
	if v != nil {
		session.PrintVerdict(cmd.OutOrStdout(), v)
	}
	if err != nil {
		session.PrintFailure(cmd.OutOrStdout(), err)
		return &reportedError{err: err}
	}
	session.PrintExtraction(cmd.OutOrStdout(), extraction)
	return nil
}
