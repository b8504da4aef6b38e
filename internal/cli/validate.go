package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/framesynth/internal/compiler"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool                       `json:"valid"`
	Calls  int                        `json:"calls,omitempty"`
	Files  int                        `json:"files,omitempty"`
	Errors []compiler.ValidationError `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <program>",
		Short: "Validate a program without analyzing it",
		Long: `Validate a CUE program (a .cue file or a directory of .cue files)
without running an analysis pass.

Checks CUE syntax, that every call entry compiles, and the structure of
the call graph: callees present, unique call IDs, known receivers, no
receiver cycles, and paths only on calls with a receiver.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	loaded, err := loadProgram(formatter, path)
	if err != nil {
		return err
	}

	if formatter.Format == "json" {
		return formatter.Success(ValidationResult{
			Valid: true,
			Calls: len(loaded.Program.Calls),
			Files: loaded.FileCount,
		})
	}

	formatter.OK("Program valid (%d call(s))", len(loaded.Program.Calls))
	return nil
}
