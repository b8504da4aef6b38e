package cli

import (
	"errors"
	"fmt"

	"github.com/roach88/framesynth/internal/compiler"
)

// loadProgram loads a program and checks its structure. Failures are
// written through the formatter and returned as an ExitError: load errors
// exit with ExitCommandError, validation errors with ExitFailure.
func loadProgram(f *OutputFormatter, path string) (*compiler.LoadResult, error) {
	loaded, err := compiler.LoadProgram(path)
	if err != nil {
		var loadErr *compiler.LoadError
		if errors.As(err, &loadErr) {
			_ = f.Error(loadErr.Code, loadErr.Error(), nil)
			return nil, WrapExitError(ExitCommandError, "failed to load program", err)
		}
		_ = f.Error(compiler.ErrCodeGeneric, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "failed to load program", err)
	}
	f.VerboseLog("Loaded %d call(s) from %d CUE file(s) in %s", len(loaded.Program.Calls), loaded.FileCount, path)

	if errs := compiler.Validate(loaded.Program); len(errs) > 0 {
		return nil, outputValidationErrors(f, errs)
	}
	return loaded, nil
}

// outputValidationErrors prints structural errors and returns the
// validation failure.
func outputValidationErrors(f *OutputFormatter, errs []compiler.ValidationError) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(errs)))

	if f.Format == "json" {
		if err := f.Encode(CLIResponse{
			Status: "error",
			Data:   ValidationResult{Valid: false, Errors: errs},
			Error:  &CLIError{Code: errs[0].Code, Message: errs[0].Message},
		}); err != nil {
			return err
		}
		return failure
	}

	f.Fail("Validation failed")
	fmt.Fprintln(f.Writer)
	for _, err := range errs {
		fmt.Fprintf(f.Writer, "  %s %s: %s\n", f.Code(err.Code), err.Field, err.Message)
	}
	return failure
}
