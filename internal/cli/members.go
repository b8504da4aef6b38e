package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/framesynth/internal/engine"
	"github.com/roach88/framesynth/internal/ir"
)

// MembersResult lists the properties reachable at a path below a call's
// result.
type MembersResult struct {
	Call    string              `json:"call"`
	Path    string              `json:"path,omitempty"`
	Marker  ir.TypeRef          `json:"marker"`
	Members []ir.SchemaProperty `json:"members"`
}

// NewMembersCommand creates the members command.
func NewMembersCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "members <program> <call> [path]",
		Short: "List the accessors available on a call's result",
		Long: `Analyze a program and list the properties a completion layer would offer
on the result of one call.

Without a path the root marker's properties are listed. A dotted path
("c" or "c.inner") descends through column groups and frame columns.

Example:
  framesynth members ./program grouped
  framesynth members ./program grouped c`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 3 {
				path = args[2]
			}
			return runMembers(rootOpts, args[0], args[1], path, cmd)
		},
	}

	return cmd
}

func runMembers(opts *RootOptions, program, callID, path string, cmd *cobra.Command) error {
	formatter := opts.formatter(cmd)

	a, err := analyzeProgram(opts, formatter, program)
	if err != nil {
		return err
	}

	out, ok := a.result.Outcome(callID)
	if !ok {
		_ = formatter.Error("E_NO_CALL", fmt.Sprintf("no call %q in program", callID), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("no call %q", callID))
	}
	if out.Status != engine.StatusSynthesized {
		msg := fmt.Sprintf("call %q has no accessors: %s", callID, out.Status)
		if out.Reason != "" {
			msg += " (" + out.Reason + ")"
		}
		_ = formatter.Error("E_NOT_SYNTHESIZED", msg, nil)
		return NewExitError(ExitFailure, msg)
	}

	marker, err := markerAt(a.pass.Registries(), *out.RootMarker, path)
	if err != nil {
		_ = formatter.Error("E_NO_MEMBER", err.Error(), nil)
		return WrapExitError(ExitFailure, "cannot resolve path", err)
	}
	members, _ := a.pass.Registries().Members(marker)

	result := MembersResult{Call: callID, Path: path, Marker: marker, Members: members}
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "%s\n", marker)
	for _, m := range members {
		fmt.Fprintf(formatter.Writer, "  %s: %s %s\n", m.Name, m.ElementType, formatter.Muted(m.ContainerType.String()))
	}
	return nil
}

// markerAt follows a dotted path from root to the marker of a nested
// group or frame column.
func markerAt(reg *engine.Registries, root ir.TypeRef, path string) (ir.TypeRef, error) {
	if path == "" {
		return root, nil
	}
	cols, err := ir.ParseColumnPath(path)
	if err != nil {
		return ir.TypeRef{}, err
	}
	prop, ok := reg.Resolve(root, cols...)
	if !ok {
		return ir.TypeRef{}, fmt.Errorf("%s has no member %q", root, path)
	}
	nested, ok := reg.NestedAt(root, cols...)
	if !ok {
		return ir.TypeRef{}, fmt.Errorf("member %q is a leaf column of type %s", path, prop.ElementType)
	}
	return nested, nil
}
