// Command framesynth synthesizes typed accessor markers for tabular-data
// call chains described in CUE.
package main

import (
	"fmt"
	"os"

	"github.com/roach88/framesynth/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(cli.GetExitCode(err))
	}
}
