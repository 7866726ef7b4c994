package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/narvanalabs/sgt-web/internal/status"
)

func newParseCmd() *cobra.Command {
	var rigs bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse saved `sgt status` output and print it as JSON",
		Long: "Parse reads `sgt status` output from a file, or stdin when no file is given,\n" +
			"and prints the structured report. With --rigs it parses `sgt rig list` output instead.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in := cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("opening input: %w", err)
				}
				defer f.Close()
				in = f
			}
			return runParse(in, cmd.OutOrStdout(), rigs)
		},
	}

	cmd.Flags().BoolVar(&rigs, "rigs", false, "parse `sgt rig list` output")
	return cmd
}

func runParse(in io.Reader, out io.Writer, rigs bool) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("reading input: %w", err)
	}

	var v any
	if rigs {
		v = status.ParseRigs(string(raw))
	} else {
		v = status.Parse(string(raw))
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
