package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"prodledger/internal/preflight"
)

func newCheckCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check data directories, store files, journal and sources",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results := preflight.RunAll(cmd.Context(), cfg)
			err = ctx.emit(cmd, results, func() error {
				out := cmd.OutOrStdout()
				for _, r := range results {
					label := colorize(out, "OK  ", text.Colors{text.FgGreen})
					if !r.Passed {
						label = colorize(out, "FAIL", text.Colors{text.FgRed, text.Bold})
					}
					fmt.Fprintf(out, "[%s] %-18s %s\n", label, r.Name, r.Detail)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if preflight.Failed(results) {
				return fmt.Errorf("one or more checks failed")
			}
			return nil
		},
	}
}
