package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"prodledger/internal/api"
)

func newJournalCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "journal",
		Short: "Inspect the import journal",
	}
	cmd.AddCommand(newJournalListCommand(ctx))
	return cmd
}

func newJournalListCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent import runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				if !svc.JournalEnabled() && !ctx.jsonOutput() {
					fmt.Fprintln(cmd.OutOrStdout(), "Import journal is disabled")
					return nil
				}
				runs, err := svc.RecentRuns(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, runs, func() error {
					out := cmd.OutOrStdout()
					if len(runs) == 0 {
						fmt.Fprintln(out, "No import runs")
						return nil
					}
					rows := make([][]string, 0, len(runs))
					for _, run := range runs {
						s := run.Summary
						rows = append(rows, []string{
							run.StartedAt.Local().Format("2006-01-02 15:04:05"),
							string(run.Kind),
							string(run.Status),
							run.Source,
							strconv.Itoa(s.Added), strconv.Itoa(s.Updated), strconv.Itoa(s.Unchanged),
							strconv.Itoa(s.Imported), strconv.Itoa(s.Skipped), strconv.Itoa(len(s.Errors)),
						})
					}
					headers := []string{"Started", "Kind", "Status", "Source", "Added", "Updated", "Unchanged", "Imported", "Skipped", "Errors"}
					aligns := []columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft,
						alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}
					fmt.Fprintln(out, renderTable(headers, rows, aligns))
					return nil
				})
			})
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}
