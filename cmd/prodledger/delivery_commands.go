package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prodledger/internal/api"
	"prodledger/internal/delivery"
	"prodledger/internal/ingest"
	"prodledger/internal/store"
)

func newDeliveryCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "delivery",
		Short: "Inspect and edit hourly delivery volumes",
	}
	cmd.AddCommand(
		newDeliveryListCommand(ctx),
		newDeliveryRecentCommand(ctx),
		newDeliveryShowCommand(ctx),
		newDeliverySetCommand(ctx),
		newDeliveryHourlyCommand(ctx),
		newDeliveryImportCommand(ctx),
		newDeliveryReplaceCommand(ctx),
		newDeliveryDeleteCommand(ctx),
	)
	return cmd
}

func newDeliveryListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List daily delivery totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				days, err := svc.GetDeliveryData()
				if err != nil {
					return err
				}
				return ctx.emit(cmd, days, func() error {
					printDays(cmd, days)
					return nil
				})
			})
		},
	}
}

func newDeliveryRecentCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "recent [days]",
		Short: "List the most recent days (default: delivery.recent_days)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n := 0
			if len(args) == 1 {
				v, err := strconv.Atoi(args[0])
				if err != nil || v <= 0 {
					return fmt.Errorf("days must be a positive number, got %q", args[0])
				}
				n = v
			}
			return ctx.withService(func(svc *api.Service) error {
				days, err := svc.GetRecentDays(n)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, days, func() error {
					printDays(cmd, days)
					return nil
				})
			})
		},
	}
}

func newDeliveryShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Show the hourly volumes of one day",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := ingest.ParseDate(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				day, ok, err := svc.GetDeliveryByDate(date)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("no delivery data for %s", date)
				}
				return ctx.emit(cmd, day, func() error {
					printDay(cmd, day)
					return nil
				})
			})
		},
	}
}

func newDeliverySetCommand(ctx *commandContext) *cobra.Command {
	var dayOfWeek string

	cmd := &cobra.Command{
		Use:   "set <date> [hour=quantity...]",
		Short: "Merge hourly volumes into a day; the total is re-derived",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseHourValues(args[1:])
			if err != nil {
				return err
			}
			patch := delivery.Patch{Hours: make(map[int]int, len(values))}
			for _, v := range values {
				patch.Hours[v.Hour] = v.Quantity
			}
			if cmd.Flags().Changed("dow") {
				patch.DayOfWeek = &dayOfWeek
			}
			return ctx.withService(func(svc *api.Service) error {
				day, err := svc.UpsertDelivery(args[0], patch)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, day, func() error {
					printDay(cmd, day)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&dayOfWeek, "dow", "", "Day-of-week label (default: derived from the date)")
	return cmd
}

func newDeliveryHourlyCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "hourly <date> <hour=quantity>...",
		Short: "Record hourly volumes; rejects hours outside 0-23",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			values, err := parseHourValues(args[1:])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				day, err := svc.UpsertHourlyCumulative(args[0], values)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, day, func() error {
					printDay(cmd, day)
					return nil
				})
			})
		},
	}
}

func newDeliveryImportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Overwrite days from a delivery CSV export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				res, err := svc.ImportDeliveryCSV(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					out := cmd.OutOrStdout()
					fmt.Fprintf(out, "Imported %d days from %s (run %s), skipped %d\n",
						res.Imported, res.Source, res.RunID, res.Skipped)
					for _, issue := range res.Issues {
						fmt.Fprintf(out, "  - %s\n", issue)
					}
					return nil
				})
			})
		},
	}
}

func newDeliveryReplaceCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "replace <file.json>",
		Short: "Replace every day with the JSON array in file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days, err := readDaysFile(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				res, err := svc.ReplaceAll(cmd.Context(), days)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					fmt.Fprintf(cmd.OutOrStdout(), "Stored %d days\n", res.Count)
					return nil
				})
			})
		},
	}
}

func newDeliveryDeleteCommand(ctx *commandContext) *cobra.Command {
	var (
		dates []string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete days by date or all",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (len(dates) > 0) == all {
				return fmt.Errorf("choose exactly one of --date or --all")
			}
			return ctx.withService(func(svc *api.Service) error {
				var (
					res store.DeleteResult
					err error
				)
				if all {
					res, err = svc.DeleteAllDelivery()
				} else {
					res, err = svc.DeleteDeliveryByDates(dates)
				}
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					printDeleteResult(cmd, res)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringSliceVar(&dates, "date", nil, "Date (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every day")
	return cmd
}

func parseHourValues(args []string) ([]delivery.HourQuantity, error) {
	values := make([]delivery.HourQuantity, 0, len(args))
	for _, arg := range args {
		hourText, qtyText, ok := strings.Cut(arg, "=")
		if !ok {
			return nil, fmt.Errorf("expected hour=quantity, got %q", arg)
		}
		hour, err := strconv.Atoi(strings.TrimSpace(hourText))
		if err != nil {
			return nil, fmt.Errorf("hour in %q: %w", arg, err)
		}
		qty, err := ingest.ParseInt(qtyText)
		if err != nil {
			return nil, fmt.Errorf("quantity in %q: %w", arg, err)
		}
		values = append(values, delivery.HourQuantity{Hour: hour, Quantity: qty})
	}
	return values, nil
}

func readDaysFile(path string) ([]delivery.Day, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var days []delivery.Day
	if err := json.Unmarshal(data, &days); err != nil {
		var doc map[string]json.RawMessage
		if derr := json.Unmarshal(data, &doc); derr != nil || doc[delivery.Collection] == nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if err := json.Unmarshal(doc[delivery.Collection], &days); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return days, nil
}

func printDays(cmd *cobra.Command, days []delivery.Day) {
	out := cmd.OutOrStdout()
	if len(days) == 0 {
		fmt.Fprintln(out, "No delivery data")
		return
	}
	rows := make([][]string, 0, len(days))
	for _, d := range days {
		peak, peakQty := 0, 0
		for h, q := range d.Hours {
			if q > peakQty {
				peak, peakQty = h, q
			}
		}
		peakText := "-"
		if peakQty > 0 {
			peakText = fmt.Sprintf("%02d:00 (%d)", peak, peakQty)
		}
		rows = append(rows, []string{d.Date, d.DayOfWeek, strconv.Itoa(d.Total), peakText})
	}
	fmt.Fprintln(out, renderTable([]string{"Date", "Day", "Total", "Peak hour"}, rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignLeft}))
}

func printDay(cmd *cobra.Command, day delivery.Day) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s) total %d\n", day.Date, day.DayOfWeek, day.Total)
	rows := make([][]string, 0, len(day.Hours))
	for h, q := range day.Hours {
		rows = append(rows, []string{fmt.Sprintf("%02d", h), strconv.Itoa(q)})
	}
	fmt.Fprintln(out, renderTable([]string{"Hour", "Quantity"}, rows, []columnAlignment{alignLeft, alignRight}))
}
