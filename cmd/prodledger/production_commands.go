package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"prodledger/internal/api"
	"prodledger/internal/ingest"
	"prodledger/internal/production"
	"prodledger/internal/store"
)

func newProductionCommand(ctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "production",
		Aliases: []string{"prod"},
		Short:   "Inspect and edit production records",
	}
	cmd.AddCommand(
		newProductionListCommand(ctx),
		newProductionShowCommand(ctx),
		newProductionSummaryCommand(ctx),
		newProductionUpsertCommand(ctx),
		newProductionImportCommand(ctx),
		newProductionSheetCommand(ctx),
		newProductionDeleteCommand(ctx),
	)
	return cmd
}

func newProductionListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every production record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				records, err := svc.GetAllData()
				if err != nil {
					return err
				}
				return ctx.emit(cmd, records, func() error {
					printRecords(cmd, records)
					return nil
				})
			})
		},
	}
}

func newProductionShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <date>",
		Short: "Show the production records of one date",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			date, err := ingest.ParseDate(args[0])
			if err != nil {
				return err
			}
			return ctx.withService(func(svc *api.Service) error {
				records, err := svc.GetDataByDate(date)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, records, func() error {
					printRecords(cmd, records)
					return nil
				})
			})
		},
	}
}

func newProductionSummaryCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "summary",
		Short: "Per-date record counts and totals",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				groups, err := svc.GetGroupedByDate()
				if err != nil {
					return err
				}
				return ctx.emit(cmd, groups, func() error {
					printSummary(cmd, groups)
					return nil
				})
			})
		},
	}
}

func newProductionUpsertCommand(ctx *commandContext) *cobra.Command {
	var rec production.Record
	var date string

	cmd := &cobra.Command{
		Use:   "upsert",
		Short: "Insert or replace one record by its natural key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			normalized, err := ingest.ParseDate(date)
			if err != nil {
				return err
			}
			rec.Date = normalized
			return ctx.withService(func(svc *api.Service) error {
				res, err := svc.UpsertData(rec)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					verb := "Updated"
					if res.Inserted {
						verb = "Inserted"
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s record %d\n", verb, res.ID)
					return nil
				})
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&date, "date", "", "Production date")
	flags.StringVar(&rec.MachineNumber, "machine", "", "Machine number")
	flags.StringVar(&rec.MoldNumber, "mold", "", "Mold number")
	flags.StringVar(&rec.ProductName, "product", "", "Product name")
	flags.StringVar(&rec.ProductNameEng, "product-eng", "", "Product name (English)")
	flags.StringVar(&rec.Color, "color", "", "Color")
	flags.StringVar(&rec.Unit, "unit", "", "Unit")
	flags.IntVar(&rec.Quantity, "quantity", 0, "Quantity")
	flags.IntVar(&rec.UnitQuantity, "unit-quantity", 0, "Quantity per unit")
	flags.IntVar(&rec.Reserved, "reserved", 0, "Reserved quantity")
	flags.IntVar(&rec.Total, "total", 0, "Total")
	flags.StringVar(&rec.LotNumber, "lot", "", "Lot number")
	flags.StringVar(&rec.Remarks, "remarks", "", "Remarks")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newProductionImportCommand(ctx *commandContext) *cobra.Command {
	var sheet string

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Reconcile an xlsx workbook or CSV export into the store",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			return ctx.withService(func(svc *api.Service) error {
				var (
					res api.ProductionImport
					err error
				)
				switch strings.ToLower(filepath.Ext(path)) {
				case ".xlsx", ".xlsm":
					res, err = svc.ImportProductionWorkbook(cmd.Context(), path, sheet)
				default:
					res, err = svc.ImportProductionCSV(cmd.Context(), path)
				}
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					printProductionImport(cmd, res)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&sheet, "sheet", "", "Workbook sheet (default: import.workbook_sheet or the first sheet)")
	return cmd
}

func newProductionSheetCommand(ctx *commandContext) *cobra.Command {
	var sheetRange string

	cmd := &cobra.Command{
		Use:   "sheet",
		Short: "Reconcile the configured Google Sheets range into the store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withService(func(svc *api.Service) error {
				res, err := svc.ImportProductionSheet(cmd.Context(), sheetRange)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, res, func() error {
					printProductionImport(cmd, res)
					return nil
				})
			})
		},
	}
	cmd.Flags().StringVar(&sheetRange, "range", "", "A1 range (default: sheets.range)")
	return cmd
}

func newProductionDeleteCommand(ctx *commandContext) *cobra.Command {
	var (
		ids   []int
		dates []string
		where []string
		all   bool
	)

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete records by id, date, condition or all",
		Long: "Delete production records. Exactly one selector is used:\n" +
			"  --id 3 --id 4           records with these ids\n" +
			"  --date 2025-03-01       records on these dates\n" +
			"  --where machineNumber=M1,M2 --where color=red\n" +
			"                          records matching every field (values OR'd)\n" +
			"  --all                   every record",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			selectors := 0
			for _, set := range []bool{len(ids) > 0, len(dates) > 0, len(where) > 0, all} {
				if set {
					selectors++
				}
			}
			if selectors != 1 {
				return fmt.Errorf("choose exactly one of --id, --date, --where or --all")
			}

			return ctx.withService(func(svc *api.Service) error {
				var (
					res store.DeleteResult
					err error
				)
				switch {
				case all:
					res, err = svc.DeleteAll()
				case len(ids) > 0:
					res, err = svc.DeleteByIDs(ids)
				case len(dates) > 0:
					normalized, nerr := normalizeDates(dates)
					if nerr != nil {
						return nerr
					}
					res, err = svc.DeleteByDates(normalized)
				default:
					cond, cerr := production.ParseCondition(where)
					if cerr != nil {
						return cerr
					}
					res, err = svc.DeleteByCondition(cond)
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
	cmd.Flags().IntSliceVar(&ids, "id", nil, "Record id (repeatable)")
	cmd.Flags().StringSliceVar(&dates, "date", nil, "Date (repeatable)")
	cmd.Flags().StringArrayVar(&where, "where", nil, "field=value[,value] condition (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Delete every record")
	return cmd
}

func printRecords(cmd *cobra.Command, records []production.Record) {
	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "No production records")
		return
	}
	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			strconv.Itoa(r.ID), r.Date, r.MachineNumber, r.MoldNumber, r.ProductName, r.Color,
			r.LotNumber, strconv.Itoa(r.Quantity), strconv.Itoa(r.Total), r.Remarks,
		})
	}
	headers := []string{"ID", "Date", "Machine", "Mold", "Product", "Color", "Lot", "Qty", "Total", "Remarks"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignLeft}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
}

func printSummary(cmd *cobra.Command, groups []store.DateSummary) {
	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No records")
		return
	}
	rows := make([][]string, 0, len(groups))
	for _, g := range groups {
		rows = append(rows, []string{g.Date, strconv.Itoa(g.Count), strconv.Itoa(g.TotalQuantity)})
	}
	fmt.Fprintln(out, renderTable([]string{"Date", "Records", "Total"}, rows,
		[]columnAlignment{alignLeft, alignRight, alignRight}))
}

func printProductionImport(cmd *cobra.Command, res api.ProductionImport) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Imported %s (run %s)\n", res.Source, res.RunID)
	fmt.Fprintf(out, "  rows %d, skipped %d\n", res.Rows, res.Skipped)
	fmt.Fprintf(out, "  added %d, updated %d, unchanged %d, errors %d\n",
		len(res.Result.Added), len(res.Result.Updated), len(res.Result.Unchanged), len(res.Result.Errors))
	for _, change := range res.Result.Updated {
		fmt.Fprintf(out, "  ~ %s %s lot %s: %s\n", change.New.Date, change.New.MachineNumber,
			change.New.LotNumber, strings.Join(change.Fields, ", "))
	}
	for _, failure := range res.Result.Errors {
		fmt.Fprintf(out, "  ! %s %s: %v\n", failure.Record.Date, failure.Record.MachineNumber, failure.Err)
	}
	for _, issue := range res.Issues {
		fmt.Fprintf(out, "  - %s\n", issue)
	}
}

func printDeleteResult(cmd *cobra.Command, res store.DeleteResult) {
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d, %d remaining\n", res.Deleted, res.Remaining)
}

func normalizeDates(values []string) ([]string, error) {
	out := make([]string, 0, len(values))
	for _, v := range values {
		date, err := ingest.ParseDate(v)
		if err != nil {
			return nil, err
		}
		out = append(out, date)
	}
	return out, nil
}
