package ingest

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// Production column names, matching the persisted JSON field names.
const (
	ColDate           = "date"
	ColMachineNumber  = "machineNumber"
	ColMoldNumber     = "moldNumber"
	ColProductName    = "productName"
	ColProductNameEng = "productNameEng"
	ColColor          = "color"
	ColUnit           = "unit"
	ColQuantity       = "quantity"
	ColUnitQuantity   = "unitQuantity"
	ColTotal          = "total"
	ColLotNumber      = "lotNumber"
	ColRemarks        = "remarks"
	ColReserved       = "reserved"
)

var productionColumns = map[string]bool{
	ColDate: true, ColMachineNumber: true, ColMoldNumber: true, ColProductName: true,
	ColProductNameEng: true, ColColor: true, ColUnit: true, ColQuantity: true,
	ColUnitQuantity: true, ColTotal: true, ColLotNumber: true, ColRemarks: true,
	ColReserved: true,
}

// ProductionLayout maps spreadsheet columns to record fields. An empty column
// name ignores that column.
type ProductionLayout struct {
	Columns    []string
	HeaderRows int
}

// DefaultProductionLayout is the column order of the production sheet.
func DefaultProductionLayout() ProductionLayout {
	return ProductionLayout{
		Columns: []string{
			ColDate, ColMachineNumber, ColMoldNumber, ColProductName, ColProductNameEng,
			ColColor, ColUnit, ColQuantity, ColUnitQuantity, ColTotal, ColLotNumber,
			ColRemarks, ColReserved,
		},
		HeaderRows: 1,
	}
}

// Validate checks column names and that a date column exists.
func (l ProductionLayout) Validate() error {
	if l.HeaderRows < 0 {
		return errors.New("header rows cannot be negative")
	}
	seen := map[string]bool{}
	for _, name := range l.Columns {
		if name == "" {
			continue
		}
		if !productionColumns[name] {
			return fmt.Errorf("unknown production column %q", name)
		}
		if seen[name] {
			return fmt.Errorf("production column %q listed twice", name)
		}
		seen[name] = true
	}
	if !seen[ColDate] {
		return errors.New("production layout needs a date column")
	}
	return nil
}

// ProductionRow is one parsed production line.
type ProductionRow struct {
	Line           int
	Date           string
	MachineNumber  string
	MoldNumber     string
	ProductName    string
	ProductNameEng string
	Color          string
	Unit           string
	LotNumber      string
	Remarks        string
	Quantity       int
	UnitQuantity   int
	Reserved       int
	Total          int
}

// ProductionParse is the outcome of ParseProductionGrid.
type ProductionParse struct {
	Rows    []ProductionRow
	Skipped int
	Issues  []Issue
}

// ParseProductionGrid maps grid rows below the header rows onto records.
// Blank rows are ignored; rows with a bad date or number follow opts.
func ParseProductionGrid(grid [][]string, layout ProductionLayout, opts Options) (ProductionParse, error) {
	if err := layout.Validate(); err != nil {
		return ProductionParse{}, err
	}
	opts = opts.withDefaults()
	tracker := &skipTracker{logger: opts.Logger}
	var res ProductionParse

rows:
	for i, row := range grid {
		line := i + 1
		if i < layout.HeaderRows || isBlank(row) {
			continue
		}

		out := ProductionRow{Line: line}
		for col, name := range layout.Columns {
			value := cell(row, col)
			switch name {
			case ColDate:
				date, outcome, err := opts.InvalidDate.dateCell(line, name, value)
				switch outcome {
				case cellReject:
					return ProductionParse{}, err
				case cellSkipRow:
					tracker.skip(line, err)
					continue rows
				}
				out.Date = date
			case ColQuantity, ColUnitQuantity, ColTotal, ColReserved:
				n, outcome, err := opts.InvalidNumber.intCell(line, name, value)
				switch outcome {
				case cellReject:
					return ProductionParse{}, err
				case cellSkipRow:
					tracker.skip(line, err)
					continue rows
				}
				out.setInt(name, n)
			case "":
			default:
				out.setString(name, value)
			}
		}
		res.Rows = append(res.Rows, out)
	}

	res.Skipped = tracker.skipped
	res.Issues = tracker.issues
	return res, nil
}

// ParseProductionCSV reads delimited text laid out like the production sheet.
func ParseProductionCSV(r io.Reader, layout ProductionLayout, opts Options) (ProductionParse, error) {
	decoded, err := NewReader(r, opts.Encoding)
	if err != nil {
		return ProductionParse{}, err
	}
	grid, _, err := ReadGrid(decoded, opts.Delimiter)
	if err != nil {
		return ProductionParse{}, err
	}
	return ParseProductionGrid(grid, layout, opts)
}

func (r *ProductionRow) setInt(name string, n int) {
	switch name {
	case ColQuantity:
		r.Quantity = n
	case ColUnitQuantity:
		r.UnitQuantity = n
	case ColTotal:
		r.Total = n
	case ColReserved:
		r.Reserved = n
	}
}

func (r *ProductionRow) setString(name, value string) {
	switch name {
	case ColMachineNumber:
		r.MachineNumber = value
	case ColMoldNumber:
		r.MoldNumber = value
	case ColProductName:
		r.ProductName = value
	case ColProductNameEng:
		r.ProductNameEng = value
	case ColColor:
		r.Color = value
	case ColUnit:
		r.Unit = value
	case ColLotNumber:
		r.LotNumber = value
	case ColRemarks:
		r.Remarks = strings.TrimSpace(value)
	}
}
