package production

import (
	"strconv"
	"strings"
	"time"

	"prodledger/internal/ingest"
	"prodledger/internal/reconcile"
)

// Record is one production line item. JSON names match existing data files.
type Record struct {
	ID             int       `json:"id"`
	Date           string    `json:"date"`
	MachineNumber  string    `json:"machineNumber"`
	MoldNumber     string    `json:"moldNumber"`
	ProductName    string    `json:"productName"`
	ProductNameEng string    `json:"productNameEng"`
	Color          string    `json:"color"`
	Unit           string    `json:"unit"`
	Quantity       int       `json:"quantity"`
	UnitQuantity   int       `json:"unitQuantity"`
	Reserved       int       `json:"reserved,omitempty"`
	Total          int       `json:"total"`
	LotNumber      string    `json:"lotNumber"`
	Remarks        string    `json:"remarks"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// keySep cannot appear in spreadsheet text, so joined keys stay distinct.
const keySep = "\x1f"

// Key is the natural key: date, machine, mold, product, color and lot.
func (r *Record) Key() string {
	return strings.Join([]string{r.Date, r.MachineNumber, r.MoldNumber, r.ProductName, r.Color, r.LotNumber}, keySep)
}

// FromRow converts a parsed spreadsheet row.
func FromRow(row ingest.ProductionRow) Record {
	return Record{
		Date:           row.Date,
		MachineNumber:  row.MachineNumber,
		MoldNumber:     row.MoldNumber,
		ProductName:    row.ProductName,
		ProductNameEng: row.ProductNameEng,
		Color:          row.Color,
		Unit:           row.Unit,
		Quantity:       row.Quantity,
		UnitQuantity:   row.UnitQuantity,
		Reserved:       row.Reserved,
		Total:          row.Total,
		LotNumber:      row.LotNumber,
		Remarks:        row.Remarks,
	}
}

// FromRows converts parsed rows in order.
func FromRows(rows []ingest.ProductionRow) []Record {
	out := make([]Record, len(rows))
	for i, row := range rows {
		out[i] = FromRow(row)
	}
	return out
}

// field returns the value of the JSON-named field as text. Numbers use their
// decimal form.
func (r *Record) field(name string) (string, bool) {
	switch name {
	case "id":
		return strconv.Itoa(r.ID), true
	case ingest.ColDate:
		return r.Date, true
	case ingest.ColMachineNumber:
		return r.MachineNumber, true
	case ingest.ColMoldNumber:
		return r.MoldNumber, true
	case ingest.ColProductName:
		return r.ProductName, true
	case ingest.ColProductNameEng:
		return r.ProductNameEng, true
	case ingest.ColColor:
		return r.Color, true
	case ingest.ColUnit:
		return r.Unit, true
	case ingest.ColQuantity:
		return strconv.Itoa(r.Quantity), true
	case ingest.ColUnitQuantity:
		return strconv.Itoa(r.UnitQuantity), true
	case ingest.ColReserved:
		return strconv.Itoa(r.Reserved), true
	case ingest.ColTotal:
		return strconv.Itoa(r.Total), true
	case ingest.ColLotNumber:
		return r.LotNumber, true
	case ingest.ColRemarks:
		return r.Remarks, true
	default:
		return "", false
	}
}

// CompareMode selects the field set used by CompareAndUpdate.
type CompareMode string

const (
	// CompareRecord compares line-item fields, including remarks.
	CompareRecord CompareMode = "record"
	// CompareBatch compares the fields of batch-style sheets, including reserved.
	CompareBatch CompareMode = "batch"
)

// RecordFields are compared in record mode.
var RecordFields = reconcile.FieldSet[Record]{
	{Name: "unit", Get: func(r *Record) any { return r.Unit }},
	{Name: "quantity", Get: func(r *Record) any { return r.Quantity }},
	{Name: "unitQuantity", Get: func(r *Record) any { return r.UnitQuantity }},
	{Name: "remarks", Get: func(r *Record) any { return r.Remarks }},
	{Name: "total", Get: func(r *Record) any { return r.Total }},
}

// BatchFields are compared in batch mode.
var BatchFields = reconcile.FieldSet[Record]{
	{Name: "unit", Get: func(r *Record) any { return r.Unit }},
	{Name: "quantity", Get: func(r *Record) any { return r.Quantity }},
	{Name: "unitQuantity", Get: func(r *Record) any { return r.UnitQuantity }},
	{Name: "reserved", Get: func(r *Record) any { return r.Reserved }},
	{Name: "total", Get: func(r *Record) any { return r.Total }},
}

// Fields returns the field set for mode, defaulting to record mode.
func (m CompareMode) Fields() reconcile.FieldSet[Record] {
	if m == CompareBatch {
		return BatchFields
	}
	return RecordFields
}
