// Package sheets defines the workbook ports and the row layout shared by every
// spreadsheet-like adapter (memory, xlsx, Google Sheets, SQLite export).
package sheets

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"salesheet/internal/core"
)

const (
	SalesEntrySheet      = "Sales Entry"
	DailySummarySheet    = "Daily Summary"
	ProductAnalysisSheet = "Product Analysis"
)

const (
	ColDate          = "Date"
	ColProductName   = "Product Name"
	ColCategory      = "Category"
	ColQuantity      = "Quantity Sold"
	ColUnitPrice     = "Unit Price"
	ColTotalAmount   = "Total Amount"
	ColPaymentMethod = "Payment Method"
	ColCustomerType  = "Customer Type"
)

var (
	SalesEntryHeaders = []string{
		ColDate, ColProductName, ColCategory, ColQuantity,
		ColUnitPrice, ColTotalAmount, ColPaymentMethod, ColCustomerType,
	}
	DailySummaryHeaders = []string{
		"Date", "Total Sales", "Total Transactions", "Average Sale", "Total Quantity", "Best Selling Product",
	}
	ProductAnalysisHeaders = []string{
		"Product Name", "Total Quantity", "Total Revenue", "Avg Sale Value", "First Sale", "Last Sale", "Sale Count",
	}
)

var ErrMissingColumn = errors.New("missing column")

// Import is the result of reading transactions from an external source.
type Import struct {
	Transactions []core.Transaction
	Dropped      int
	Errors       []error // one *core.RowError per dropped row
}

// EncodeTransaction returns a Sales Entry row with typed cells.
func EncodeTransaction(tx core.Transaction) []any {
	return []any{
		tx.Date.String(),
		tx.ProductName,
		string(tx.Category),
		tx.Quantity,
		tx.UnitPrice.InexactFloat64(),
		tx.TotalAmount.Float64(),
		string(tx.PaymentMethod),
		string(tx.CustomerType),
	}
}

func EncodeDaily(d core.DailySummary) []any {
	return []any{
		d.Date.String(),
		d.TotalSales.Float64(),
		d.TotalTransactions,
		d.AverageSale.Float64(),
		d.TotalQuantity,
		d.BestSellingProduct,
	}
}

func EncodeProduct(p core.ProductSummary) []any {
	return []any{
		p.ProductName,
		p.TotalQuantity,
		p.TotalRevenue.Float64(),
		p.AvgSaleValue.Float64(),
		p.FirstSaleDate.String(),
		p.LastSaleDate.String(),
		p.SaleCount,
	}
}

// ToStrings renders typed cells the way a spreadsheet would display them.
func ToStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		switch x := v.(type) {
		case float64:
			out[i] = strconv.FormatFloat(x, 'f', -1, 64)
		default:
			out[i] = strings.TrimSpace(fmt.Sprint(v))
		}
	}
	return out
}

// DecodeSalesEntry validates raw Sales Entry rows. A leading header row is used to
// locate columns; without one the canonical column order is assumed. Blank rows are
// skipped silently, malformed rows are dropped and reported.
//
// Date cells may hold spreadsheet serial numbers.
// An empty Total Amount is derived from quantity and unit price, since templates
// compute it with a formula that may not have a cached value.
func DecodeSalesEntry(rows [][]string) (Import, error) {
	imp := Import{Transactions: []core.Transaction{}}
	if len(rows) == 0 {
		return imp, nil
	}

	cols, start, err := columnIndex(rows[0])
	if err != nil {
		return imp, err
	}

	for i := start; i < len(rows); i++ {
		rowNum := i + 1
		r := rowReader{cells: rows[i], cols: cols}
		if r.blank() {
			continue
		}
		tx, rerr := r.transaction()
		if rerr == nil {
			if verr := tx.Validate(); verr != nil {
				rerr = &core.RowError{Field: fieldOf(verr), Err: verr}
			}
		}
		if rerr != nil {
			var re *core.RowError
			if !errors.As(rerr, &re) {
				re = &core.RowError{Err: rerr}
			}
			re.Row = rowNum
			imp.Dropped++
			imp.Errors = append(imp.Errors, re)
			continue
		}
		imp.Transactions = append(imp.Transactions, tx)
	}
	return imp, nil
}

func columnIndex(first []string) (map[string]int, int, error) {
	cols := make(map[string]int, len(SalesEntryHeaders))
	isHeader := len(first) > 0 && strings.EqualFold(strings.TrimSpace(first[0]), ColDate)
	if !isHeader {
		for i, h := range SalesEntryHeaders {
			cols[h] = i
		}
		return cols, 0, nil
	}
	for i, cell := range first {
		for _, h := range SalesEntryHeaders {
			if strings.EqualFold(strings.TrimSpace(cell), h) {
				cols[h] = i
			}
		}
	}
	var missing []string
	for _, h := range SalesEntryHeaders {
		if _, ok := cols[h]; !ok && h != ColTotalAmount {
			missing = append(missing, h)
		}
	}
	if len(missing) > 0 {
		return nil, 0, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, 1, nil
}

type rowReader struct {
	cells []string
	cols  map[string]int
}

func (r rowReader) get(col string) string {
	i, ok := r.cols[col]
	if !ok || i >= len(r.cells) {
		return ""
	}
	return strings.TrimSpace(r.cells[i])
}

func (r rowReader) blank() bool {
	for _, h := range SalesEntryHeaders {
		if h != ColTotalAmount && r.get(h) != "" {
			return false
		}
	}
	return true
}

func (r rowReader) required(col string) (string, error) {
	v := r.get(col)
	if v == "" {
		return "", &core.RowError{Field: col, Err: errors.New("required field is empty")}
	}
	return v, nil
}

func (r rowReader) transaction() (core.Transaction, error) {
	var tx core.Transaction

	raw, err := r.required(ColDate)
	if err != nil {
		return tx, err
	}
	if tx.Date, err = parseCellDate(raw); err != nil {
		return tx, &core.RowError{Field: ColDate, Err: err}
	}
	if tx.ProductName, err = r.required(ColProductName); err != nil {
		return tx, err
	}
	if raw, err = r.required(ColCategory); err != nil {
		return tx, err
	}
	tx.Category = core.Category(raw)

	if raw, err = r.required(ColQuantity); err != nil {
		return tx, err
	}
	if tx.Quantity, err = parseQuantity(raw); err != nil {
		return tx, &core.RowError{Field: ColQuantity, Err: err}
	}
	if raw, err = r.required(ColUnitPrice); err != nil {
		return tx, err
	}
	if tx.UnitPrice, err = core.ParseDecimal(raw); err != nil {
		return tx, &core.RowError{Field: ColUnitPrice, Err: err}
	}
	if raw = r.get(ColTotalAmount); raw == "" {
		tx.TotalAmount = core.LineTotal(tx.Quantity, tx.UnitPrice)
	} else {
		cents, perr := core.ParseDecimalToCents(raw)
		if perr != nil {
			return tx, &core.RowError{Field: ColTotalAmount, Err: perr}
		}
		tx.TotalAmount = core.Money{Cents: cents}
	}

	if raw, err = r.required(ColPaymentMethod); err != nil {
		return tx, err
	}
	tx.PaymentMethod = core.PaymentMethod(raw)
	if raw, err = r.required(ColCustomerType); err != nil {
		return tx, err
	}
	tx.CustomerType = core.CustomerType(raw)
	return tx, nil
}

// parseCellDate accepts YYYY-MM-DD text and the serial day numbers spreadsheets
// store for typed dates (days since 1899-12-30).
func parseCellDate(s string) (core.Date, error) {
	d, err := core.ParseDate(s)
	if err == nil {
		return d, nil
	}
	serial, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || serial <= 0 {
		return core.Date{}, err
	}
	t, terr := excelize.ExcelDateToTime(serial, false)
	if terr != nil {
		return core.Date{}, fmt.Errorf("date serial %q: %w", s, terr)
	}
	return core.DateOf(t), nil
}

// parseQuantity accepts integers, including spreadsheet renderings such as "2.0".
func parseQuantity(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != float64(int(f)) {
		return 0, fmt.Errorf("quantity %q is not a whole number", s)
	}
	return int(f), nil
}

func fieldOf(err error) string {
	switch {
	case errors.Is(err, core.ErrInvalidCategory):
		return ColCategory
	case errors.Is(err, core.ErrInvalidPayment):
		return ColPaymentMethod
	case errors.Is(err, core.ErrInvalidCustomer):
		return ColCustomerType
	case errors.Is(err, core.ErrInvalidQuantity):
		return ColQuantity
	case errors.Is(err, core.ErrInvalidUnitPrice):
		return ColUnitPrice
	case errors.Is(err, core.ErrTotalMismatch), errors.Is(err, core.ErrInvalidAmount):
		return ColTotalAmount
	case errors.Is(err, core.ErrEmptyProduct):
		return ColProductName
	}
	return ""
}
