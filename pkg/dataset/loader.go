package dataset

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"superstore-dashboard-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// LoadError reports a fatal dataset problem: missing file, unreadable
// content, or an incompatible schema. The dashboard renders an error state
// instead of charts when Load fails.
type LoadError struct {
	Path   string
	Reason string
	Err    error
}

func (e *LoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("dataset %s: %s", e.Path, e.Reason)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Candidate header names per column. Matching is case-insensitive.
var (
	orderIDCols   = []string{"Order ID", "order_id", "OrderID"}
	orderDateCols = []string{"Order Date", "order_date", "Date"}
	regionCols    = []string{"Region"}
	segmentCols   = []string{"Segment"}
	categoryCols  = []string{"Category"}
	salesCols     = []string{"Sales"}
	profitCols    = []string{"Profit"}
	quantityCols  = []string{"Quantity", "Qty"}
)

// Load reads the sales dataset from disk once and returns the full table of
// records. It accepts .xlsx workbooks (sheet "Orders", or the first sheet)
// and .csv files. The file is read a single time per process lifetime; the
// caller keeps the returned slice for the lifetime of the dashboard.
func Load(path string) ([]models.SalesRecord, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, &LoadError{Path: path, Reason: "file not found", Err: err}
	}

	var rows [][]string
	var err error
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		rows, err = readWorkbook(path)
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		rows, err = readCSV(path)
	default:
		return nil, &LoadError{Path: path, Reason: "unsupported file format (expected .xlsx or .csv)"}
	}
	if err != nil {
		return nil, err
	}

	records, err := parseRows(path, rows)
	if err != nil {
		return nil, err
	}

	log.Printf("📊 Dataset loaded: %s (%d records)", path, len(records))
	return records, nil
}

// readWorkbook extracts all rows from the "Orders" sheet, falling back to
// the first sheet when no sheet with that name exists.
func readWorkbook(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "failed to open workbook", Err: err}
	}
	defer f.Close()

	sheet := "Orders"
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: fmt.Sprintf("failed to read sheet %q", sheet), Err: err}
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "failed to open file", Err: err}
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, &LoadError{Path: path, Reason: "failed to parse CSV", Err: err}
	}
	return rows, nil
}

// parseRows converts raw header+data rows into SalesRecords. Rows with an
// unparseable date or amount are skipped with a log line rather than failing
// the whole load.
func parseRows(path string, rows [][]string) ([]models.SalesRecord, error) {
	if len(rows) < 2 {
		return nil, &LoadError{Path: path, Reason: "file needs a header row and at least one data row"}
	}

	header := rows[0]
	dateIdx := findColumn(header, orderDateCols...)
	regionIdx := findColumn(header, regionCols...)
	categoryIdx := findColumn(header, categoryCols...)
	salesIdx := findColumn(header, salesCols...)
	profitIdx := findColumn(header, profitCols...)
	quantityIdx := findColumn(header, quantityCols...)
	// Optional columns
	orderIDIdx := findColumn(header, orderIDCols...)
	segmentIdx := findColumn(header, segmentCols...)

	var missing []string
	for name, idx := range map[string]int{
		"Order Date": dateIdx,
		"Region":     regionIdx,
		"Category":   categoryIdx,
		"Sales":      salesIdx,
		"Profit":     profitIdx,
		"Quantity":   quantityIdx,
	} {
		if idx == -1 {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &LoadError{
			Path:   path,
			Reason: fmt.Sprintf("required columns not found: %s (header: %v)", strings.Join(missing, ", "), header),
		}
	}

	records := make([]models.SalesRecord, 0, len(rows)-1)
	skipped := 0
	for i, row := range rows[1:] {
		rec, ok := parseRecord(row, dateIdx, regionIdx, segmentIdx, categoryIdx, salesIdx, profitIdx, quantityIdx, orderIDIdx)
		if !ok {
			skipped++
			if skipped <= 5 {
				log.Printf("⚠️ Skipping row %d: could not parse %v", i+2, row)
			}
			continue
		}
		records = append(records, rec)
	}

	if skipped > 0 {
		log.Printf("⚠️ Dataset parse: %d rows skipped out of %d", skipped, len(rows)-1)
	}
	if len(records) == 0 {
		return nil, &LoadError{Path: path, Reason: "no parseable data rows"}
	}
	return records, nil
}

func parseRecord(row []string, dateIdx, regionIdx, segmentIdx, categoryIdx, salesIdx, profitIdx, quantityIdx, orderIDIdx int) (models.SalesRecord, bool) {
	cell := func(idx int) string {
		if idx >= 0 && idx < len(row) {
			return strings.TrimSpace(row[idx])
		}
		return ""
	}

	t := parseDate(cell(dateIdx))
	if t.IsZero() {
		return models.SalesRecord{}, false
	}

	sales, err := strconv.ParseFloat(cell(salesIdx), 64)
	if err != nil {
		return models.SalesRecord{}, false
	}
	profit, err := strconv.ParseFloat(cell(profitIdx), 64)
	if err != nil {
		return models.SalesRecord{}, false
	}
	quantity, err := strconv.Atoi(cell(quantityIdx))
	if err != nil {
		return models.SalesRecord{}, false
	}

	region := cell(regionIdx)
	category := cell(categoryIdx)
	if region == "" || category == "" {
		return models.SalesRecord{}, false
	}

	return models.SalesRecord{
		OrderID:   cell(orderIDIdx),
		OrderDate: t,
		Region:    region,
		Segment:   cell(segmentIdx),
		Category:  category,
		Sales:     sales,
		Profit:    profit,
		Quantity:  quantity,
	}, true
}

// parseDate tries the date layouts that show up in Superstore exports.
func parseDate(s string) time.Time {
	layouts := []string{
		"2006-01-02",
		"2006/01/02",
		"2006/1/2",
		"1/2/2006",
		"01-02-06",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// findColumn finds the index of the first candidate header present in the
// header row.
func findColumn(header []string, candidates ...string) int {
	for _, candidate := range candidates {
		for i, item := range header {
			if strings.EqualFold(strings.TrimSpace(item), candidate) {
				return i
			}
		}
	}
	return -1
}
