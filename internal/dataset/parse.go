package dataset

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts are tried in order when coercing date-like columns.
var dateLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
	"2006/01/02",
	"02 Jan 2006",
	"Jan 2, 2006",
}

var dateTokens = []string{"date", "time", "timestamp"}

// Parse decodes an uploaded file into a Frame. CSV is tried first,
// falling back to the first sheet of an Excel workbook.
func Parse(data []byte, name string) (*Frame, error) {
	f, csvErr := ParseCSV(data, name)
	if csvErr == nil {
		return f, nil
	}
	f, xlsErr := ParseExcel(data, name)
	if xlsErr == nil {
		return f, nil
	}
	return nil, fmt.Errorf("not parseable as CSV (%v) or Excel (%v)", csvErr, xlsErr)
}

// ParseCSV decodes CSV bytes into a typed Frame.
func ParseCSV(data []byte, name string) (*Frame, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV headers: %w", err)
	}
	if len(headers) == 0 {
		return nil, fmt.Errorf("file has no columns")
	}

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV row: %w", err)
		}
		rows = append(rows, row)
	}

	return fromCells(name, headers, rows)
}

// ParseExcel decodes the first sheet of an xlsx workbook into a typed Frame.
func ParseExcel(data []byte, name string) (*Frame, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer wb.Close()

	sheets := wb.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	cells, err := wb.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	if len(cells) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	return fromCells(name, cells[0], cells[1:])
}

// fromCells builds a Frame from raw header and row strings: headers are
// normalized to snake_case and columns are opportunistically typed.
func fromCells(name string, headers []string, rows [][]string) (*Frame, error) {
	names := make([]string, len(headers))
	for i, h := range headers {
		names[i] = SnakeCase(h)
		if names[i] == "" {
			names[i] = fmt.Sprintf("column_%d", i+1)
		}
	}
	dedupe(names)

	if len(rows) == 0 {
		return nil, fmt.Errorf("file has no data rows")
	}

	columns := make([]*Column, len(names))
	for i, colName := range names {
		raw := make([]string, len(rows))
		for r, row := range rows {
			if i < len(row) {
				raw[r] = strings.TrimSpace(row[i])
			}
		}
		columns[i] = typeColumn(colName, raw)
	}

	return New(name, columns)
}

// typeColumn converts raw cell strings into the best-fitting column kind.
// Rules, in order:
//   - all non-empty cells numeric → numeric
//   - date-like name and most non-empty cells parse as dates → datetime
//   - more than max(10, half the rows) cells numeric → numeric coercion
//   - otherwise string
func typeColumn(name string, raw []string) *Column {
	n := len(raw)
	valid := make([]bool, n)

	nonEmpty := 0
	numericOK := 0
	for _, v := range raw {
		if v == "" {
			continue
		}
		nonEmpty++
		if _, err := strconv.ParseFloat(stripThousands(v), 64); err == nil {
			numericOK++
		}
	}

	if nonEmpty > 0 && numericOK == nonEmpty {
		return numericColumn(name, raw, valid)
	}

	if nameHasDateToken(name) {
		dateOK := 0
		for _, v := range raw {
			if v == "" {
				continue
			}
			if _, ok := parseDate(v); ok {
				dateOK++
			}
		}
		if nonEmpty > 0 && dateOK*2 > nonEmpty {
			return datetimeColumn(name, raw, valid)
		}
	}

	threshold := n / 2
	if threshold < 10 {
		threshold = 10
	}
	if numericOK > threshold {
		return numericColumn(name, raw, valid)
	}

	strs := make([]string, n)
	for i, v := range raw {
		if v != "" {
			strs[i] = v
			valid[i] = true
		}
	}
	return &Column{Name: name, Kind: KindString, Strings: strs, Valid: valid}
}

func numericColumn(name string, raw []string, valid []bool) *Column {
	floats := make([]float64, len(raw))
	for i, v := range raw {
		if v == "" {
			continue
		}
		if f, err := strconv.ParseFloat(stripThousands(v), 64); err == nil {
			floats[i] = f
			valid[i] = true
		}
	}
	return &Column{Name: name, Kind: KindNumeric, Floats: floats, Valid: valid}
}

func datetimeColumn(name string, raw []string, valid []bool) *Column {
	times := make([]time.Time, len(raw))
	for i, v := range raw {
		if v == "" {
			continue
		}
		if t, ok := parseDate(v); ok {
			times[i] = t
			valid[i] = true
		}
	}
	return &Column{Name: name, Kind: KindDatetime, Times: times, Valid: valid}
}

// parseDate tries the supported layouts in order.
func parseDate(v string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func nameHasDateToken(name string) bool {
	for _, tok := range dateTokens {
		if strings.Contains(name, tok) {
			return true
		}
	}
	return false
}

func stripThousands(v string) string {
	// "1,234.5" is numeric; "a,b" is not. Only strip commas between digits.
	if !strings.Contains(v, ",") {
		return v
	}
	return thousandsRegex.ReplaceAllString(v, "$1$2")
}

var thousandsRegex = regexp.MustCompile(`(\d),(\d)`)

var (
	nonWordRegex    = regexp.MustCompile(`[^\w\s\-/]`)
	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// SnakeCase normalizes a header: punctuation stripped, slashes and
// dashes become separators, whitespace runs collapse to underscores.
func SnakeCase(s string) string {
	s = strings.TrimSpace(s)
	s = nonWordRegex.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.TrimSpace(s)
	s = whitespaceRegex.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// dedupe suffixes repeated names so Frame construction cannot collide.
func dedupe(names []string) {
	seen := make(map[string]int, len(names))
	for i, n := range names {
		if count := seen[n]; count > 0 {
			names[i] = fmt.Sprintf("%s_%d", n, count)
		}
		seen[n]++
	}
}
