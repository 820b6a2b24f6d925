// Package export renders list pages as spreadsheets.
package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ErrGenerate is returned when the workbook cannot be produced.
var ErrGenerate = errors.New("產生 Excel 檔案失敗")

const (
	minColWidth = 8
	maxColWidth = 60
)

// Table is one sheet of already formatted cells.
type Table struct {
	Sheet   string
	Headers []string
	Rows    [][]string
}

// WriteXLSX writes t as a single-sheet workbook with a bold frozen header row.
// PRE: every row has len(t.Headers) cells
// POST: w holds a complete .xlsx file or an error is returned
func WriteXLSX(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Sheet)
	idx, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	f.SetActiveSheet(idx)
	if sheet != "Sheet1" {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("%w: %v", ErrGenerate, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#2F6F8F"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	widths := make([]int, len(t.Headers))
	write := func(row int, values []string) error {
		cells := make([]any, len(values))
		for i, v := range values {
			cells[i] = v
			if i < len(widths) {
				widths[i] = max(widths[i], displayWidth(v))
			}
		}
		start, _ := excelize.CoordinatesToCellName(1, row)
		return f.SetSheetRow(sheet, start, &cells)
	}

	if err := write(1, t.Headers); err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	if len(t.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(t.Headers), 1)
		if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
			return fmt.Errorf("%w: %v", ErrGenerate, err)
		}
	}
	for i, r := range t.Rows {
		if err := write(i+2, r); err != nil {
			return fmt.Errorf("%w: %v", ErrGenerate, err)
		}
	}

	for i, wd := range widths {
		col, _ := excelize.ColumnNumberToName(i + 1)
		if err := f.SetColWidth(sheet, col, col, float64(min(max(wd+2, minColWidth), maxColWidth))); err != nil {
			return fmt.Errorf("%w: %v", ErrGenerate, err)
		}
	}
	if err := f.SetPanes(sheet, &excelize.Panes{Freeze: true, Split: false, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("%w: %v", ErrGenerate, err)
	}
	return nil
}

// Filename builds the download name, e.g. "會員列表_20260301.xlsx".
func Filename(title string, now time.Time) string {
	return fmt.Sprintf("%s_%s.xlsx", sheetName(title), now.Format("20060102"))
}

// sheetName strips characters Excel forbids and truncates to 31 runes.
func sheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`\/?*[]:`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" {
		return "Sheet1"
	}
	if utf8.RuneCountInString(s) > 31 {
		s = string([]rune(s)[:31])
	}
	return s
}

// displayWidth counts wide runes twice.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		if r > 0x2E80 {
			n += 2
		} else {
			n++
		}
	}
	return n
}
