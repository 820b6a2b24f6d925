package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
)

func TestWriteXLSX(t *testing.T) {
	table := Table{
		Sheet:   "會員列表",
		Headers: []string{"會員編號", "姓名", "剩餘點數"},
		Rows: [][]string{
			{"M0001", "王小明", "120"},
			{"M0002", "林美玲", "-"},
		},
	}
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, table); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	if got := f.GetSheetList(); len(got) != 1 || got[0] != "會員列表" {
		t.Fatalf("sheets = %v", got)
	}
	rows, err := f.GetRows("會員列表")
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[0][1] != "姓名" || rows[2][2] != "-" {
		t.Errorf("cells: %v", rows)
	}
}

func TestWriteXLSX_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteXLSX(&buf, Table{Sheet: "點數紀錄", Headers: []string{"編號"}}); err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, _ := f.GetRows("點數紀錄")
	if len(rows) != 1 {
		t.Errorf("rows = %d, want header only", len(rows))
	}
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"會員列表", "會員列表"},
		{"a/b:c", "a_b_c"},
		{"", "Sheet1"},
		{"abcdefghijklmnopqrstuvwxyz0123456789", "abcdefghijklmnopqrstuvwxyz01234"},
	}
	for _, tt := range tests {
		if got := sheetName(tt.in); got != tt.want {
			t.Errorf("sheetName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFilename(t *testing.T) {
	got := Filename("點數紀錄", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	if got != "點數紀錄_20260301.xlsx" {
		t.Errorf("got %q", got)
	}
}

func TestWriteXLSX_SheetLayout(t *testing.T) {
	long := strings.Repeat("x", 200)
	var buf bytes.Buffer
	err := WriteXLSX(&buf, Table{Sheet: "商品列表", Headers: []string{"編號", "名"}, Rows: [][]string{{long, "y"}}})
	if err != nil {
		t.Fatalf("WriteXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	panes, err := f.GetPanes("商品列表")
	if err != nil {
		t.Fatal(err)
	}
	if !panes.Freeze || panes.YSplit != 1 || panes.TopLeftCell != "A2" {
		t.Errorf("header row not frozen: %+v", panes)
	}

	widths := map[string]float64{"A": maxColWidth, "B": minColWidth}
	for col, want := range widths {
		got, err := f.GetColWidth("商品列表", col)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("column %s width = %v, want %v", col, got, want)
		}
	}

	header, err := f.GetCellStyle("商品列表", "B1")
	if err != nil {
		t.Fatal(err)
	}
	body, err := f.GetCellStyle("商品列表", "A2")
	if err != nil {
		t.Fatal(err)
	}
	if header == 0 || header == body {
		t.Errorf("header style = %d, body style = %d", header, body)
	}
}
