package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"stockboard/internal/model"
	"stockboard/internal/rules"
)

func testAggregate() *model.DashboardAggregate {
	rows := []model.Row{
		{"issue_id": "I1", "category": "damage", "qty_affected": "3"},
		{"issue_id": "I2", "category": "delay", "qty_affected": "1"},
	}

	agg := &model.DashboardAggregate{
		Summary:     map[model.SheetID]model.CategorySummary{},
		Recent:      map[model.SheetID][]model.Row{},
		Raw:         map[model.SheetID][]model.Row{},
		WindowDays:  30,
		GeneratedAt: time.Now(),
	}
	for _, id := range model.AllSheets() {
		agg.Summary[id] = model.CategorySummary{}
		agg.Recent[id] = []model.Row{}
		agg.Raw[id] = []model.Row{}
	}
	agg.Raw[model.SheetIssues] = rows
	agg.Summary[model.SheetIssues] = model.CategorySummary{Count: 2, Total: 4}

	return agg
}

// TestExportWorkbook 测试导出的工作簿结构
func TestExportWorkbook(t *testing.T) {
	dir := t.TempDir()

	rs, err := rules.Load("")
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	name, err := NewExporter(dir, rs).Export(testAggregate())
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	f, err := excelize.OpenFile(filepath.Join(dir, name))
	if err != nil {
		t.Fatalf("failed to reopen workbook: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	want := append([]string{"Summary"}, func() []string {
		var names []string
		for _, id := range model.AllSheets() {
			names = append(names, string(id))
		}
		return names
	}()...)

	if len(sheets) != len(want) {
		t.Fatalf("workbook has sheets %v, want %v", sheets, want)
	}
	for _, w := range want {
		found := false
		for _, s := range sheets {
			if s == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("workbook missing sheet %s", w)
		}
	}

	// 明细表：必填字段在前
	header, err := f.GetCellValue("Issues", "A1")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if header != "issue_id" {
		t.Errorf("Issues!A1 = %q, want issue_id", header)
	}

	cell, err := f.GetCellValue("Issues", "A2")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if cell != "I1" {
		t.Errorf("Issues!A2 = %q, want I1", cell)
	}

	// 汇总表行数
	count, err := f.GetCellValue("Summary", "B5")
	if err != nil {
		t.Fatalf("GetCellValue failed: %v", err)
	}
	if count != "2" {
		t.Errorf("Summary!B5 = %q, want 2 (Issues row count)", count)
	}
}
