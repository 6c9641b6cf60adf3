package export

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"stockboard/internal/model"
	"stockboard/internal/rules"
)

// Exporter 看板数据导出器
// 把一次聚合结果落成 xlsx 工作簿：一张汇总表加每个类别一张明细表。
type Exporter struct {
	dir   string
	rules *rules.RuleSet
}

// NewExporter 创建导出器
func NewExporter(dir string, rs *rules.RuleSet) *Exporter {
	return &Exporter{dir: dir, rules: rs}
}

// Export 导出聚合结果，返回生成的文件名
func (e *Exporter) Export(agg *model.DashboardAggregate) (string, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := e.fillSummarySheet(f, agg); err != nil {
		return "", err
	}

	for _, id := range model.AllSheets() {
		if err := e.fillCategorySheet(f, id, agg.Raw[id]); err != nil {
			return "", err
		}
	}

	f.SetActiveSheet(0)

	name := fmt.Sprintf("stockboard_%s.xlsx", uuid.NewString()[:8])
	path := filepath.Join(e.dir, name)
	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("保存导出文件失败: %w", err)
	}

	return name, nil
}

// fillSummarySheet 填充汇总表
func (e *Exporter) fillSummarySheet(f *excelize.File, agg *model.DashboardAggregate) error {
	const sheet = "Summary"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("重命名汇总表失败: %w", err)
	}

	headers := []string{"类别", "行数", "合计", "近期行数"}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	row := 2
	for _, id := range model.AllSheets() {
		summary := agg.Summary[id]
		values := []any{string(id), summary.Count, summary.Total, len(agg.Recent[id])}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
		row++
	}

	genCell, err := excelize.CoordinatesToCellName(1, row+1)
	if err != nil {
		return err
	}
	return f.SetCellValue(sheet, genCell, fmt.Sprintf("生成时间: %s（窗口 %d 天）",
		agg.GeneratedAt.Format("2006-01-02 15:04:05"), agg.WindowDays))
}

// fillCategorySheet 填充单类别明细表
func (e *Exporter) fillCategorySheet(f *excelize.File, id model.SheetID, rows []model.Row) error {
	sheet := string(id)
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("创建明细表 %s 失败: %w", sheet, err)
	}

	columns := e.columnsFor(id, rows)
	for col, h := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}

	for i, row := range rows {
		for col, field := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, row.Field(field)); err != nil {
				return err
			}
		}
	}

	return nil
}

// columnsFor 确定明细表的列顺序：必填字段在前，其余字段按名称排序补后
func (e *Exporter) columnsFor(id model.SheetID, rows []model.Row) []string {
	required := e.rules.Required(model.TypeOf(id))

	seen := make(map[string]bool, len(required))
	columns := make([]string, 0, len(required))
	for _, field := range required {
		columns = append(columns, field)
		seen[field] = true
	}

	var extra []string
	for _, row := range rows {
		for field := range row {
			if !seen[field] {
				seen[field] = true
				extra = append(extra, field)
			}
		}
	}
	sort.Strings(extra)

	return append(columns, extra...)
}
