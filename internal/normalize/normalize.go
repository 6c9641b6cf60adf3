package normalize

import (
	"fmt"

	"stockboard/internal/model"
)

// ValidationError 校验错误：原始数据形状无法归一化
type ValidationError struct {
	SheetID model.SheetID
	Reason  string
}

// Error 实现 error 接口
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for sheet %s: %s", e.SheetID, e.Reason)
}

// Normalize 把原始表格数据归一化为统一的行序列
// 已键控的行直接透传；二维数组以首行为表头，逐行按表头组装，缺失单元格补空串。
// 归一化保持输入顺序，不做重排。
func Normalize(id model.SheetID, raw *model.RawTable) ([]model.Row, error) {
	if raw == nil {
		return nil, &ValidationError{SheetID: id, Reason: "empty response"}
	}

	if raw.Keyed != nil {
		rows := make([]model.Row, 0, len(raw.Keyed))
		for _, m := range raw.Keyed {
			row := make(model.Row, len(m))
			for k, v := range m {
				row[k] = v
			}
			rows = append(rows, row)
		}
		return rows, nil
	}

	if len(raw.Matrix) == 0 {
		return nil, &ValidationError{SheetID: id, Reason: "no header row"}
	}

	headers := raw.Matrix[0]
	rows := make([]model.Row, 0, len(raw.Matrix)-1)
	for _, cells := range raw.Matrix[1:] {
		row := make(model.Row, len(headers))
		for i, header := range headers {
			if i < len(cells) {
				row[header] = cells[i]
			} else {
				row[header] = ""
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// Validate 按必填字段过滤行，返回保留的行与被丢弃的行数
// 只做存在性检查：字段存在、非 nil、转字符串去空白后非空。不做类型校验。
// 无必填字段规则时全部放行。过滤不改变行顺序。
func Validate(rows []model.Row, required []string) ([]model.Row, int) {
	if len(required) == 0 {
		return rows, 0
	}

	kept := make([]model.Row, 0, len(rows))
	for _, row := range rows {
		if hasRequired(row, required) {
			kept = append(kept, row)
		}
	}

	return kept, len(rows) - len(kept)
}

// hasRequired 一行是否具备全部必填字段
func hasRequired(row model.Row, required []string) bool {
	for _, field := range required {
		if row.Field(field) == "" {
			return false
		}
	}
	return true
}
