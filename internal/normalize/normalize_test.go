package normalize

import (
	"reflect"
	"testing"

	"stockboard/internal/model"
)

// TestNormalizeMatrix 测试表头加数据行的归一化
func TestNormalizeMatrix(t *testing.T) {
	raw := &model.RawTable{
		Matrix: [][]string{
			{"id", "qty"},
			{"1", "5"},
			{"2", "x"},
		},
	}

	rows, err := Normalize(model.SheetPurchaseOrders, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("Normalize returned %d rows, want 2", len(rows))
	}
	if rows[0].Field("id") != "1" || rows[0].Field("qty") != "5" {
		t.Errorf("row 0 = %v, want id=1 qty=5", rows[0])
	}
	if rows[1].Field("qty") != "x" {
		t.Errorf("row 1 qty = %q, want x", rows[1].Field("qty"))
	}
}

// TestNormalizeMissingCells 测试缺失单元格补空串
func TestNormalizeMissingCells(t *testing.T) {
	raw := &model.RawTable{
		Matrix: [][]string{
			{"a", "b", "c"},
			{"1"},
		},
	}

	rows, err := Normalize(model.SheetProduction, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}

	if rows[0]["b"] != "" || rows[0]["c"] != "" {
		t.Errorf("missing cells should be empty strings, got %v", rows[0])
	}
}

// TestNormalizeKeyedPassthrough 测试已键控行透传
func TestNormalizeKeyedPassthrough(t *testing.T) {
	raw := &model.RawTable{
		Keyed: []map[string]any{
			{"id": "1", "qty": float64(5)},
			{"id": "2", "qty": "x"},
		},
	}

	rows, err := Normalize(model.SheetIssues, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("Normalize returned %d rows, want 2", len(rows))
	}
	if rows[0].Field("qty") != "5" {
		t.Errorf("qty = %q, want 5", rows[0].Field("qty"))
	}
}

// TestNormalizeIdempotent 测试归一化对已键控行幂等
func TestNormalizeIdempotent(t *testing.T) {
	raw := &model.RawTable{
		Keyed: []map[string]any{
			{"id": "1", "name": "bolt"},
			{"id": "2", "name": "nut"},
		},
	}

	once, err := Normalize(model.SheetFinishedGoods, raw)
	if err != nil {
		t.Fatalf("first Normalize failed: %v", err)
	}

	// 把结果重新包成已键控输入再归一化一次
	again := &model.RawTable{Keyed: make([]map[string]any, len(once))}
	for i, row := range once {
		again.Keyed[i] = map[string]any(row)
	}

	twice, err := Normalize(model.SheetFinishedGoods, again)
	if err != nil {
		t.Fatalf("second Normalize failed: %v", err)
	}

	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Normalize not idempotent:\n once = %v\ntwice = %v", once, twice)
	}
}

// TestNormalizeEmpty 测试空输入返回校验错误
func TestNormalizeEmpty(t *testing.T) {
	if _, err := Normalize(model.SheetIssues, nil); err == nil {
		t.Error("Normalize(nil) should fail")
	}

	if _, err := Normalize(model.SheetIssues, &model.RawTable{}); err == nil {
		t.Error("Normalize(empty matrix) should fail")
	}

	ve, ok := func() (*ValidationError, bool) {
		_, err := Normalize(model.SheetIssues, &model.RawTable{})
		v, ok := err.(*ValidationError)
		return v, ok
	}()
	if !ok {
		t.Fatal("error should be *ValidationError")
	}
	if ve.SheetID != model.SheetIssues {
		t.Errorf("ValidationError.SheetID = %s, want Issues", ve.SheetID)
	}
}

// TestNormalizeHeaderOnly 测试只有表头时返回空行序列而非错误
func TestNormalizeHeaderOnly(t *testing.T) {
	raw := &model.RawTable{Matrix: [][]string{{"id", "qty"}}}

	rows, err := Normalize(model.SheetProduction, raw)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("header-only table should yield 0 rows, got %d", len(rows))
	}
}

// TestValidatePresenceOnly 测试必填校验只看存在性不看类型
func TestValidatePresenceOnly(t *testing.T) {
	rows := []model.Row{
		{"id": "1", "qty": "5"},
		{"id": "2", "qty": "x"}, // 非数值但非空，保留
	}

	kept, dropped := Validate(rows, []string{"id", "qty"})
	if len(kept) != 2 || dropped != 0 {
		t.Errorf("kept=%d dropped=%d, want 2/0 (presence check must not type-check)", len(kept), dropped)
	}
}

// TestValidateDropsMissing 测试缺失必填字段的行被丢弃
func TestValidateDropsMissing(t *testing.T) {
	rows := []model.Row{
		{"id": "1", "qty": "5"},
		{"id": "", "qty": "3"},    // 空串
		{"id": "3"},               // 字段缺失
		{"id": "4", "qty": nil},   // nil
		{"id": "5", "qty": "  "},  // 仅空白
		{"id": "6", "qty": "0"},   // 零值也算存在
	}

	kept, dropped := Validate(rows, []string{"id", "qty"})
	if len(kept) != 2 {
		t.Fatalf("kept %d rows, want 2", len(kept))
	}
	if dropped != 4 {
		t.Errorf("dropped = %d, want 4", dropped)
	}
	if kept[0].Field("id") != "1" || kept[1].Field("id") != "6" {
		t.Errorf("Validate must preserve order, got %v", kept)
	}
}

// TestValidateNoRules 测试无规则时全部放行
func TestValidateNoRules(t *testing.T) {
	rows := []model.Row{{"anything": ""}, {}}

	kept, dropped := Validate(rows, nil)
	if len(kept) != 2 || dropped != 0 {
		t.Errorf("no rule set should pass all rows, kept=%d dropped=%d", len(kept), dropped)
	}
}

// TestValidateOutputSubset 测试输出是输入的子序列
func TestValidateOutputSubset(t *testing.T) {
	rows := []model.Row{
		{"k": "a"}, {"k": ""}, {"k": "b"}, {}, {"k": "c"},
	}

	kept, dropped := Validate(rows, []string{"k"})
	if len(kept)+dropped != len(rows) {
		t.Fatalf("kept+dropped=%d, want %d", len(kept)+dropped, len(rows))
	}

	want := []string{"a", "b", "c"}
	for i, row := range kept {
		if row.Field("k") != want[i] {
			t.Errorf("kept[%d].k = %q, want %q", i, row.Field("k"), want[i])
		}
	}
}
