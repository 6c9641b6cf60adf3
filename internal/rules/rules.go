package rules

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"stockboard/internal/model"
)

//go:embed rules.yaml
var embeddedRules []byte

// SheetRule 单类表的校验与聚合规则
type SheetRule struct {
	Required   []string `yaml:"required"`    // 必填字段（按序）
	TotalField string   `yaml:"total_field"` // 聚合用数值字段
	DateField  string   `yaml:"date_field"`  // 近期窗口用日期字段
}

// RuleSet 表类型 → 规则，加载后只读
type RuleSet struct {
	Sheets map[model.SheetType]SheetRule `yaml:"sheets"`
}

// Load 加载规则集
// 数据目录下存在 rules.yaml 时优先使用，否则使用内置规则。
func Load(dataDir string) (*RuleSet, error) {
	data := embeddedRules

	if dataDir != "" {
		path := filepath.Join(dataDir, "rules.yaml")
		if b, err := os.ReadFile(path); err == nil {
			data = b
		}
	}

	return Parse(data)
}

// Parse 解析 YAML 规则
func Parse(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("解析规则文件失败: %w", err)
	}
	if rs.Sheets == nil {
		rs.Sheets = map[model.SheetType]SheetRule{}
	}
	return &rs, nil
}

// For 返回某类表的规则
func (rs *RuleSet) For(t model.SheetType) (SheetRule, bool) {
	r, ok := rs.Sheets[t]
	return r, ok
}

// Required 返回某类表的必填字段，无规则时返回 nil（全部放行）
func (rs *RuleSet) Required(t model.SheetType) []string {
	if r, ok := rs.Sheets[t]; ok {
		return r.Required
	}
	return nil
}
