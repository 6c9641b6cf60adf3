package model

import (
	"strconv"
	"strings"
	"time"
)

// Row 一行校验后的数据（字段名 → 标量值）
// 写入缓存后不再修改，替换而非原地变更。
type Row map[string]any

// Field 按字段名取值并强制转为去除首尾空白的字符串
// 字段不存在或为 nil 时返回空串。
func (r Row) Field(name string) string {
	v, ok := r[name]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// Number 按字段名解析数值，解析失败时返回 false
func (r Row) Number(name string) (float64, bool) {
	if v, ok := r[name]; ok {
		switch t := v.(type) {
		case float64:
			return t, true
		case int:
			return float64(t), true
		case int64:
			return float64(t), true
		}
	}
	s := r.Field(name)
	if s == "" {
		return 0, false
	}
	// 清理千分位分隔符
	s = strings.ReplaceAll(s, ",", "")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// dateLayouts 日期字段支持的格式
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"02/01/2006",
}

// Time 按字段名解析日期，解析失败时返回 false
func (r Row) Time(name string) (time.Time, bool) {
	s := r.Field(name)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Clone 复制一行（值为标量，浅拷贝即可）
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// RawTable 适配器输出的统一原始形状
// 二选一：Keyed 为已键控行（简化 JSON 源），Matrix 为表头加数据行（结构化 API 源）。
type RawTable struct {
	Keyed  []map[string]any
	Matrix [][]string
}
