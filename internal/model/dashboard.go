package model

import "time"

// CacheEntry 缓存条目：某张表最近一次成功拉取的数据
type CacheEntry struct {
	SheetID   SheetID   `json:"sheetId"`
	Rows      []Row     `json:"rows"`
	FetchedAt time.Time `json:"fetchedAt"`
}

// CategorySummary 单类别汇总
type CategorySummary struct {
	Count int     `json:"count"` // 行数
	Total float64 `json:"total"` // 指定数值字段合计
}

// DashboardAggregate 看板聚合结果（每次请求重新计算，不持久化）
type DashboardAggregate struct {
	Summary     map[SheetID]CategorySummary `json:"summary"`
	Recent      map[SheetID][]Row           `json:"recent"`
	Raw         map[SheetID][]Row           `json:"raw"`
	WindowDays  int                         `json:"windowDays"`
	GeneratedAt time.Time                   `json:"generatedAt"`
}
