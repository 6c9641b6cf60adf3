package dashboard

import (
	"context"
	"fmt"
	"sync"
	"time"

	"stockboard/internal/model"
	"stockboard/internal/rules"
)

// SheetReader 聚合器需要的数据读取能力
type SheetReader interface {
	GetSheetData(ctx context.Context, id model.SheetID, useCache bool) ([]model.Row, error)
}

// Aggregator 看板聚合器
// 汇合五类表的缓存/新鲜数据，计算行数、合计与近期窗口子集。
// 与 RefreshAll 的失败隔离策略相反：任何一类表拉取失败（且无缓存）则整个聚合失败，
// 看板必须呈现一致的单一快照，残缺的看板比没有更糟。
type Aggregator struct {
	reader     SheetReader
	rules      *rules.RuleSet
	windowDays int
	clock      func() time.Time
}

// New 创建看板聚合器
func New(reader SheetReader, rs *rules.RuleSet, windowDays int) *Aggregator {
	if windowDays <= 0 {
		windowDays = 30
	}
	return &Aggregator{
		reader:     reader,
		rules:      rs,
		windowDays: windowDays,
		clock:      time.Now,
	}
}

// Aggregate 计算看板聚合
// 并发拉取全部类别（允许用缓存），全部成功后按类别计算：
// 行数、指定数值字段合计、日期落在近期窗口内的行子集、原始行全集。
func (a *Aggregator) Aggregate(ctx context.Context) (*model.DashboardAggregate, error) {
	sheets := model.AllSheets()

	rowsBySheet := make(map[model.SheetID][]model.Row, len(sheets))
	var firstErr error

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, id := range sheets {
		wg.Add(1)
		go func(id model.SheetID) {
			defer wg.Done()

			rows, err := a.reader.GetSheetData(ctx, id, true)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = fmt.Errorf("aggregate failed for sheet %s: %w", id, err)
				}
				return
			}
			rowsBySheet[id] = rows
		}(id)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}

	now := a.clock()
	cutoff := now.AddDate(0, 0, -a.windowDays)

	agg := &model.DashboardAggregate{
		Summary:     make(map[model.SheetID]model.CategorySummary, len(sheets)),
		Recent:      make(map[model.SheetID][]model.Row, len(sheets)),
		Raw:         make(map[model.SheetID][]model.Row, len(sheets)),
		WindowDays:  a.windowDays,
		GeneratedAt: now,
	}

	for _, id := range sheets {
		rows := rowsBySheet[id]
		if rows == nil {
			rows = []model.Row{}
		}

		rule, _ := a.rules.For(model.TypeOf(id))

		agg.Summary[id] = model.CategorySummary{
			Count: len(rows),
			Total: sumField(rows, rule.TotalField),
		}
		agg.Recent[id] = recentRows(rows, rule.DateField, cutoff)
		agg.Raw[id] = rows
	}

	return agg, nil
}

// sumField 按指定数值字段求和，无法解析的值计为 0
func sumField(rows []model.Row, field string) float64 {
	if field == "" {
		return 0
	}

	var total float64
	for _, row := range rows {
		if v, ok := row.Number(field); ok {
			total += v
		}
	}
	return total
}

// recentRows 过滤日期落在窗口内的行
// 日期缺失或无法解析的行不算近期，但仍保留在原始行全集中。
func recentRows(rows []model.Row, dateField string, cutoff time.Time) []model.Row {
	recent := make([]model.Row, 0)
	if dateField == "" {
		return recent
	}

	for _, row := range rows {
		if t, ok := row.Time(dateField); ok && !t.Before(cutoff) {
			recent = append(recent, row)
		}
	}
	return recent
}
