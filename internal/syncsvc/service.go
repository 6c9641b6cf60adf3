package syncsvc

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockboard/internal/cache"
	"stockboard/internal/event"
	"stockboard/internal/metrics"
	"stockboard/internal/model"
	"stockboard/internal/normalize"
	"stockboard/internal/rules"
	"stockboard/internal/source"
	"stockboard/internal/store"
)

// Service 数据同步协调器
// 负责单表拉取、缓存回退策略、全量刷新与定时调度，并通过通知总线发布变更。
//
// 同一张表的并发非缓存拉取不做串行化也不做合并，缓存按后写者胜出解决竞争；
// 需要单飞语义的调用方自行在调用侧串行化。
type Service struct {
	src       source.Source
	cache     *cache.RowCache
	rules     *rules.RuleSet
	bus       *event.Bus
	snapshots *store.SnapshotStore // 可为 nil，关闭快照持久化
	logger    *zap.Logger

	refreshMu sync.Mutex
	stopCh    chan struct{} // 活动的定时刷新，nil 表示未启动
}

// New 创建数据同步协调器
func New(src source.Source, rs *rules.RuleSet, bus *event.Bus, snapshots *store.SnapshotStore, logger *zap.Logger) *Service {
	return &Service{
		src:       src,
		cache:     cache.New(),
		rules:     rs,
		bus:       bus,
		snapshots: snapshots,
		logger:    logger,
	}
}

// WarmStart 从快照预热缓存
// 重启后首轮拉取完成前即可提供（陈旧）数据。
func (s *Service) WarmStart() {
	if s.snapshots == nil {
		return
	}

	entries, err := s.snapshots.LoadAll()
	if err != nil {
		s.logger.Warn("failed to load snapshots", zap.Error(err))
		return
	}

	for _, entry := range entries {
		if _, ok := model.ParseSheetID(string(entry.SheetID)); !ok {
			continue
		}
		s.cache.SetAt(entry.SheetID, entry.Rows, entry.FetchedAt)
	}

	metrics.CachedSheets.Set(float64(s.cache.Len()))
	s.logger.Info("cache warmed from snapshots", zap.Int("sheets", len(entries)))
}

// GetSheetData 获取一张表的行数据
// useCache 为真且缓存命中时直接返回缓存，不发起网络请求。
// 否则拉取、归一化、校验并写入缓存，发布 data:updated 通知。
// 拉取或归一化失败时：有缓存则告警并回退到（可能陈旧的）缓存；
// 无缓存则发布 data:error 通知并把失败返回给调用方。
func (s *Service) GetSheetData(ctx context.Context, id model.SheetID, useCache bool) ([]model.Row, error) {
	if useCache {
		if entry, ok := s.cache.Get(id); ok {
			metrics.FetchesTotal.WithLabelValues(string(id), metrics.OutcomeCacheHit).Inc()
			return entry.Rows, nil
		}
	}

	rows, dropped, err := s.fetch(ctx, id)
	if err != nil {
		if entry, ok := s.cache.Get(id); ok {
			s.logger.Warn("fetch failed, serving stale cache",
				zap.String("sheet", string(id)),
				zap.Time("fetchedAt", entry.FetchedAt),
				zap.Error(err),
			)
			s.bus.Publish(event.KindDataUpdated, event.DataUpdated{
				SheetID:   id,
				Rows:      entry.Rows,
				Timestamp: entry.FetchedAt,
				Stale:     true,
			})
			metrics.FetchesTotal.WithLabelValues(string(id), metrics.OutcomeStaleFallback).Inc()
			return entry.Rows, nil
		}

		s.logger.Error("fetch failed with no cache",
			zap.String("sheet", string(id)),
			zap.Error(err),
		)
		s.bus.Publish(event.KindDataError, event.DataError{
			SheetID: id,
			Message: err.Error(),
		})
		metrics.FetchesTotal.WithLabelValues(string(id), metrics.OutcomeError).Inc()
		return nil, err
	}

	entry := s.cache.Set(id, rows)
	metrics.CachedSheets.Set(float64(s.cache.Len()))
	metrics.FetchesTotal.WithLabelValues(string(id), metrics.OutcomeSuccess).Inc()
	if dropped > 0 {
		metrics.RowsDropped.WithLabelValues(string(id)).Add(float64(dropped))
	}

	if s.snapshots != nil {
		if err := s.snapshots.Save(id, rows, entry.FetchedAt); err != nil {
			s.logger.Warn("failed to persist snapshot",
				zap.String("sheet", string(id)),
				zap.Error(err),
			)
		}
	}

	s.bus.Publish(event.KindDataUpdated, event.DataUpdated{
		SheetID:   id,
		Rows:      rows,
		Timestamp: entry.FetchedAt,
		Dropped:   dropped,
	})

	return rows, nil
}

// fetch 拉取、归一化并校验一张表
func (s *Service) fetch(ctx context.Context, id model.SheetID) ([]model.Row, int, error) {
	raw, err := s.src.Fetch(ctx, id)
	if err != nil {
		return nil, 0, err
	}

	rows, err := normalize.Normalize(id, raw)
	if err != nil {
		return nil, 0, err
	}

	required := s.rules.Required(model.TypeOf(id))
	kept, dropped := normalize.Validate(rows, required)
	if dropped > 0 {
		s.logger.Warn("rows dropped by validation",
			zap.String("sheet", string(id)),
			zap.Int("dropped", dropped),
			zap.Int("kept", len(kept)),
		)
	}

	return kept, dropped, nil
}

// RefreshAll 并发强制刷新全部已知表
// 单表失败彼此隔离：失败的表在结果中对应空序列，不影响其余表。
// 全部结束后发布一条 data:refresh-complete 通知。本方法自身不返回错误。
func (s *Service) RefreshAll(ctx context.Context) map[model.SheetID][]model.Row {
	runID := uuid.NewString()
	start := time.Now()
	sheets := model.AllSheets()

	results := make(map[model.SheetID][]model.Row, len(sheets))
	var failed []model.SheetID

	var wg sync.WaitGroup
	var mu sync.Mutex
	for _, id := range sheets {
		wg.Add(1)
		go func(id model.SheetID) {
			defer wg.Done()

			rows, err := s.GetSheetData(ctx, id, false)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				results[id] = []model.Row{}
				failed = append(failed, id)
				return
			}
			results[id] = rows
		}(id)
	}
	wg.Wait()

	duration := time.Since(start)
	metrics.RefreshDuration.Observe(duration.Seconds())

	s.bus.Publish(event.KindRefreshComplete, event.RefreshComplete{
		RunID:    runID,
		Results:  results,
		Failed:   failed,
		Duration: duration,
	})

	s.logger.Info("refresh complete",
		zap.String("runId", runID),
		zap.Int("sheets", len(sheets)),
		zap.Int("failed", len(failed)),
		zap.Duration("duration", duration),
	)

	return results
}

// LastFetchTime 某张表最近一次成功拉取的时间
func (s *Service) LastFetchTime(id model.SheetID) (time.Time, bool) {
	return s.cache.LastFetch(id)
}

// CachedSheetCount 当前缓存的表数量
func (s *Service) CachedSheetCount() int {
	return s.cache.Len()
}
