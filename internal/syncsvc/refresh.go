package syncsvc

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ScheduleError 定时刷新过程中的异常
// 始终在调度器内部捕获，不会向外传播，也不会终止后续调度。
type ScheduleError struct {
	Cause any
}

// Error 实现 error 接口
func (e *ScheduleError) Error() string {
	return fmt.Sprintf("scheduled refresh failed: %v", e.Cause)
}

// StartAutoRefresh 启动定时全量刷新
// 已有调度时先取消旧调度再启动新调度，任意时刻最多一个活动调度。
// interval 不为正时等价于 StopAutoRefresh。
func (s *Service) StartAutoRefresh(interval time.Duration) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
	}

	if interval <= 0 {
		return
	}

	stopCh := make(chan struct{})
	s.stopCh = stopCh
	go s.refreshLoop(interval, stopCh)

	s.logger.Info("auto refresh started", zap.Duration("interval", interval))
}

// StopAutoRefresh 停止定时刷新，无活动调度时为空操作
func (s *Service) StopAutoRefresh() {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.stopCh != nil {
		close(s.stopCh)
		s.stopCh = nil
		s.logger.Info("auto refresh stopped")
	}
}

// refreshLoop 定时刷新循环
func (s *Service) refreshLoop(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.runScheduledRefresh()
		}
	}
}

// runScheduledRefresh 执行一次定时刷新
// 单次失败只记录日志，不终止调度，下一个周期照常执行。
func (s *Service) runScheduledRefresh() {
	defer func() {
		if r := recover(); r != nil {
			err := &ScheduleError{Cause: r}
			s.logger.Error("scheduled refresh panicked", zap.Error(err))
		}
	}()

	s.RefreshAll(context.Background())
}
