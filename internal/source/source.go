package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"stockboard/internal/config"
	"stockboard/internal/model"
)

// Source 数据源策略：按表标识拉取原始表格数据
type Source interface {
	Fetch(ctx context.Context, sheet model.SheetID) (*model.RawTable, error)
	Name() string
}

// TransportError 传输错误：非成功状态码或网络/解码失败
type TransportError struct {
	URL    string
	Status int
	Err    error
}

// Error 实现 error 接口
func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("transport error: %s returned status %d", e.URL, e.Status)
	}
	return fmt.Sprintf("transport error: %s: %v", e.URL, e.Err)
}

// Unwrap 返回底层错误
func (e *TransportError) Unwrap() error {
	return e.Err
}

// defaultClient 默认 HTTP 客户端，超时由传输层自行负责
var defaultClient = &http.Client{Timeout: 30 * time.Second}

// Select 按配置选择数据源策略
// 构造期一次性决定：配置了访问凭证走结构化 API，否则走简化 JSON 源。
func Select(cfg config.SourceConfig, client *http.Client, logger *zap.Logger) Source {
	if client == nil {
		client = defaultClient
	}
	if cfg.HasCredential() {
		return NewStructuredSource(cfg.APIBaseURL, cfg.SpreadsheetID, cfg.APIKey, client, logger)
	}
	return NewSimpleSource(cfg.SimpleBaseURL, client, logger)
}
