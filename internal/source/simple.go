package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"stockboard/internal/model"
)

// SimpleSource 简化 JSON 数据源
// 无凭证访问按表名划分的 JSON 端点，响应为已键控的行对象数组。
type SimpleSource struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewSimpleSource 创建简化 JSON 数据源
func NewSimpleSource(baseURL string, client *http.Client, logger *zap.Logger) *SimpleSource {
	return &SimpleSource{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		logger:  logger,
	}
}

// Name 数据源名称
func (s *SimpleSource) Name() string {
	return "simple-json"
}

// Fetch 拉取一张表的原始数据
func (s *SimpleSource) Fetch(ctx context.Context, sheet model.SheetID) (*model.RawTable, error) {
	reqURL := s.baseURL + "/" + url.PathEscape(string(sheet))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, &TransportError{URL: reqURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{URL: reqURL, Status: resp.StatusCode}
	}

	var keyed []map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&keyed); err != nil {
		// 非 JSON 响应体视为传输错误
		return nil, &TransportError{URL: reqURL, Err: fmt.Errorf("non-JSON body: %w", err)}
	}

	s.logger.Debug("fetched sheet via simple json",
		zap.String("sheet", string(sheet)),
		zap.Int("rows", len(keyed)),
	)

	return &model.RawTable{Keyed: keyed}, nil
}
