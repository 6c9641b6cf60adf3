package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"stockboard/internal/model"
)

// StructuredSource 结构化 API 数据源
// 带凭证访问区间查询端点，响应为表头行加数据行的二维数组。
type StructuredSource struct {
	baseURL       string
	spreadsheetID string
	apiKey        string
	client        *http.Client
	logger        *zap.Logger
}

// NewStructuredSource 创建结构化 API 数据源
func NewStructuredSource(baseURL, spreadsheetID, apiKey string, client *http.Client, logger *zap.Logger) *StructuredSource {
	return &StructuredSource{
		baseURL:       strings.TrimRight(baseURL, "/"),
		spreadsheetID: spreadsheetID,
		apiKey:        apiKey,
		client:        client,
		logger:        logger,
	}
}

// Name 数据源名称
func (s *StructuredSource) Name() string {
	return "structured-api"
}

// valuesResponse 区间查询端点的响应体
type valuesResponse struct {
	Range  string  `json:"range"`
	Values [][]any `json:"values"`
}

// Fetch 拉取一张表的原始数据
func (s *StructuredSource) Fetch(ctx context.Context, sheet model.SheetID) (*model.RawTable, error) {
	reqURL := fmt.Sprintf("%s/%s/values/%s?key=%s",
		s.baseURL,
		url.PathEscape(s.spreadsheetID),
		url.PathEscape(string(sheet)),
		url.QueryEscape(s.apiKey),
	)

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

	var body valuesResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &TransportError{URL: reqURL, Err: fmt.Errorf("decode response: %w", err)}
	}

	matrix := make([][]string, 0, len(body.Values))
	for _, rawRow := range body.Values {
		row := make([]string, 0, len(rawRow))
		for _, cell := range rawRow {
			row = append(row, stringifyCell(cell))
		}
		matrix = append(matrix, row)
	}

	s.logger.Debug("fetched sheet via structured api",
		zap.String("sheet", string(sheet)),
		zap.Int("rows", len(matrix)),
	)

	return &model.RawTable{Matrix: matrix}, nil
}

// stringifyCell 单元格值转字符串
// 区间查询端点可能返回字符串或数值混合的单元格。
func stringifyCell(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprint(t)
	}
}
