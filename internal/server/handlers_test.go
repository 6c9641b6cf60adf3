package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"

	"stockboard/internal/dashboard"
	"stockboard/internal/event"
	"stockboard/internal/export"
	"stockboard/internal/model"
	"stockboard/internal/rules"
	"stockboard/internal/source"
	"stockboard/internal/syncsvc"
)

// stubSource 固定返回的测试数据源
type stubSource struct {
	mu   sync.Mutex
	errs map[model.SheetID]error
}

func (s *stubSource) Fetch(_ context.Context, id model.SheetID) (*model.RawTable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err, ok := s.errs[id]; ok {
		return nil, err
	}

	switch id {
	case model.SheetIssues:
		return &model.RawTable{Keyed: []map[string]any{
			{"issue_id": "I1", "category": "damage"},
		}}, nil
	default:
		return &model.RawTable{Keyed: []map[string]any{}}, nil
	}
}

func (s *stubSource) Name() string { return "stub" }

func newTestServer(t *testing.T, src source.Source) *Server {
	t.Helper()

	rs, err := rules.Load("")
	if err != nil {
		t.Fatalf("failed to load rules: %v", err)
	}

	bus := event.NewBus()
	svc := syncsvc.New(src, rs, bus, nil, zap.NewNop())

	return NewServer(Options{
		Service:    svc,
		Aggregator: dashboard.New(svc, rs, 30),
		Exporter:   export.NewExporter(t.TempDir(), rs),
		Bus:        bus,
		Logger:     zap.NewNop(),
	})
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, nil)
	w := httptest.NewRecorder()
	srv.Router().ServeHTTP(w, req)
	return w
}

// TestGetSheetEndpoint 测试单表查询端点
func TestGetSheetEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubSource{})

	w := doRequest(t, srv, http.MethodGet, "/api/sheets/Issues")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var body struct {
		SheetID string      `json:"sheetId"`
		Rows    []model.Row `json:"rows"`
		Count   int         `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.Count != 1 || body.Rows[0].Field("issue_id") != "I1" {
		t.Errorf("body = %+v, want 1 row I1", body)
	}
}

// TestGetSheetUnknown 测试未知表标识返回 404
func TestGetSheetUnknown(t *testing.T) {
	srv := newTestServer(t, &stubSource{})

	w := doRequest(t, srv, http.MethodGet, "/api/sheets/NoSuchSheet")
	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

// TestGetSheetTransportFailure 测试无缓存的传输失败返回 502
func TestGetSheetTransportFailure(t *testing.T) {
	src := &stubSource{errs: map[model.SheetID]error{
		model.SheetProduction: &source.TransportError{URL: "http://x", Status: 500},
	}}
	srv := newTestServer(t, src)

	w := doRequest(t, srv, http.MethodGet, "/api/sheets/Production")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

// TestRefreshEndpoint 测试全量刷新端点
func TestRefreshEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubSource{})

	w := doRequest(t, srv, http.MethodPost, "/api/refresh")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		Counts map[model.SheetID]int `json:"counts"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if len(body.Counts) != len(model.AllSheets()) {
		t.Errorf("counts has %d keys, want %d", len(body.Counts), len(model.AllSheets()))
	}
}

// TestDashboardEndpoint 测试看板聚合端点
func TestDashboardEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubSource{})

	w := doRequest(t, srv, http.MethodGet, "/api/dashboard")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body %s", w.Code, w.Body.String())
	}

	var agg model.DashboardAggregate
	if err := json.Unmarshal(w.Body.Bytes(), &agg); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if agg.Summary[model.SheetIssues].Count != 1 {
		t.Errorf("Issues count = %d, want 1", agg.Summary[model.SheetIssues].Count)
	}
}

// TestDashboardFailsFast 测试看板端点在类别失败时报 502
func TestDashboardFailsFast(t *testing.T) {
	src := &stubSource{errs: map[model.SheetID]error{
		model.SheetFinishedGoods: errors.New("down"),
	}}
	srv := newTestServer(t, src)

	w := doRequest(t, srv, http.MethodGet, "/api/dashboard")
	if w.Code != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", w.Code)
	}
}

// TestStatusEndpoint 测试状态端点
func TestStatusEndpoint(t *testing.T) {
	srv := newTestServer(t, &stubSource{})

	// 先拉一张表让缓存非空
	doRequest(t, srv, http.MethodGet, "/api/sheets/Issues")

	w := doRequest(t, srv, http.MethodGet, "/api/status")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var body struct {
		CachedSheets int `json:"cachedSheets"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body.CachedSheets != 1 {
		t.Errorf("cachedSheets = %d, want 1", body.CachedSheets)
	}
}
