package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockboard/internal/model"
	"stockboard/internal/normalize"
	"stockboard/internal/source"
)

// sheetStatus 单表状态
type sheetStatus struct {
	SheetID   model.SheetID `json:"sheetId"`
	Cached    bool          `json:"cached"`
	FetchedAt *time.Time    `json:"fetchedAt,omitempty"`
}

// getStatus 系统状态
func (s *Server) getStatus(c *gin.Context) {
	sheets := make([]sheetStatus, 0, len(model.AllSheets()))
	for _, id := range model.AllSheets() {
		st := sheetStatus{SheetID: id}
		if t, ok := s.svc.LastFetchTime(id); ok {
			st.Cached = true
			st.FetchedAt = &t
		}
		sheets = append(sheets, st)
	}

	c.JSON(http.StatusOK, gin.H{
		"cachedSheets": s.svc.CachedSheetCount(),
		"sheets":       sheets,
	})
}

// getSheet 获取单表数据
// 查询参数 cache=false 时强制重新拉取。
func (s *Server) getSheet(c *gin.Context) {
	id, ok := model.ParseSheetID(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown sheet: " + c.Param("id")})
		return
	}

	useCache := c.Query("cache") != "false"

	rows, err := s.svc.GetSheetData(c.Request.Context(), id, useCache)
	if err != nil {
		status := http.StatusInternalServerError
		var te *source.TransportError
		var ve *normalize.ValidationError
		switch {
		case errors.As(err, &te):
			status = http.StatusBadGateway
		case errors.As(err, &ve):
			status = http.StatusUnprocessableEntity
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"sheetId": id,
		"rows":    rows,
		"count":   len(rows),
	})
}

// refresh 强制全量刷新
func (s *Server) refresh(c *gin.Context) {
	results := s.svc.RefreshAll(c.Request.Context())

	counts := make(map[model.SheetID]int, len(results))
	for id, rows := range results {
		counts[id] = len(rows)
	}

	c.JSON(http.StatusOK, gin.H{"counts": counts})
}

// getDashboard 获取看板聚合
func (s *Server) getDashboard(c *gin.Context) {
	agg, err := s.agg.Aggregate(c.Request.Context())
	if err != nil {
		s.logger.Error("dashboard aggregation failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, agg)
}

// exportDashboard 导出看板数据为 xlsx
func (s *Server) exportDashboard(c *gin.Context) {
	agg, err := s.agg.Aggregate(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	name, err := s.exporter.Export(agg)
	if err != nil {
		s.logger.Error("export failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"file": name,
		"url":  "/exports/" + name,
	})
}

// getEvents 最近的通知（供轮询式前端使用）
func (s *Server) getEvents(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"events": s.bus.Recent()})
}
