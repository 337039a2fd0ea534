package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"goclean/adapters/tabular"
	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/balance"
	"goclean/internal/cleaning"
	apperrors "goclean/internal/errors"
	"goclean/internal/history"
	"goclean/internal/profiling"
	"goclean/internal/report"
	"goclean/internal/session"
	"goclean/internal/stats"
)

func (s *Server) handleHypothesisTests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"tests":         stats.TestNames(),
		"default_alpha": stats.DefaultAlpha,
	})
}

func (s *Server) handleHypothesisRecommend(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req struct {
		Column  string `json:"column" binding:"required"`
		Column2 string `json:"column2" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	var rec *stats.Recommendation
	err = sess.Do(func() error {
		var rerr error
		rec, rerr = stats.Recommend(sess.Frame(), sess.Registry(), req.Column, req.Column2)
		return rerr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (s *Server) handleHypothesisTest(c *gin.Context) {
	var req struct {
		SessionID string  `json:"session_id" binding:"required"`
		Alpha     float64 `json:"alpha"`
		stats.Request
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	sess, err := s.store.GetWithData(core.SessionID(req.SessionID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	analyzer := s.analyzer
	if req.Alpha > 0 {
		analyzer = stats.NewAnalyzer(req.Alpha)
	}
	var result *stats.Result
	err = sess.Do(func() error {
		var rerr error
		result, rerr = analyzer.Run(sess.Frame(), req.Request)
		return rerr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleBalanceMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": balance.Methods()})
}

func (s *Server) handleBalance(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id" binding:"required"`
		Target    string `json:"target_column" binding:"required"`
		Method    string `json:"method" binding:"required"`
		Seed      int64  `json:"seed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	sess, err := s.store.GetWithData(core.SessionID(req.SessionID))
	if err != nil {
		s.respondError(c, err)
		return
	}

	var before []balance.ClassCount
	err = sess.Do(func() error {
		if !sess.Frame().HasColumn(req.Target) {
			return core.NewColumnNotFoundError(req.Target)
		}
		var derr error
		before, derr = balance.Distribution(sess.Frame(), req.Target)
		return derr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	params := cleaning.Params{"target_column": req.Target, "method": req.Method}
	fn := func(f *table.Frame, _ string, _ cleaning.Params) (*table.Frame, int, error) {
		return balance.Apply(f, req.Target, req.Method, req.Seed)
	}
	result, err := s.dispatcher.ApplyFrameWide(c.Request.Context(), sess, history.CategoryBalance, req.Method, params, fn)
	if err != nil {
		s.respondError(c, err)
		return
	}

	var after []balance.ClassCount
	_ = sess.Do(func() error {
		after, _ = balance.Distribution(sess.Frame(), req.Target)
		return nil
	})
	c.JSON(http.StatusOK, gin.H{
		"result":              result,
		"distribution_before": before,
		"distribution_after":  after,
	})
}

func (s *Server) handleExportData(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	format := c.DefaultQuery("format", "csv")

	var data []byte
	var contentType string
	err = sess.Do(func() error {
		var eerr error
		data, contentType, eerr = tabular.Export(sess.Frame(), format)
		return eerr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	filename := fmt.Sprintf("cleaned_data.%s", format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

// sessionConfig is the portable piece of a session: assigned types and the
// operation log, without any data. Re-importing replays the types and keeps
// the log for reference.
type sessionConfig struct {
	ExportedAt    time.Time         `json:"exported_at"`
	AssignedTypes map[string]string `json:"assigned_types"`
	WeightColumn  string            `json:"weight_column,omitempty"`
	Operations    []*history.Record `json:"operations"`
}

func (s *Server) handleExportConfig(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	cfg := sessionConfig{ExportedAt: time.Now().UTC(), AssignedTypes: map[string]string{}}
	_ = sess.Do(func() error {
		for col, t := range sess.Registry().TypeMap() {
			cfg.AssignedTypes[col] = string(t)
		}
		cfg.WeightColumn = sess.WeightColumn
		cfg.Operations = sess.History().Entries()
		return nil
	})
	c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleImportConfig(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	raw, err := c.GetRawData()
	if err != nil {
		s.respondError(c, err)
		return
	}
	var cfg sessionConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		s.respondError(c, apperrors.InvalidParameters("config body is not valid JSON"))
		return
	}
	var result profiling.TypeUpdateResult
	var weight string
	_ = sess.Do(func() error {
		result = sess.Registry().SetAssignedTypes(cfg.AssignedTypes)
		// best effort, like the type replay: a stale weight column is skipped
		if werr := sess.SetWeightColumn(cfg.WeightColumn); werr == nil {
			weight = sess.WeightColumn
		}
		return nil
	})
	c.JSON(http.StatusOK, gin.H{
		"accepted":      result.Accepted,
		"rejected":      result.Rejected,
		"weight_column": weight,
	})
}

func (s *Server) handleReport(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var st session.Stats
	var metas []*profiling.ColumnMeta
	var records []*history.Record
	_ = sess.Do(func() error {
		st = sess.Stats()
		r := sess.Registry()
		for _, name := range r.Columns() {
			if m, merr := r.Get(name); merr == nil {
				metas = append(metas, m)
			}
		}
		records = sess.History().Entries()
		return nil
	})

	md := report.Build(st, metas, records, time.Now().UTC())
	switch c.DefaultQuery("format", "markdown") {
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.RenderHTML(md))
	default:
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
	}
}
