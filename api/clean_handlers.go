package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"goclean/domain/core"
	"goclean/internal/anomaly"
	"goclean/internal/cleaning"
	apperrors "goclean/internal/errors"
	"goclean/internal/session"
)

type cleanRequest struct {
	SessionID string                 `json:"session_id" binding:"required"`
	Category  string                 `json:"category" binding:"required"`
	Method    string                 `json:"method" binding:"required"`
	Column    string                 `json:"column"`
	Params    map[string]interface{} `json:"parameters"`
}

func (s *Server) handleCleaningMethods(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"methods": s.dispatcher.Methods()})
}

func (s *Server) handleClean(c *gin.Context) {
	var req cleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	sess, err := s.store.GetWithData(core.SessionID(req.SessionID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	result, err := s.dispatcher.Apply(c.Request.Context(), sess, req.Category, req.Method, req.Column, req.Params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleCleanPreview(c *gin.Context) {
	var req cleanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	sess, err := s.store.GetWithData(core.SessionID(req.SessionID))
	if err != nil {
		s.respondError(c, err)
		return
	}
	preview, err := s.dispatcher.DryRun(sess, req.Category, req.Method, req.Column, req.Params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, preview)
}

func (s *Server) handleAnomalyDetect(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	column := c.Query("column")
	var reports []*anomaly.ColumnReport
	err = sess.Do(func() error {
		if column != "" {
			rep, serr := anomaly.ScanColumn(sess.Frame(), sess.Registry(), column)
			if serr != nil {
				return serr
			}
			reports = []*anomaly.ColumnReport{rep}
			return nil
		}
		var serr error
		reports, serr = anomaly.ScanAll(sess.Frame(), sess.Registry())
		return serr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	if reports == nil {
		reports = []*anomaly.ColumnReport{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

func (s *Server) handleAnomalyFix(c *gin.Context) {
	var req struct {
		SessionID   string `json:"session_id" binding:"required"`
		Column      string `json:"column" binding:"required"`
		Action      string `json:"action" binding:"required"`
		RowIndices  []int  `json:"row_indices" binding:"required"`
		Replacement string `json:"replacement"`
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
	result, err := s.dispatcher.FixAnomalies(c.Request.Context(), sess, req.Column, req.Action, req.RowIndices, req.Replacement)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleDuplicatesDetect(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req struct {
		Columns []string `json:"columns"`
	}
	_ = c.ShouldBindJSON(&req)

	var report *anomaly.DuplicateReport
	err = sess.Do(func() error {
		var derr error
		report, derr = anomaly.FindDuplicates(sess.Frame(), req.Columns)
		return derr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleDuplicatesRemove(c *gin.Context) {
	var req struct {
		SessionID string   `json:"session_id" binding:"required"`
		Columns   []string `json:"columns"`
		Keep      string   `json:"keep"`
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
	keep := req.Keep
	if keep == "" {
		keep = "first"
	}
	params := cleaning.Params{"keep": keep}
	if len(req.Columns) > 0 {
		params["columns"] = req.Columns
	}
	result, err := s.dispatcher.Apply(c.Request.Context(), sess, "data_quality", "remove_duplicates", "", params)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleUndo(c *gin.Context) {
	s.handleTimeTravel(c, (*session.Session).Undo, "undone")
}

func (s *Server) handleRedo(c *gin.Context) {
	s.handleTimeTravel(c, (*session.Session).Redo, "redone")
}

func (s *Server) handleTimeTravel(c *gin.Context, step func(*session.Session) error, verb string) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var st session.Stats
	var canUndo, canRedo bool
	err = sess.Do(func() error {
		if serr := step(sess); serr != nil {
			return serr
		}
		st = sess.Stats()
		canUndo = sess.History().CanUndo()
		canRedo = sess.History().CanRedo()
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  "operation " + verb,
		"stats":    st,
		"can_undo": canUndo,
		"can_redo": canRedo,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var resp gin.H
	_ = sess.Do(func() error {
		h := sess.History()
		resp = gin.H{
			"operations": h.Entries(),
			"can_undo":   h.CanUndo(),
			"can_redo":   h.CanRedo(),
			"undo_depth": h.UndoDepth(),
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}
