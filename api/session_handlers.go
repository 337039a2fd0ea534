package api

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"goclean/adapters/tabular"
	"goclean/domain/core"
	"goclean/domain/table"
	"goclean/internal/anomaly"
	apperrors "goclean/internal/errors"
	"goclean/internal/profiling"
	"goclean/internal/session"
)

func (s *Server) handleSessionCreate(c *gin.Context) {
	var req struct {
		SessionID string `json:"session_id"`
	}
	// body is optional, an empty one means "mint an id for me"
	_ = c.ShouldBindJSON(&req)
	id := core.SessionID(req.SessionID)
	if id == "" {
		id = core.NewSessionID()
	}
	sess := s.store.GetOrCreate(id)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
	})
}

func (s *Server) handleSessionInfo(c *gin.Context) {
	sess, err := s.store.Get(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	resp := gin.H{
		"session_id": sess.ID,
		"created_at": sess.CreatedAt,
		"has_data":   false,
	}
	_ = sess.Do(func() error {
		if sess.HasData() {
			st := sess.Stats()
			resp["has_data"] = true
			resp["total_rows"] = st.TotalRows
			resp["total_columns"] = st.TotalColumns
			resp["weight_column"] = sess.WeightColumn
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}

// handleSessionWeight designates the survey-weight column. An empty column
// clears the designation.
func (s *Server) handleSessionWeight(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var req struct {
		Column string `json:"column"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, apperrors.InvalidParameters(err.Error()))
		return
	}
	var weight string
	err = sess.Do(func() error {
		if werr := sess.SetWeightColumn(req.Column); werr != nil {
			return werr
		}
		weight = sess.WeightColumn
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"weight_column": weight})
}

func (s *Server) handleSessionReset(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var st session.Stats
	err = sess.Do(func() error {
		if rerr := sess.Reset(); rerr != nil {
			return rerr
		}
		st = sess.Stats()
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	s.logger.Info("[Session] %s reset to pristine dataset", sess.ID)
	c.JSON(http.StatusOK, gin.H{
		"message": "dataset restored to its uploaded state",
		"stats":   st,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	sessionID := core.SessionID(c.Query("session_id"))
	if sessionID == "" {
		sessionID = core.NewSessionID()
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		s.respondError(c, apperrors.InvalidParameters("multipart field \"file\" is required"))
		return
	}
	if fileHeader.Size > s.cfg.Data.MaxUploadBytes {
		s.respondError(c, apperrors.InvalidParameters("file exceeds the upload size limit"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		s.respondError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, s.cfg.Data.MaxUploadBytes+1))
	if err != nil {
		s.respondError(c, err)
		return
	}

	frame, err := tabular.Read(fileHeader.Filename, data)
	if err != nil {
		s.respondError(c, err)
		return
	}

	sess := s.store.GetOrCreate(sessionID)
	var st session.Stats
	err = sess.Do(func() error {
		if lerr := sess.Load(frame); lerr != nil {
			return lerr
		}
		st = sess.Stats()
		return nil
	})
	if err != nil {
		s.respondError(c, err)
		return
	}

	s.logger.Info("[Upload] session %s loaded %q (%d rows, %d columns)",
		sessionID, fileHeader.Filename, st.TotalRows, st.TotalColumns)
	c.JSON(http.StatusOK, gin.H{
		"session_id": sessionID,
		"filename":   fileHeader.Filename,
		"stats":      st,
		"columns":    s.columnListing(sess),
	})
}

// columnListing snapshots the metadata registry for responses. It takes the
// session lock itself, so it must not be called from inside sess.Do.
func (s *Server) columnListing(sess *session.Session) []gin.H {
	var out []gin.H
	_ = sess.Do(func() error {
		r := sess.Registry()
		for _, name := range r.Columns() {
			m, err := r.Get(name)
			if err != nil {
				continue
			}
			out = append(out, gin.H{
				"name":          m.Name,
				"detected_type": m.DetectedType,
				"assigned_type": m.AssignedType,
				"missing_count": m.MissingCount,
				"unique_count":  m.UniqueCount,
				"sample_values": m.SampleValues,
			})
		}
		return nil
	})
	return out
}

func (s *Server) handleDataPage(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(s.cfg.Data.DefaultPageLimit)))
	if limit <= 0 {
		limit = s.cfg.Data.DefaultPageLimit
	}
	if limit > s.cfg.Data.MaxPageLimit {
		limit = s.cfg.Data.MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}

	var page []map[string]table.Value
	var total int
	var columns []string
	_ = sess.Do(func() error {
		page = sess.Frame().Page(offset, limit)
		total = sess.Frame().RowCount()
		columns = sess.Frame().Columns()
		return nil
	})
	if page == nil {
		page = []map[string]table.Value{}
	}
	c.JSON(http.StatusOK, gin.H{
		"columns":    columns,
		"rows":       page,
		"offset":     offset,
		"limit":      limit,
		"total_rows": total,
	})
}

func (s *Server) handleDataStats(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var st session.Stats
	var dup *anomaly.DuplicateReport
	var profiles map[string]*profiling.ColumnProfile
	err = sess.Do(func() error {
		st = sess.Stats()
		var derr error
		dup, derr = anomaly.FindDuplicates(sess.Frame(), nil)
		if derr != nil {
			return derr
		}
		profiles, derr = profiling.ProfileAll(sess.Frame(), sess.Registry())
		return derr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"stats":          st,
		"duplicate_rows": dup.DuplicateRows,
		"columns":        profiles,
	})
}

func (s *Server) handleColumnTypes(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"columns": s.columnListing(sess),
		"types":   table.AllColumnTypes,
	})
}

func (s *Server) handleColumnTypesUpdate(c *gin.Context) {
	var req struct {
		SessionID string            `json:"session_id" binding:"required"`
		Types     map[string]string `json:"types" binding:"required"`
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
	var result profiling.TypeUpdateResult
	_ = sess.Do(func() error {
		result = sess.Registry().SetAssignedTypes(req.Types)
		return nil
	})
	c.JSON(http.StatusOK, gin.H{
		"accepted": result.Accepted,
		"rejected": result.Rejected,
	})
}

func (s *Server) handleAnalyzeColumn(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	column := c.Param("column")
	var profile *profiling.ColumnProfile
	err = sess.Do(func() error {
		var perr error
		profile, perr = profiling.ProfileColumn(sess.Frame(), sess.Registry(), column)
		return perr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

func (s *Server) handleAnalyzeAll(c *gin.Context) {
	sess, err := s.store.GetWithData(core.SessionID(c.Param("id")))
	if err != nil {
		s.respondError(c, err)
		return
	}
	var profiles map[string]*profiling.ColumnProfile
	err = sess.Do(func() error {
		var perr error
		profiles, perr = profiling.ProfileAll(sess.Frame(), sess.Registry())
		return perr
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": profiles})
}
