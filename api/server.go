// Package api exposes the cleaning service over REST. Handlers are thin:
// they parse the request, resolve the session, and delegate to the session,
// dispatcher, analyzer and adapter layers.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"goclean/internal"
	"goclean/internal/cleaning"
	"goclean/internal/config"
	"goclean/internal/session"
	"goclean/internal/stats"
	"goclean/ports"
)

// Server wires the HTTP surface to the domain services.
type Server struct {
	router     *gin.Engine
	cfg        *config.Config
	store      *session.Store
	dispatcher *cleaning.Dispatcher
	analyzer   *stats.Analyzer
	audit      ports.AuditSink
	logger     *internal.Logger
}

// NewServer builds the router and registers every route.
func NewServer(cfg *config.Config, store *session.Store, audit ports.AuditSink, logger *internal.Logger) *Server {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	gin.SetMode(cfg.Server.GinMode)
	dispatcher := cleaning.NewDispatcher(audit, logger)
	dispatcher.SampleRows = cfg.Data.PreviewSampleN
	s := &Server{
		router:     gin.Default(),
		cfg:        cfg,
		store:      store,
		dispatcher: dispatcher,
		analyzer:   stats.NewAnalyzer(stats.DefaultAlpha),
		audit:      audit,
		logger:     logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.MaxMultipartMemory = s.cfg.Data.MaxUploadBytes

	api := s.router.Group("/api")
	{
		api.GET("/health", s.handleHealth)

		api.POST("/session/create", s.handleSessionCreate)
		api.GET("/session/:id", s.handleSessionInfo)
		api.POST("/session/:id/reset", s.handleSessionReset)
		api.POST("/session/:id/weight", s.handleSessionWeight)

		api.POST("/upload", s.handleUpload)
		api.GET("/data/:id", s.handleDataPage)
		api.GET("/data/:id/stats", s.handleDataStats)

		api.GET("/column-types/:id", s.handleColumnTypes)
		api.POST("/column-types/update", s.handleColumnTypesUpdate)

		api.POST("/analyze/:id", s.handleAnalyzeAll)
		api.POST("/analyze/:id/:column", s.handleAnalyzeColumn)

		api.GET("/cleaning-methods", s.handleCleaningMethods)
		api.POST("/clean", s.handleClean)
		api.POST("/clean/preview", s.handleCleanPreview)

		api.POST("/anomaly/detect/:id", s.handleAnomalyDetect)
		api.POST("/anomaly/fix", s.handleAnomalyFix)
		api.POST("/duplicates/detect/:id", s.handleDuplicatesDetect)
		api.POST("/duplicates/remove", s.handleDuplicatesRemove)

		api.POST("/undo/:id", s.handleUndo)
		api.POST("/redo/:id", s.handleRedo)
		api.GET("/history/:id", s.handleHistory)

		api.GET("/hypothesis/tests", s.handleHypothesisTests)
		api.POST("/hypothesis/recommend/:id", s.handleHypothesisRecommend)
		api.POST("/hypothesis/test", s.handleHypothesisTest)

		api.GET("/balance/methods", s.handleBalanceMethods)
		api.POST("/balance", s.handleBalance)

		api.GET("/export/data/:id", s.handleExportData)
		api.POST("/export/config/:id", s.handleExportConfig)
		api.POST("/import/config/:id", s.handleImportConfig)
		api.GET("/report/:id", s.handleReport)
	}
}

// Run serves until the context is canceled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    ":" + s.cfg.Server.Port,
		Handler: s.router,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("[Server] listening on :%s", s.cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Router exposes the gin engine, used by httptest in the handler tests.
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"sessions": s.store.Count(),
	})
}
