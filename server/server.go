package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"mercado-pricer/config"
	"mercado-pricer/models"
	"mercado-pricer/storage"
	"mercado-pricer/utils"
)

// Analyzer is the pipeline surface the API depends on.
type Analyzer interface {
	Analyze(ctx context.Context, input models.ProductInput) *models.PipelineResult
	AnalyzeBatch(ctx context.Context, inputs []models.ProductInput) *models.BatchResult
}

// RecommendationStore serves stored recommendations back to callers.
type RecommendationStore interface {
	FetchRecent(limit int) ([]*storage.RecommendationRecord, error)
}

// Server exposes the pricing pipeline over HTTP.
type Server struct {
	cfg      *config.Config
	logger   *utils.Logger
	pipeline Analyzer
	store    RecommendationStore
	engine   *gin.Engine
}

// New builds the router. store may be nil when persistence is disabled.
func New(cfg *config.Config, logger *utils.Logger, pipeline Analyzer, store RecommendationStore) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		pipeline: pipeline,
		store:    store,
		engine:   gin.New(),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger())

	api := s.engine.Group("/api")
	api.POST("/analyze", s.handleAnalyze)
	api.POST("/analyze/batch", s.handleAnalyzeBatch)
	api.GET("/status", s.handleStatus)
	api.GET("/recommendations", s.handleRecommendations)

	return s
}

// Run starts serving on the configured address, blocking until shutdown.
func (s *Server) Run() error {
	s.logger.Info("[server] Listening on %s", s.cfg.HTTPAddr)
	return s.engine.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router; used by tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.Info("[server] %s %s → %d (%v)",
			c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}
