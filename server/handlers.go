package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mercado-pricer/models"
	"mercado-pricer/storage"
)

// ErrorBody is the standardized error object returned for request-level
// failures. Pipeline-level failures never use it: they come back inside a
// 200 envelope with final_recommendation null and a non-empty error list.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

func fail(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: ErrorBody{Code: code, Message: message}})
}

// batchRequest is the body of POST /api/analyze/batch.
type batchRequest struct {
	Products []models.ProductInput `json:"products"`
}

func validateInput(in models.ProductInput) (code, message string) {
	if in.Input == "" {
		return "missing_input", "input is required: a product description or marketplace URL"
	}
	if in.Cost <= 0 {
		return "invalid_cost", "cost must be greater than zero"
	}
	return "", ""
}

// handleAnalyze runs the full pipeline for one product. Structural
// validation is the only 4xx path; everything downstream degrades into the
// result envelope.
func (s *Server) handleAnalyze(c *gin.Context) {
	var input models.ProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		fail(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if code, msg := validateInput(input); code != "" {
		fail(c, http.StatusBadRequest, code, msg)
		return
	}

	result := s.pipeline.Analyze(c.Request.Context(), input)
	c.JSON(http.StatusOK, result)
}

// handleAnalyzeBatch fans the pipeline out across independent products.
func (s *Server) handleAnalyzeBatch(c *gin.Context) {
	var req batchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "invalid_body", err.Error())
		return
	}
	if len(req.Products) == 0 {
		fail(c, http.StatusBadRequest, "missing_products", "products must not be empty")
		return
	}
	for _, in := range req.Products {
		if code, msg := validateInput(in); code != "" {
			fail(c, http.StatusBadRequest, code, msg)
			return
		}
	}

	batch := s.pipeline.AnalyzeBatch(c.Request.Context(), req.Products)
	c.JSON(http.StatusOK, batch)
}

// handleStatus reports component readiness.
func (s *Server) handleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"components": gin.H{
			"scraper":     "ready",
			"classifier":  "ready",
			"statistics":  "ready",
			"recommender": "ready",
		},
		"gemini_configured":  s.cfg.GeminiAPIKey != "",
		"storage_configured": s.store != nil,
	})
}

// handleRecommendations serves the most recent stored recommendations.
func (s *Server) handleRecommendations(c *gin.Context) {
	if s.store == nil {
		fail(c, http.StatusServiceUnavailable, "storage_disabled", "persistence is not configured")
		return
	}

	limit := 20
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	records, err := s.store.FetchRecent(limit)
	if err != nil {
		s.logger.Error("[server] Fetch recommendations failed: %v", err)
		fail(c, http.StatusInternalServerError, "storage_error", "could not fetch recommendations")
		return
	}
	if records == nil {
		records = []*storage.RecommendationRecord{}
	}
	c.JSON(http.StatusOK, gin.H{"recommendations": records, "count": len(records)})
}
