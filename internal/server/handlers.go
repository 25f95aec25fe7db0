package server

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/ZanzyTHEbar/karma-compass/internal/analysis"
	"github.com/ZanzyTHEbar/karma-compass/internal/catalog"
	apperrors "github.com/ZanzyTHEbar/karma-compass/internal/errors"
)

// AnalyzeRequest is the POST /analyze body.
type AnalyzeRequest struct {
	BeliefSystems []string               `json:"beliefSystems" binding:"required,min=1,max=16,dive,required"`
	Answers       analysis.SystemAnswers `json:"answers"`
	Profile       analysis.Profile       `json:"profile"`
}

// bindError keeps validator and size errors intact and reports anything
// else from decoding as a malformed body.
func bindError(err error) error {
	var validationErrs validator.ValidationErrors
	var tooLarge *http.MaxBytesError
	if errors.As(err, &validationErrs) || errors.As(err, &tooLarge) {
		return err
	}
	return apperrors.NewValidationError("Malformed request body", map[string]string{"body": err.Error()})
}

// handleAnalyze godoc
//
//	@Summary	Analyze questionnaire answers
//	@Tags		analysis
//	@Accept		json
//	@Produce	json
//	@Param		request	body		AnalyzeRequest	true	"Belief systems, answers and profile"
//	@Success	200		{object}	analysis.AnalysisResult
//	@Failure	400		{object}	apperrors.ErrorResponse
//	@Failure	422		{object}	apperrors.ErrorResponse
//	@Failure	429		{object}	apperrors.ErrorResponse
//	@Router		/analyze [post]
func (s *Server) handleAnalyze(c *gin.Context) {
	start := time.Now()

	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(bindError(err))
		return
	}

	if err := c.Request.Context().Err(); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := s.deps.Analyzer.Analyze(req.BeliefSystems, req.Answers, req.Profile)
	for _, w := range result.Warnings {
		s.deps.Logger.WarningLogger(string(w.Code), nil, "belief_system", w.BeliefSystem)
	}
	if err != nil {
		var analysisErr *analysis.AnalysisError
		if errors.As(err, &analysisErr) {
			for _, w := range analysisErr.Warnings {
				s.deps.Logger.WarningLogger(string(w.Code), nil, "belief_system", w.BeliefSystem)
			}
			s.deps.Metrics.RecordAnalysisFailure(string(analysisErr.Code))
		}
		_ = c.Error(err)
		return
	}

	s.deps.Metrics.RecordAnalysis(result.Primary.ID, result.Confidence)
	s.deps.Logger.AnalysisLogger(req.BeliefSystems, result.Primary.ID, result.Confidence, len(result.Warnings), time.Since(start), false)

	c.JSON(http.StatusOK, result)
}

// handleListKarmaTypes godoc
//
//	@Summary	List karma types
//	@Tags		catalog
//	@Produce	json
//	@Router		/catalog/karma-types [get]
func (s *Server) handleListKarmaTypes(c *gin.Context) {
	types := s.deps.Analyzer.Catalog().KarmaTypes()
	c.JSON(http.StatusOK, gin.H{
		"karmaTypes": types,
		"count":      len(types),
	})
}

// handleGetKarmaType godoc
//
//	@Summary	Get one karma type
//	@Tags		catalog
//	@Produce	json
//	@Param		id	path		string	true	"Karma type id"
//	@Success	200	{object}	catalog.KarmaType
//	@Failure	404	{object}	apperrors.ErrorResponse
//	@Router		/catalog/karma-types/{id} [get]
func (s *Server) handleGetKarmaType(c *gin.Context) {
	id := c.Param("id")
	kt, ok := s.deps.Analyzer.Catalog().KarmaType(id)
	if !ok {
		_ = c.Error(apperrors.NewNotFoundError("karma_type", id))
		return
	}
	c.JSON(http.StatusOK, kt)
}

// questionnaireSummary is the list view of a questionnaire.
type questionnaireSummary struct {
	ID            string                `json:"id"`
	BeliefSystem  string                `json:"beliefSystem"`
	Name          string                `json:"name"`
	ScoringMethod catalog.ScoringMethod `json:"scoringMethod"`
	QuestionCount int                   `json:"questionCount"`
	TrustWeight   float64               `json:"trustWeight"`
}

// handleListQuestionnaires godoc
//
//	@Summary	List questionnaires with their trust weights
//	@Tags		catalog
//	@Produce	json
//	@Router		/catalog/questionnaires [get]
func (s *Server) handleListQuestionnaires(c *gin.Context) {
	questionnaires := s.deps.Analyzer.Catalog().Questionnaires()
	out := make([]questionnaireSummary, 0, len(questionnaires))
	for _, q := range questionnaires {
		out = append(out, questionnaireSummary{
			ID:            q.ID,
			BeliefSystem:  q.BeliefSystem,
			Name:          q.Name,
			ScoringMethod: q.ScoringMethod,
			QuestionCount: len(q.Questions),
			TrustWeight:   s.deps.Analyzer.TrustWeight(q.BeliefSystem),
		})
	}
	c.JSON(http.StatusOK, gin.H{
		"questionnaires": out,
		"count":          len(out),
	})
}

// handleGetQuestionnaire godoc
//
//	@Summary	Get the questionnaire of one belief system
//	@Tags		catalog
//	@Produce	json
//	@Param		system	path		string	true	"Belief system"
//	@Success	200		{object}	catalog.Questionnaire
//	@Failure	404		{object}	apperrors.ErrorResponse
//	@Router		/catalog/questionnaires/{system} [get]
func (s *Server) handleGetQuestionnaire(c *gin.Context) {
	system := c.Param("system")
	q, ok := s.deps.Analyzer.Catalog().Questionnaire(system)
	if !ok {
		_ = c.Error(apperrors.NewNotFoundError("belief_system", system))
		return
	}
	c.JSON(http.StatusOK, q)
}

// handleHealth godoc
//
//	@Summary	Service health
//	@Tags		operations
//	@Produce	json
//	@Router		/health [get]
func (s *Server) handleHealth(c *gin.Context) {
	status := "ok"
	redisStatus := "disabled"
	if s.deps.Redis.IsEnabled() {
		redisStatus = "ok"
		if err := s.deps.Redis.HealthCheck(c.Request.Context()); err != nil {
			// rate limiting continues in memory
			redisStatus = "unavailable"
			status = "degraded"
			s.deps.Logger.WarningLogger("redis_health_check", err)
		}
	}

	cat := s.deps.Analyzer.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   Version,
		"services": gin.H{
			"redis": redisStatus,
		},
		"catalog": gin.H{
			"karma_types":    len(cat.KarmaTypeIDs()),
			"belief_systems": cat.BeliefSystems(),
		},
		"metrics": s.deps.Metrics.GetStats(),
	})
}

func (s *Server) handleMetricsSummary(c *gin.Context) {
	stats := s.deps.Metrics.GetStats()
	stats["compression"] = s.compression.GetStats()
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleCacheStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Cache.Stats())
}

func (s *Server) handleRateLimitStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.deps.Limiter.GetStats())
}
