package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/cache"
	"github.com/vanta-labs/vanta/src/dualtrack"
	"github.com/vanta-labs/vanta/src/integration"
	"github.com/vanta-labs/vanta/src/memory"
	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/optimizer"
	"github.com/vanta-labs/vanta/src/router"
)

// AssistRequest is the inbound body for POST /api/v1/assist.
type AssistRequest struct {
	Query     string            `json:"query" binding:"required"`
	SessionID string            `json:"session_id,omitempty"`
	Context   map[string]string `json:"context,omitempty"`
}

// AssistResponse is the outbound shape: the integrated answer plus the
// routing and integration telemetry callers use to understand it.
type AssistResponse struct {
	RequestID  string                `json:"request_id"`
	SessionID  string                `json:"session_id,omitempty"`
	Content    string                `json:"content"`
	Source     models.ResponseSource `json:"source"`
	Strategy   string                `json:"integration_strategy"`
	Path       models.ProcessingPath `json:"processing_path"`
	Confidence float64               `json:"routing_confidence"`
	Reasoning  string                `json:"routing_reasoning"`
	Similarity *float64              `json:"similarity_score,omitempty"`
	LatencyMs  float64               `json:"latency_ms"`
	CacheHit   bool                  `json:"cache_hit"`
}

// AssistHandler orchestrates one request through the pipeline: session
// lookup, routing, dual-track execution, integration, and bookkeeping.
type AssistHandler struct {
	router     *router.ProcessingRouter
	executor   *dualtrack.Executor
	integrator *integration.Integrator
	optimizer  *optimizer.DualTrackOptimizer
	sessions   *memory.SessionStore
	respCache  *cache.ResponseCache
}

func NewAssistHandler(
	r *router.ProcessingRouter,
	executor *dualtrack.Executor,
	integrator *integration.Integrator,
	opt *optimizer.DualTrackOptimizer,
	sessions *memory.SessionStore,
	respCache *cache.ResponseCache,
) *AssistHandler {
	return &AssistHandler{
		router:     r,
		executor:   executor,
		integrator: integrator,
		optimizer:  opt,
		sessions:   sessions,
		respCache:  respCache,
	}
}

func (h *AssistHandler) HandleAssist(c *gin.Context) {
	var req AssistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	requestID := uuid.New().String()
	start := time.Now()

	qctx := &models.QueryContext{Retrieved: req.Context}
	if req.SessionID != "" && h.sessions != nil {
		session, err := h.sessions.GetSession(ctx, req.SessionID)
		if err == memory.ErrSessionNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "session not found"})
			return
		}
		if err != nil {
			log.WithError(err).Warn("session lookup failed, answering without history")
		} else {
			qctx.History = session.Turns
		}
	}

	rec := h.optimizer.GetOptimizationRecommendations()

	// Cached answers are only valid for context-free queries.
	if rec.CacheEnabled && h.respCache != nil && qctx.Empty() {
		if cached, err := h.respCache.Get(ctx, req.Query); err == nil && cached != nil {
			c.JSON(http.StatusOK, AssistResponse{
				RequestID: requestID,
				Content:   cached.Content,
				Source:    cached.Source,
				Strategy:  cached.Strategy,
				LatencyMs: float64(time.Since(start).Milliseconds()),
				CacheHit:  true,
			})
			return
		}
	}

	h.optimizer.RecordRequestStart(requestID, req.Query)

	decision := h.router.DeterminePath(req.Query, qctx)
	localResp, apiResp := h.executor.Execute(ctx, &decision, req.Query, qctx)
	result := h.integrator.IntegrateResponses(localResp, apiResp, decision.Path)

	h.optimizer.RecordRequestCompletion(requestID, decision.Path, localResp, apiResp, &result)

	if req.SessionID != "" && h.sessions != nil {
		turn := models.ConversationTurn{
			UserMessage:      req.Query,
			AssistantMessage: result.Content,
			Timestamp:        time.Now(),
		}
		if err := h.sessions.AppendTurn(ctx, req.SessionID, turn); err != nil {
			log.WithError(err).Warn("failed to append conversation turn")
		}
	}

	if rec.CacheEnabled && h.respCache != nil && qctx.Empty() {
		if err := h.respCache.Set(ctx, req.Query, &result); err != nil {
			log.WithError(err).Debug("response cache write failed")
		}
	}

	c.JSON(http.StatusOK, AssistResponse{
		RequestID:  requestID,
		SessionID:  req.SessionID,
		Content:    result.Content,
		Source:     result.Source,
		Strategy:   result.Strategy,
		Path:       decision.Path,
		Confidence: decision.Confidence,
		Reasoning:  decision.Reasoning,
		Similarity: result.SimilarityScore,
		LatencyMs:  float64(time.Since(start).Milliseconds()),
	})
}

func (h *AssistHandler) HandleMetrics(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"metrics": h.optimizer.Metrics.Summary(""),
		"routing": h.router.GetRoutingStats(),
	})
}

func (h *AssistHandler) HandleStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"optimization":    h.optimizer.GetOptimizationStatus(),
		"recommendations": h.optimizer.GetOptimizationRecommendations(),
	})
}

func (h *AssistHandler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "healthy",
		"timestamp": time.Now(),
	})
}
