package dualtrack

import (
	"context"
	"strings"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
)

// QueryProcessor is the shape both track controllers share.
type QueryProcessor interface {
	ProcessQuery(ctx context.Context, query string, qctx *models.QueryContext) *models.ModelResponse
}

// SufficiencyPolicy decides, on the staged path, whether the local answer
// is good enough to skip the API call entirely.
type SufficiencyPolicy interface {
	Sufficient(resp *models.ModelResponse) bool
}

// HeuristicSufficiency accepts a local answer that is long enough, ends as
// a completed sentence, and contains no apology or refusal language.
type HeuristicSufficiency struct {
	MinLength int
}

func (h HeuristicSufficiency) Sufficient(resp *models.ModelResponse) bool {
	if !resp.Success() {
		return false
	}
	text := strings.TrimSpace(resp.Text)
	if len(text) < h.MinLength {
		return false
	}
	switch text[len(text)-1] {
	case '.', '!', '?':
	default:
		return false
	}
	lower := strings.ToLower(text)
	for _, marker := range []string{"i'm sorry", "i am sorry", "i don't know", "i do not know", "i cannot", "i can't"} {
		if strings.Contains(lower, marker) {
			return false
		}
	}
	return true
}

// Executor dispatches a routed query onto its processing path and collects
// the per-track responses. A track that did not run comes back nil; a track
// that ran and failed comes back as a structured failure response. The
// integrator downstream handles every combination, so Execute itself never
// errors.
type Executor struct {
	local  QueryProcessor
	api    QueryProcessor
	policy SufficiencyPolicy
}

func NewExecutor(local, api QueryProcessor, cfg *config.IntegrationConfig) *Executor {
	return &Executor{
		local:  local,
		api:    api,
		policy: HeuristicSufficiency{MinLength: cfg.MinResponseLength},
	}
}

// WithSufficiencyPolicy swaps the staged-path gate.
func (e *Executor) WithSufficiencyPolicy(p SufficiencyPolicy) *Executor {
	e.policy = p
	return e
}

// Execute runs the query on the decided path and returns the local and API
// responses, either of which may be nil when that track was not used.
func (e *Executor) Execute(ctx context.Context, decision *models.RoutingDecision, query string, qctx *models.QueryContext) (localResp, apiResp *models.ModelResponse) {
	switch decision.Path {
	case models.PathLocal:
		return e.local.ProcessQuery(ctx, query, qctx), nil

	case models.PathAPI:
		return nil, e.api.ProcessQuery(ctx, query, qctx)

	case models.PathParallel:
		return e.parallel(ctx, query, qctx)

	case models.PathStaged:
		return e.staged(ctx, query, qctx)

	default:
		log.WithField("path", decision.Path).Warn("unknown processing path, using local")
		return e.local.ProcessQuery(ctx, query, qctx), nil
	}
}

// parallel runs both tracks concurrently and waits for both. Each track
// bounds itself by its own timeout, so the join is bounded too.
func (e *Executor) parallel(ctx context.Context, query string, qctx *models.QueryContext) (localResp, apiResp *models.ModelResponse) {
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		localResp = e.local.ProcessQuery(ctx, query, qctx)
	}()
	go func() {
		defer wg.Done()
		apiResp = e.api.ProcessQuery(ctx, query, qctx)
	}()

	wg.Wait()
	return localResp, apiResp
}

// staged runs the local track first and consults the API only when the
// local answer fails the sufficiency gate.
func (e *Executor) staged(ctx context.Context, query string, qctx *models.QueryContext) (localResp, apiResp *models.ModelResponse) {
	localResp = e.local.ProcessQuery(ctx, query, qctx)
	if e.policy.Sufficient(localResp) {
		return localResp, nil
	}

	log.Debug("staged local answer insufficient, escalating to api")
	return localResp, e.api.ProcessQuery(ctx, query, qctx)
}
