package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/utils"
)

const (
	// summarizationThreshold is the session token count that triggers
	// history compression.
	summarizationThreshold = 3000

	// recentTurnWindow is kept verbatim; only older turns are compressed.
	recentTurnWindow = 4
)

const summaryPrompt = "Summarize the following conversation in at most " +
	"three sentences, keeping any facts about the user that were " +
	"established. Reply with the summary only.\n\n%s"

// Responder is the slice of a track controller the summarizer needs.
type Responder interface {
	ProcessQuery(ctx context.Context, query string, qctx *models.QueryContext) *models.ModelResponse
}

// Summarizer compresses long conversation histories: older turns are
// replaced by a single model-written summary turn, bounding the token cost
// of prompt building without losing established facts.
type Summarizer struct {
	responder Responder
}

func NewSummarizer(responder Responder) *Summarizer {
	return &Summarizer{responder: responder}
}

func (s *Summarizer) ShouldSummarize(session *models.Session) bool {
	return session.TotalTokens > summarizationThreshold && len(session.Turns) > recentTurnWindow
}

// Summarize rewrites the session in place: turns older than the recent
// window collapse into one summary turn. A failed summary call leaves the
// session untouched.
func (s *Summarizer) Summarize(ctx context.Context, session *models.Session) (*models.Session, error) {
	if !s.ShouldSummarize(session) {
		return session, nil
	}

	split := len(session.Turns) - recentTurnWindow
	older := session.Turns[:split]
	recent := session.Turns[split:]

	var b strings.Builder
	for _, turn := range older {
		fmt.Fprintf(&b, "User: %s\n", turn.UserMessage)
		if turn.AssistantMessage != "" {
			fmt.Fprintf(&b, "Assistant: %s\n", turn.AssistantMessage)
		}
	}

	resp := s.responder.ProcessQuery(ctx, fmt.Sprintf(summaryPrompt, b.String()), nil)
	if !resp.Success() {
		reason := "empty response"
		if resp.Failure != nil {
			reason = resp.Failure.Error()
		}
		log.WithField("session_id", session.SessionID).Warn("summarization failed, keeping full history")
		return session, fmt.Errorf("summarization failed: %s", reason)
	}

	summaryTurn := models.ConversationTurn{
		UserMessage:      "(conversation so far)",
		AssistantMessage: resp.Text,
		Timestamp:        time.Now(),
	}

	session.Turns = append([]models.ConversationTurn{summaryTurn}, recent...)
	session.TotalTokens = utils.EstimateTokenCount(resp.Text)
	for _, turn := range recent {
		session.TotalTokens += utils.EstimateTokenCount(turn.UserMessage) +
			utils.EstimateTokenCount(turn.AssistantMessage)
	}

	return session, nil
}
