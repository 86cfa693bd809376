package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vanta-labs/vanta/src/config"
	"github.com/vanta-labs/vanta/src/models"
	"github.com/vanta-labs/vanta/src/utils"
)

const (
	sessionKeyPrefix = "vanta_session:"
	// maxTurns bounds the stored history; the controllers window it further.
	maxTurns = 20
)

// SessionStore keeps conversation sessions in Redis with a sliding TTL:
// every append refreshes the expiry, so sessions die from inactivity, not
// age.
type SessionStore struct {
	client *redis.Client
	ttl    time.Duration
}

// ErrSessionNotFound marks a lookup for an expired or unknown session.
var ErrSessionNotFound = fmt.Errorf("session not found")

func NewSessionStore(cfg *config.RedisConfig) (*SessionStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &SessionStore{client: client, ttl: ttl}, nil
}

// NewSessionStoreWithClient wires an existing client, used by tests with
// miniredis.
func NewSessionStoreWithClient(client *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionStore{client: client, ttl: ttl}
}

func (s *SessionStore) CreateSession(ctx context.Context) (*models.Session, error) {
	now := time.Now()
	session := &models.Session{
		SessionID:       "sess_" + uuid.New().String(),
		Turns:           []models.ConversationTurn{},
		CreatedAt:       now,
		LastInteraction: now,
	}

	if err := s.save(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *SessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	data, err := s.client.Get(ctx, sessionKeyPrefix+sessionID).Result()
	if err == redis.Nil {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session models.Session
	if err := json.Unmarshal([]byte(data), &session); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &session, nil
}

// AppendTurn adds one completed exchange, trims the stored history to the
// turn cap, and refreshes the session TTL.
func (s *SessionStore) AppendTurn(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return err
	}

	if turn.Timestamp.IsZero() {
		turn.Timestamp = time.Now()
	}
	session.Turns = append(session.Turns, turn)
	session.LastInteraction = time.Now()
	session.TurnCount++
	session.TotalTokens += utils.EstimateTokenCount(turn.UserMessage) +
		utils.EstimateTokenCount(turn.AssistantMessage)

	if len(session.Turns) > maxTurns {
		session.Turns = session.Turns[len(session.Turns)-maxTurns:]
	}

	return s.save(ctx, session)
}

func (s *SessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+sessionID).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// ActiveSessions lists the IDs of live sessions, for the status surface.
func (s *SessionStore) ActiveSessions(ctx context.Context) ([]string, error) {
	keys, err := s.client.Keys(ctx, sessionKeyPrefix+"*").Result()
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	ids := make([]string, len(keys))
	for i, key := range keys {
		ids[i] = key[len(sessionKeyPrefix):]
	}
	return ids, nil
}

func (s *SessionStore) Close() error {
	return s.client.Close()
}

func (s *SessionStore) save(ctx context.Context, session *models.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.client.Set(ctx, sessionKeyPrefix+session.SessionID, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
