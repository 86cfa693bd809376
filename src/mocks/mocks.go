package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/vanta-labs/vanta/src/models"
)

// MockLocalGenerator implements models.LocalGenerator.
type MockLocalGenerator struct {
	mock.Mock
}

func (m *MockLocalGenerator) Load(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockLocalGenerator) Unload() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockLocalGenerator) Loaded() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockLocalGenerator) ModelName() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockLocalGenerator) Generate(ctx context.Context, prompt string, opts models.GenerationOptions) (*models.Generation, error) {
	args := m.Called(ctx, prompt, opts)
	if gen := args.Get(0); gen != nil {
		return gen.(*models.Generation), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockChatProvider implements models.ChatProvider.
type MockChatProvider struct {
	mock.Mock
}

func (m *MockChatProvider) Name() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockChatProvider) Model() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockChatProvider) Chat(ctx context.Context, messages []models.ChatMessage, opts models.GenerationOptions) (*models.ProviderResponse, *models.Failure) {
	args := m.Called(ctx, messages, opts)
	var resp *models.ProviderResponse
	if v := args.Get(0); v != nil {
		resp = v.(*models.ProviderResponse)
	}
	var failure *models.Failure
	if v := args.Get(1); v != nil {
		failure = v.(*models.Failure)
	}
	return resp, failure
}

// MockConversationStore implements models.ConversationStore.
type MockConversationStore struct {
	mock.Mock
}

func (m *MockConversationStore) CreateSession(ctx context.Context) (*models.Session, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConversationStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if s := args.Get(0); s != nil {
		return s.(*models.Session), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockConversationStore) AppendTurn(ctx context.Context, sessionID string, turn models.ConversationTurn) error {
	args := m.Called(ctx, sessionID, turn)
	return args.Error(0)
}

func (m *MockConversationStore) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockConversationStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockResourceSampler implements models.ResourceSampler.
type MockResourceSampler struct {
	mock.Mock
}

func (m *MockResourceSampler) Sample(ctx context.Context) (*models.ResourceSnapshot, error) {
	args := m.Called(ctx)
	if s := args.Get(0); s != nil {
		return s.(*models.ResourceSnapshot), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockQueryProcessor stands in for a track controller.
type MockQueryProcessor struct {
	mock.Mock
}

func (m *MockQueryProcessor) ProcessQuery(ctx context.Context, query string, qctx *models.QueryContext) *models.ModelResponse {
	args := m.Called(ctx, query, qctx)
	if r := args.Get(0); r != nil {
		return r.(*models.ModelResponse)
	}
	return nil
}

// FakeClock is a manually advanced models.Clock.
type FakeClock struct {
	Current time.Time
}

func (c *FakeClock) Now() time.Time { return c.Current }

func (c *FakeClock) Advance(d time.Duration) { c.Current = c.Current.Add(d) }

// StaticSampler returns the same snapshot on every call; handy when a test
// needs a fixed resource picture without mock bookkeeping.
type StaticSampler struct {
	Snapshot models.ResourceSnapshot
}

func (s *StaticSampler) Sample(context.Context) (*models.ResourceSnapshot, error) {
	snap := s.Snapshot
	if snap.Timestamp.IsZero() {
		snap.Timestamp = time.Now()
	}
	return &snap, nil
}
