package pipeline

import (
	"context"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/sells-group/docverify/internal/audit"
	"github.com/sells-group/docverify/internal/imageprep"
	"github.com/sells-group/docverify/internal/model"
	"github.com/sells-group/docverify/pkg/anthropic"
)

// --- Anthropic Mock ---

type mockAnthropicClient struct {
	mock.Mock
}

func (m *mockAnthropicClient) CreateMessage(ctx context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*anthropic.MessageResponse), args.Error(1)
}

func textResponse(text string) *anthropic.MessageResponse {
	return &anthropic.MessageResponse{
		ID:      "msg_test",
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}
}

// The quality call carries a system prompt; the extraction call does not.
var (
	qualityCall    = mock.MatchedBy(func(req anthropic.MessageRequest) bool { return len(req.System) > 0 })
	extractionCall = mock.MatchedBy(func(req anthropic.MessageRequest) bool { return len(req.System) == 0 })
)

// --- Blob Storage Mock ---

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Put(ctx context.Context, name string, data []byte) (string, error) {
	args := m.Called(ctx, name, data)
	return args.String(0), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, ref string) error {
	args := m.Called(ctx, ref)
	return args.Error(0)
}

// --- OCR Mock ---

type mockEngine struct {
	mock.Mock
}

func (m *mockEngine) Recognize(ctx context.Context, image []byte) (string, error) {
	args := m.Called(ctx, image)
	return args.String(0), args.Error(1)
}

// --- Normalizer Stub ---

type passthroughNormalizer struct{}

func (passthroughNormalizer) Normalize(data []byte, mimeType string) imageprep.Result {
	return imageprep.Result{Data: data, MimeType: mimeType}
}

// --- Store Mock ---

type mockStore struct {
	mock.Mock
}

func (m *mockStore) SaveUpload(ctx context.Context, doc model.Document, v model.Verification, events []model.ActivityEvent) error {
	args := m.Called(ctx, doc, v, events)
	return args.Error(0)
}

func (m *mockStore) GetDocument(ctx context.Context, id string) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *mockStore) ListVerifications(ctx context.Context, documentID string) ([]model.Verification, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Verification), args.Error(1)
}

func (m *mockStore) ListActivity(ctx context.Context, documentID string) ([]model.ActivityEvent, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.ActivityEvent), args.Error(1)
}

func (m *mockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *mockStore) Close() error {
	return m.Called().Error(0)
}

// --- Audit Sink ---

type recordingSink struct {
	mu      sync.Mutex
	entries []audit.Entry
}

func (s *recordingSink) Log(_ context.Context, e audit.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, e)
}

func (s *recordingSink) Entries() []audit.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]audit.Entry(nil), s.entries...)
}

func (s *recordingSink) ByLevel(level audit.Level) []audit.Entry {
	var out []audit.Entry
	for _, e := range s.Entries() {
		if e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
