package services

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
)

var fixedNow = time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

// mockTracker serves tickets and attachment bytes from maps.
type mockTracker struct {
	mu          sync.Mutex
	tickets     map[string]*domain.Ticket
	parents     map[string]string
	parentErr   error
	getErr      error
	files       map[string][]byte
	downloadErr map[string]error
	gates       map[string]chan struct{}
	downloads   []string
}

func newMockTracker() *mockTracker {
	return &mockTracker{
		tickets:     make(map[string]*domain.Ticket),
		parents:     make(map[string]string),
		files:       make(map[string][]byte),
		downloadErr: make(map[string]error),
		gates:       make(map[string]chan struct{}),
	}
}

func (m *mockTracker) addTicket(t *domain.Ticket) {
	m.tickets[t.Key] = t
}

func (m *mockTracker) GetTicket(_ context.Context, key string) (*domain.Ticket, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	t, ok := m.tickets[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t, nil
}

func (m *mockTracker) DownloadAttachment(ctx context.Context, att domain.Attachment) ([]byte, error) {
	m.mu.Lock()
	gate := m.gates[att.Filename]
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.downloads = append(m.downloads, att.Filename)
	if err := m.downloadErr[att.Filename]; err != nil {
		return nil, err
	}
	content, ok := m.files[att.Filename]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return content, nil
}

func (m *mockTracker) FindParent(_ context.Context, key string) (*domain.Ticket, error) {
	if m.parentErr != nil {
		return nil, m.parentErr
	}
	pk, ok := m.parents[key]
	if !ok {
		return nil, domain.ErrNoParent
	}
	return m.tickets[pk], nil
}

// mockWiki serves pages by id.
type mockWiki struct {
	pages map[string]*domain.WikiPage
	err   error
	calls []string
}

func (m *mockWiki) GetPage(_ context.Context, id string) (*domain.WikiPage, error) {
	m.calls = append(m.calls, id)
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.pages[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

// mockWeb serves responses by URL.
type mockWeb struct {
	responses map[string]*domain.WebContent
	timeouts  []time.Duration
}

func (m *mockWeb) Get(_ context.Context, url string, timeout time.Duration) (*domain.WebContent, error) {
	m.timeouts = append(m.timeouts, timeout)
	r, ok := m.responses[url]
	if !ok {
		return nil, errors.New("status 404")
	}
	return r, nil
}

// mockExtractor returns content as text. Content with a NUL byte or
// only whitespace fails extraction.
type mockExtractor struct {
	mu      sync.Mutex
	formats []domain.Format
}

func (m *mockExtractor) Extract(_ context.Context, raw *domain.RawDocument) (string, bool) {
	return m.decode(raw.Content)
}

func (m *mockExtractor) ExtractAs(_ context.Context, format domain.Format, raw *domain.RawDocument) (string, bool) {
	m.mu.Lock()
	m.formats = append(m.formats, format)
	m.mu.Unlock()
	return m.decode(raw.Content)
}

func (m *mockExtractor) Register(driven.Normaliser) {}

func (m *mockExtractor) decode(content []byte) (string, bool) {
	if bytes.IndexByte(content, 0) >= 0 || strings.TrimSpace(string(content)) == "" {
		return "", false
	}
	return string(content), true
}

// failingStore rejects every append.
type failingStore struct {
	driven.UnitStore
}

func (failingStore) Append(context.Context, domain.DocumentUnit) (domain.DocumentUnit, error) {
	return domain.DocumentUnit{}, errors.New("disk full")
}

// hookStore calls onAppend after each successful append.
type hookStore struct {
	driven.UnitStore
	onAppend func(domain.DocumentUnit)
}

func (h *hookStore) Append(ctx context.Context, unit domain.DocumentUnit) (domain.DocumentUnit, error) {
	stored, err := h.UnitStore.Append(ctx, unit)
	if err == nil && h.onAppend != nil {
		h.onAppend(stored)
	}
	return stored, err
}

// hookFactory wraps every opened store in a hookStore.
type hookFactory struct {
	driven.UnitStoreFactory
	onAppend func(domain.DocumentUnit)
}

func (h *hookFactory) Open(ctx context.Context, runID string) (driven.UnitStore, error) {
	s, err := h.UnitStoreFactory.Open(ctx, runID)
	if err != nil {
		return nil, err
	}
	return &hookStore{UnitStore: s, onAppend: h.onAppend}, nil
}

// mockGenerator records the messages it receives.
type mockGenerator struct {
	messages []driven.ChatMessage
	opts     driven.GenerateOptions
	reply    string
	err      error
}

func (m *mockGenerator) Generate(_ context.Context, msgs []driven.ChatMessage, opts driven.GenerateOptions) (string, error) {
	m.messages = msgs
	m.opts = opts
	return m.reply, m.err
}

func (m *mockGenerator) ModelName() string { return "mock-model" }

// mockPrompts serves fixed templates.
type mockPrompts struct {
	prompts map[string]string
}

func (m *mockPrompts) Load(name string) (string, error) {
	p, ok := m.prompts[name]
	if !ok {
		return "", domain.ErrNotFound
	}
	return p, nil
}

func (m *mockPrompts) Reload() {}

func unitBodies(units []domain.DocumentUnit) []string {
	out := make([]string, len(units))
	for i := range units {
		out[i] = units[i].Body
	}
	return out
}
