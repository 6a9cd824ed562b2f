package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// Ensure DraftService implements the interface.
var _ driving.DraftService = (*DraftService)(nil)

// Default generation settings.
const (
	DefaultMaxTokens   = 4000
	DefaultTemperature = 0.1
)

// DraftService hands a run's consolidated artifact to a Generator and keeps
// the reviewed result beside the run's units.
type DraftService struct {
	gather    driving.GatherService
	stores    driven.UnitStoreFactory
	generator driven.Generator
	prompts   driven.PromptStore
	opts      driven.GenerateOptions
}

// NewDraftService creates a draft service. generator may be nil, in which
// case Draft and Refine return domain.ErrGeneratorUnavailable.
func NewDraftService(
	gather driving.GatherService,
	stores driven.UnitStoreFactory,
	generator driven.Generator,
	prompts driven.PromptStore,
	opts driven.GenerateOptions,
) *DraftService {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = DefaultMaxTokens
	}
	return &DraftService{
		gather:    gather,
		stores:    stores,
		generator: generator,
		prompts:   prompts,
		opts:      opts,
	}
}

// Draft produces a Test Plan for epics and Test Cases otherwise.
func (s *DraftService) Draft(ctx context.Context, runID string) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}

	summary, err := s.gather.Summary(ctx, runID)
	if err != nil {
		return "", err
	}
	artifact, err := s.gather.Artifact(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("read artifact: %w", err)
	}

	name := driven.PromptTestCases
	if summary.Run.DocumentType == domain.DocumentTypeTestPlan {
		name = driven.PromptTestPlan
	}

	logger.Info("drafting %s for %s with %s", summary.Run.DocumentType, summary.Run.TicketKey, s.generator.ModelName())
	return s.generate(ctx, name, summary.Run.TicketKey, artifact)
}

// Refine asks the generator to revise draft according to feedback.
func (s *DraftService) Refine(ctx context.Context, runID, draft, feedback string) (string, error) {
	if s.generator == nil {
		return "", domain.ErrGeneratorUnavailable
	}
	if strings.TrimSpace(draft) == "" || strings.TrimSpace(feedback) == "" {
		return "", fmt.Errorf("%w: draft and feedback are required", domain.ErrInvalidInput)
	}

	summary, err := s.gather.Summary(ctx, runID)
	if err != nil {
		return "", err
	}

	logger.Info("refining %s for %s", summary.Run.DocumentType, summary.Run.TicketKey)
	return s.generate(ctx, driven.PromptRefine, draft, strings.TrimSpace(feedback))
}

// Save writes draft as FINAL-<document type>-<ticket>.md in the run's namespace.
func (s *DraftService) Save(ctx context.Context, runID, draft string) (*driving.SavedDraft, error) {
	if strings.TrimSpace(draft) == "" {
		return nil, fmt.Errorf("%w: draft is empty", domain.ErrInvalidInput)
	}
	if s.stores == nil {
		return nil, fmt.Errorf("%w: document store", domain.ErrConfigMissing)
	}

	summary, err := s.gather.Summary(ctx, runID)
	if err != nil {
		return nil, err
	}
	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	name := domain.FinalDocumentName(summary.Run.DocumentType, summary.Run.TicketKey)
	loc, err := store.WriteDocument(ctx, name, strings.TrimSpace(draft)+"\n")
	if err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}

	logger.Info("saved %s", loc)
	return &driving.SavedDraft{
		Location: loc,
		Metrics:  domain.MeasureDraft(summary.Run.DocumentType, draft),
	}, nil
}

// generate fills the named template with args and sends it after the system prompt.
func (s *DraftService) generate(ctx context.Context, name string, args ...any) (string, error) {
	system, err := s.prompts.Load(driven.PromptSystem)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}
	template, err := s.prompts.Load(name)
	if err != nil {
		return "", fmt.Errorf("load prompt: %w", err)
	}

	messages := []driven.ChatMessage{
		{Role: "system", Content: system},
		{Role: "user", Content: fmt.Sprintf(template, args...)},
	}

	text, err := s.generator.Generate(ctx, messages, s.opts)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return strings.TrimSpace(text), nil
}
