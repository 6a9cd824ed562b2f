package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// Ensure GatherService implements the interface.
var _ driving.GatherService = (*GatherService)(nil)

// fetchTask produces exactly one outcome.
type fetchTask func(ctx context.Context) domain.Outcome

// GatherService runs the gathering pipeline and keeps its ledger.
type GatherService struct {
	sources   Sources
	stores    driven.UnitStoreFactory
	ledger    driven.RunLedger
	fetchOpts []FetcherOption
	newID     func() string
	now       func() time.Time
}

// NewGatherService creates a gather service. fetchOpts are applied to every
// Fetcher the service creates.
func NewGatherService(
	sources Sources,
	stores driven.UnitStoreFactory,
	ledger driven.RunLedger,
	fetchOpts ...FetcherOption,
) *GatherService {
	return &GatherService{
		sources:   sources,
		stores:    stores,
		ledger:    ledger,
		fetchOpts: fetchOpts,
		newID:     uuid.NewString,
		now:       time.Now,
	}
}

// Start gathers every source for a ticket.
//
// Phases run in canonical category order and each is a barrier:
// tickets, requirements, design, wiki. Within a phase up to
// opts.Concurrency fetches run at once and append in completion order.
//
//nolint:gocyclo // Orchestration function with necessary sequential steps
func (s *GatherService) Start(
	ctx context.Context,
	input string,
	opts driving.GatherOptions,
) (*driving.GatherResult, error) {
	// 1. Resolve the ticket key
	key, err := ParseTicketKey(input)
	if err != nil {
		return nil, err
	}
	if s.sources.Tracker == nil {
		return nil, fmt.Errorf("%w: ticket tracker", domain.ErrConfigMissing)
	}

	logger.Section("Gathering " + key)

	// 2. Fetch the primary ticket; without it there is no run
	ticket, err := s.sources.Tracker.GetTicket(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("get ticket %s: %w", key, err)
	}

	// 3. Look up the parent epic for non-epics
	var early []domain.Outcome
	var epic *domain.Ticket
	if !ticket.IsEpic() {
		parent, err := s.sources.Tracker.FindParent(ctx, ticket.Key)
		switch {
		case errors.Is(err, domain.ErrNoParent):
			logger.Debug("%s has no parent", ticket.Key)
		case err != nil:
			early = append(early, domain.Failed(ticket.Key, domain.CategoryEpicTicket, ticket.Key,
				fmt.Sprintf("find parent: %v", err)))
			logger.Warn("find parent of %s: %v", ticket.Key, err)
		case parent != nil && parent.IsEpic():
			epic = parent
		case parent != nil:
			logger.Debug("parent %s of %s is a %s, not an epic", parent.Key, ticket.Key, parent.IssueType)
		}
	}

	// 4. Create the run and its store
	now := s.now()
	run := domain.Run{
		ID:            s.newID(),
		TicketKey:     ticket.Key,
		TicketSummary: ticket.Summary,
		DocumentType:  ticket.DocumentType(),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.ledger.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	store, err := s.stores.Open(ctx, run.ID)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	fetcher := NewFetcher(s.sources, store, s.fetchOpts...)

	result := &driving.GatherResult{Ticket: ticket, Epic: epic, Warnings: s.toolWarnings()}
	if err := s.record(ctx, run.ID, early); err != nil {
		return nil, err
	}
	result.Outcomes = append(result.Outcomes, early...)

	// 5. Phases
	for i, phase := range s.phases(fetcher, ticket, epic) {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("gather cancelled before phase %d: %w", i+1, err)
		}
		outcomes := runPhase(ctx, phase, opts.Concurrency)
		if err := s.record(ctx, run.ID, outcomes); err != nil {
			return nil, err
		}
		result.Outcomes = append(result.Outcomes, outcomes...)
	}

	// 6. Missing sources, judged on the primary ticket only
	result.Requests = Evaluate(ticket)
	for i := range result.Requests {
		if err := s.ledger.MarkMissing(ctx, run.ID, result.Requests[i].Category); err != nil {
			return nil, fmt.Errorf("mark missing: %w", err)
		}
	}

	// 7. Consolidate
	loc, err := Consolidate(ctx, store)
	if err != nil {
		return nil, err
	}
	run.ArtifactLocation = loc
	run.UpdatedAt = s.now()
	if err := s.ledger.SaveRun(ctx, run); err != nil {
		return nil, fmt.Errorf("save run: %w", err)
	}

	result.Run = run
	result.ArtifactLocation = loc
	return result, nil
}

// toolWarnings reports extraction tools missing on this machine.
func (s *GatherService) toolWarnings() []string {
	checker, ok := s.sources.Extractor.(driven.ToolChecker)
	if !ok {
		return nil
	}
	var warnings []string
	for _, err := range checker.Check() {
		logger.Warn("%v", err)
		warnings = append(warnings, err.Error())
	}
	return warnings
}

// phases returns the fetch tasks grouped in canonical category order.
func (s *GatherService) phases(f *Fetcher, ticket, epic *domain.Ticket) [][]fetchTask {
	scoped := []*domain.Ticket{ticket}
	if epic != nil {
		scoped = append(scoped, epic)
	}

	var tickets, requirements, design, wiki []fetchTask

	tickets = append(tickets, func(ctx context.Context) domain.Outcome {
		return f.StoreTicket(ctx, ticket, domain.CategoryPrimaryTicket)
	})
	if epic != nil {
		tickets = append(tickets, func(ctx context.Context) domain.Outcome {
			return f.StoreTicket(ctx, epic, domain.CategoryEpicTicket)
		})
	}

	seen := make(map[string]bool)
	for _, t := range scoped {
		key := t.Key
		for _, att := range ClassifyRequirements(t.Attachments) {
			requirements = append(requirements, func(ctx context.Context) domain.Outcome {
				return f.FetchAttachment(ctx, att, key, domain.CategoryRequirements)
			})
		}
		for _, att := range ClassifyDesign(t.Attachments) {
			category := DesignCategory(att)
			design = append(design, func(ctx context.Context) domain.Outcome {
				return f.FetchAttachment(ctx, att, key, category)
			})
		}
		for _, link := range TicketWikiLinks(t) {
			if seen[link] {
				continue
			}
			seen[link] = true
			wiki = append(wiki, func(ctx context.Context) domain.Outcome {
				return f.FetchWikiPage(ctx, link, key)
			})
		}
	}

	return [][]fetchTask{tickets, requirements, design, wiki}
}

// runPhase runs tasks with at most limit in flight and returns outcomes in
// completion order. With limit 1 that is task order.
func runPhase(ctx context.Context, tasks []fetchTask, limit int) []domain.Outcome {
	if limit < 1 {
		limit = 1
	}
	outcomes := make([]domain.Outcome, 0, len(tasks))
	if limit == 1 {
		for _, task := range tasks {
			outcomes = append(outcomes, task(ctx))
		}
		return outcomes
	}

	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(limit)
	for _, task := range tasks {
		g.Go(func() error {
			o := task(ctx)
			mu.Lock()
			outcomes = append(outcomes, o)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

// Resolve answers a missing-source request recorded for a run. The artifact
// is rebuilt when the answer stored at least one unit.
func (s *GatherService) Resolve(
	ctx context.Context,
	runID string,
	category domain.MissingCategory,
	res domain.Resolution,
) (*driving.ResolveResult, error) {
	run, err := s.ledger.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}

	missing, err := s.ledger.Missing(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get missing: %w", err)
	}
	if !isMissing(missing, category) {
		return nil, fmt.Errorf("%w: %s was not reported missing for %s",
			domain.ErrInvalidInput, category.Label(), run.TicketKey)
	}

	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	resolver := NewResolver(NewFetcher(s.sources, store, s.fetchOpts...), s.sources.Tracker)

	outcomes, err := resolver.Resolve(ctx, RequestFor(category, run.TicketKey), res)
	if err != nil {
		return nil, err
	}
	if err := s.record(ctx, runID, outcomes); err != nil {
		return nil, err
	}

	result := &driving.ResolveResult{
		Outcomes:         outcomes,
		Resolved:         AnySucceeded(outcomes),
		ArtifactLocation: run.ArtifactLocation,
	}

	if result.Resolved || res.Option == domain.OptionSkip {
		if err := s.ledger.MarkResolved(ctx, runID, category, res.Option); err != nil {
			return nil, fmt.Errorf("mark resolved: %w", err)
		}
	}

	if result.Resolved {
		loc, err := s.consolidate(ctx, run, store)
		if err != nil {
			return nil, err
		}
		result.ArtifactLocation = loc
	}
	return result, nil
}

// Consolidate rebuilds the artifact for a run.
func (s *GatherService) Consolidate(ctx context.Context, runID string) (string, error) {
	run, err := s.ledger.GetRun(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("get run: %w", err)
	}
	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	return s.consolidate(ctx, run, store)
}

func (s *GatherService) consolidate(ctx context.Context, run *domain.Run, store driven.UnitStore) (string, error) {
	loc, err := Consolidate(ctx, store)
	if err != nil {
		return "", err
	}
	run.ArtifactLocation = loc
	run.UpdatedAt = s.now()
	if err := s.ledger.SaveRun(ctx, *run); err != nil {
		return "", fmt.Errorf("save run: %w", err)
	}
	return loc, nil
}

// Summary returns everything recorded for a run.
func (s *GatherService) Summary(ctx context.Context, runID string) (*domain.RunSummary, error) {
	run, err := s.ledger.GetRun(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	outcomes, err := s.ledger.Outcomes(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get outcomes: %w", err)
	}
	missing, err := s.ledger.Missing(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("get missing: %w", err)
	}
	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	units, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list units: %w", err)
	}

	return &domain.RunSummary{
		Run:      *run,
		Outcomes: outcomes,
		Missing:  missing,
		Units:    units,
	}, nil
}

// Runs lists recorded runs, newest first.
func (s *GatherService) Runs(ctx context.Context) ([]domain.Run, error) {
	return s.ledger.ListRuns(ctx)
}

// Artifact returns the consolidated text of a run.
func (s *GatherService) Artifact(ctx context.Context, runID string) (string, error) {
	if _, err := s.ledger.GetRun(ctx, runID); err != nil {
		return "", fmt.Errorf("get run: %w", err)
	}
	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return "", fmt.Errorf("open store: %w", err)
	}
	return store.ReadArtifact(ctx)
}

// Discard removes a run's storage namespace and ledger records.
func (s *GatherService) Discard(ctx context.Context, runID string) error {
	if _, err := s.ledger.GetRun(ctx, runID); err != nil {
		return fmt.Errorf("get run: %w", err)
	}
	store, err := s.stores.Open(ctx, runID)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	if err := store.Discard(ctx); err != nil {
		return fmt.Errorf("discard store: %w", err)
	}
	if err := s.ledger.DeleteRun(ctx, runID); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	logger.Info("discarded run %s", runID)
	return nil
}

func (s *GatherService) record(ctx context.Context, runID string, outcomes []domain.Outcome) error {
	for i := range outcomes {
		if err := s.ledger.RecordOutcome(ctx, runID, outcomes[i]); err != nil {
			return fmt.Errorf("record outcome: %w", err)
		}
	}
	return nil
}

func isMissing(statuses []domain.MissingStatus, category domain.MissingCategory) bool {
	for i := range statuses {
		if statuses[i].Category == category {
			return true
		}
	}
	return false
}
