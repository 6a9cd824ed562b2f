package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// Options offered per missing category, in the order they are presented.
var (
	requirementsOptions = []domain.ResolutionOption{
		domain.OptionText, domain.OptionURL, domain.OptionSkip, domain.OptionParent,
	}
	wikiOptions = []domain.ResolutionOption{
		domain.OptionURL, domain.OptionText, domain.OptionSkip,
	}
	designOptions = []domain.ResolutionOption{
		domain.OptionURL, domain.OptionText, domain.OptionSkip,
	}
)

// Evaluate checks a ticket for absent source categories. The three checks are
// independent, so a ticket yields between zero and three requests, always in
// requirements, wiki, design order.
func Evaluate(t *domain.Ticket) []domain.MissingSourceRequest {
	if t == nil {
		return nil
	}

	var reqs []domain.MissingSourceRequest
	if len(ClassifyRequirements(t.Attachments)) == 0 {
		reqs = append(reqs, domain.MissingSourceRequest{
			Category:  domain.MissingRequirements,
			TicketKey: t.Key,
			Message:   fmt.Sprintf("No PRD attachment was found on %s.", t.Key),
			Options:   requirementsOptions,
		})
	}
	if len(TicketWikiLinks(t)) == 0 {
		reqs = append(reqs, domain.MissingSourceRequest{
			Category:  domain.MissingWiki,
			TicketKey: t.Key,
			Message:   fmt.Sprintf("No Confluence links were found in the description of %s.", t.Key),
			Options:   wikiOptions,
		})
	}
	if len(ClassifyDesign(t.Attachments)) == 0 {
		reqs = append(reqs, domain.MissingSourceRequest{
			Category:  domain.MissingDesign,
			TicketKey: t.Key,
			Message:   fmt.Sprintf("No HLD or LLD attachment was found on %s.", t.Key),
			Options:   designOptions,
		})
	}
	return reqs
}

// RequestFor rebuilds the request for a category recorded against ticketKey.
func RequestFor(category domain.MissingCategory, ticketKey string) domain.MissingSourceRequest {
	req := domain.MissingSourceRequest{Category: category, TicketKey: ticketKey}
	switch category {
	case domain.MissingRequirements:
		req.Options = requirementsOptions
	case domain.MissingWiki:
		req.Options = wikiOptions
	case domain.MissingDesign:
		req.Options = designOptions
	}
	return req
}

// Resolver turns answers to missing-source requests into stored units.
type Resolver struct {
	fetcher *Fetcher
	tracker driven.TicketTracker
}

// NewResolver creates a resolver that stores through fetcher.
// tracker is used only for the parent option and may be nil.
func NewResolver(fetcher *Fetcher, tracker driven.TicketTracker) *Resolver {
	return &Resolver{fetcher: fetcher, tracker: tracker}
}

// Resolve applies an answer to a request. An option the request does not
// offer is rejected with domain.ErrInvalidInput; every other failure is
// reported through the returned outcomes.
func (r *Resolver) Resolve(
	ctx context.Context,
	req domain.MissingSourceRequest,
	res domain.Resolution,
) ([]domain.Outcome, error) {
	if !req.Allows(res.Option) {
		return nil, fmt.Errorf("%w: option %q is not available for %s",
			domain.ErrInvalidInput, res.Option, req.Category.Label())
	}

	switch res.Option {
	case domain.OptionSkip:
		logger.Info("skipping %s for %s", req.Category.Label(), req.TicketKey)
		return nil, nil

	case domain.OptionText:
		return []domain.Outcome{r.fetcher.StoreUserText(ctx, res.Text, req.Category, req.TicketKey)}, nil

	case domain.OptionURL:
		if len(res.Locations) == 0 {
			return nil, fmt.Errorf("%w: no URL or path given", domain.ErrInvalidInput)
		}
		outcomes := make([]domain.Outcome, 0, len(res.Locations))
		for _, loc := range res.Locations {
			loc = strings.TrimSpace(loc)
			if loc == "" {
				continue
			}
			outcomes = append(outcomes, r.fetchLocation(ctx, loc, req))
		}
		return outcomes, nil

	case domain.OptionParent:
		return r.checkParent(ctx, req), nil
	}

	return nil, fmt.Errorf("%w: unknown option %q", domain.ErrInvalidInput, res.Option)
}

// fetchLocation routes a user-supplied location to the wiki, web or local file path.
func (r *Resolver) fetchLocation(ctx context.Context, loc string, req domain.MissingSourceRequest) domain.Outcome {
	switch {
	case IsRemoteURL(loc) && IsWikiURL(loc):
		return r.fetcher.fetchWikiPage(ctx, loc, req.TicketKey, req.Category)
	case IsRemoteURL(loc):
		return r.fetcher.FetchArbitraryURL(ctx, loc, req.Category, req.TicketKey)
	default:
		return r.fetcher.FetchLocalFile(ctx, loc, req.Category, req.TicketKey)
	}
}

// checkParent looks up the ticket's parent and fetches its requirements
// attachments. Only requirements are re-classified; wiki and design are
// not re-evaluated against the parent.
func (r *Resolver) checkParent(ctx context.Context, req domain.MissingSourceRequest) []domain.Outcome {
	if r.tracker == nil {
		return []domain.Outcome{domain.Failed(req.TicketKey, domain.CategoryRequirements, req.TicketKey,
			"ticket tracker "+reasonNotConfigured)}
	}

	parent, err := r.tracker.FindParent(ctx, req.TicketKey)
	if err != nil && !errors.Is(err, domain.ErrNoParent) {
		return []domain.Outcome{r.fetcher.fail(req.TicketKey, domain.CategoryRequirements, req.TicketKey,
			fmt.Sprintf("find parent: %v", err))}
	}
	if parent == nil {
		return []domain.Outcome{r.fetcher.fail(req.TicketKey, domain.CategoryRequirements, req.TicketKey,
			"ticket has no parent")}
	}

	atts := ClassifyRequirements(parent.Attachments)
	if len(atts) == 0 {
		return []domain.Outcome{r.fetcher.fail(parent.Key, domain.CategoryRequirements, parent.Key,
			"no PRD attachment on parent")}
	}

	outcomes := make([]domain.Outcome, 0, len(atts))
	for _, att := range atts {
		outcomes = append(outcomes,
			r.fetcher.fetchAttachment(ctx, att, parent.Key, domain.CategoryRequirements, req.Category))
	}
	return outcomes
}

// AnySucceeded reports whether at least one outcome stored a unit.
func AnySucceeded(outcomes []domain.Outcome) bool {
	for i := range outcomes {
		if outcomes[i].Succeeded() {
			return true
		}
	}
	return false
}
