package cli

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driving"
)

func TestGatherCmd_RequiresArg(t *testing.T) {
	setupTestServices(t, Services{Gather: &mockGatherService{}})

	_, err := executeCommand(t, "gather")
	assert.ErrorContains(t, err, "accepts 1 arg(s)")
}

func TestGatherCmd_PrintsOutcomesAndPendingHints(t *testing.T) {
	svc := &mockGatherService{startResult: gatherResult(wikiRequest())}
	setupTestServices(t, Services{Gather: svc, Concurrency: 3})

	out, err := executeCommand(t, "gather", "https://example.atlassian.net/browse/PROJ-1")
	require.NoError(t, err)

	assert.Equal(t, "https://example.atlassian.net/browse/PROJ-1", svc.gotInput)
	assert.Equal(t, 3, svc.gotOpts.Concurrency)
	assert.Empty(t, svc.resolved)

	assert.Contains(t, out, "PROJ-1: Login with SSO")
	assert.Contains(t, out, "PROJ-9: Identity")
	assert.Contains(t, out, "stored ticket-from-PROJ-1-issue1-content.md")
	assert.Contains(t, out, "failed HLD.pdf: could not extract content")
	assert.Contains(t, out, "1 missing source(s)")
	assert.Contains(t, out, "testbrief resolve run-1 --category wiki --option text|url|skip")
	assert.Contains(t, out, "/docs/run-1/final-content.md")
}

func TestGatherCmd_PrintsToolWarnings(t *testing.T) {
	result := gatherResult()
	result.Warnings = []string{"pdftotext not found in PATH"}
	setupTestServices(t, Services{Gather: &mockGatherService{startResult: result}})

	out, err := executeCommand(t, "gather", "PROJ-1")
	require.NoError(t, err)

	assert.Contains(t, out, "pdftotext not found in PATH")
	assert.Less(t, strings.Index(out, "pdftotext"), strings.Index(out, "failed HLD.pdf"))
}

func TestGatherCmd_AppliesAnswers(t *testing.T) {
	svc := &mockGatherService{startResult: gatherResult(wikiRequest(), designRequest())}
	setupTestServices(t, Services{Gather: svc})

	out, err := executeCommand(t, "gather", "PROJ-1",
		"--answer", "confluence=url:https://wiki/a, https://wiki/b",
		"-a", "design=skip",
		"--concurrency", "5")
	require.NoError(t, err)

	assert.Equal(t, 5, svc.gotOpts.Concurrency)
	require.Len(t, svc.resolved, 2)
	assert.Equal(t, "run-1", svc.resolved[0].runID)
	assert.Equal(t, domain.MissingWiki, svc.resolved[0].category)
	assert.Equal(t, []string{"https://wiki/a", "https://wiki/b"}, svc.resolved[0].res.Locations)
	assert.Equal(t, domain.OptionSkip, svc.resolved[1].res.Option)

	assert.Contains(t, out, "Confluence resolved")
	assert.Contains(t, out, "Design Documents skipped")
	assert.NotContains(t, out, "Unresolved sources")
}

func TestGatherCmd_ResolveFailureLeavesRequestPending(t *testing.T) {
	svc := &mockGatherService{
		startResult: gatherResult(wikiRequest()),
		resolveErr:  errors.New("page not reachable"),
	}
	setupTestServices(t, Services{Gather: svc})

	out, err := executeCommand(t, "gather", "PROJ-1", "--answer", "wiki=url:https://wiki/x")
	require.NoError(t, err)

	assert.Contains(t, out, "page not reachable")
	assert.Contains(t, out, "Unresolved sources")
}

func TestGatherCmd_InvalidAnswerFailsBeforeStart(t *testing.T) {
	svc := &mockGatherService{startResult: gatherResult()}
	setupTestServices(t, Services{Gather: svc})

	_, err := executeCommand(t, "gather", "PROJ-1", "--answer", "prd=text:")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, svc.gotInput)
}

func TestGatherCmd_StartError(t *testing.T) {
	setupTestServices(t, Services{Gather: &mockGatherService{startErr: domain.ErrNotFound}})

	_, err := executeCommand(t, "gather", "PROJ-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGatherCmd_Interactive(t *testing.T) {
	svc := &mockGatherService{startResult: gatherResult(wikiRequest(), designRequest())}
	setupTestServices(t, Services{Gather: svc})

	var asked []domain.MissingCategory
	promptResolution = func(req domain.MissingSourceRequest) (domain.Resolution, error) {
		asked = append(asked, req.Category)
		if req.Category == domain.MissingWiki {
			return domain.Resolution{Option: domain.OptionText, Text: "Wiki notes"}, nil
		}
		return domain.Resolution{}, errPromptAborted
	}

	out, err := executeCommand(t, "gather", "PROJ-1", "--interactive")
	require.NoError(t, err)

	assert.Equal(t, []domain.MissingCategory{domain.MissingWiki, domain.MissingDesign}, asked)
	require.Len(t, svc.resolved, 1)
	assert.Equal(t, "Wiki notes", svc.resolved[0].res.Text)
	assert.Contains(t, out, "No design documents found for PROJ-1.")
}

func TestGatherCmd_AnswersTakePrecedenceOverPrompt(t *testing.T) {
	svc := &mockGatherService{startResult: gatherResult(wikiRequest())}
	setupTestServices(t, Services{Gather: svc})
	promptResolution = func(domain.MissingSourceRequest) (domain.Resolution, error) {
		t.Fatal("prompt should not be shown")
		return domain.Resolution{}, nil
	}

	_, err := executeCommand(t, "gather", "PROJ-1", "--interactive", "--answer", "wiki=skip")
	require.NoError(t, err)
	require.Len(t, svc.resolved, 1)
}

func TestGatherCmd_DryRun(t *testing.T) {
	persistent := &mockGatherService{}
	memory := &mockGatherService{startResult: gatherResult()}
	setupTestServices(t, Services{
		Gather: persistent,
		DryRun: func() driving.GatherService { return memory },
	})

	_, err := executeCommand(t, "gather", "PROJ-1", "--dry-run")
	require.NoError(t, err)

	assert.Equal(t, "PROJ-1", memory.gotInput)
	assert.Empty(t, persistent.gotInput)
}

func TestGatherCmd_DryRunUnavailable(t *testing.T) {
	setupTestServices(t, Services{Gather: &mockGatherService{}})

	_, err := executeCommand(t, "gather", "PROJ-1", "--dry-run")
	assert.ErrorContains(t, err, "dry run not available")
}

func TestGatherCmd_Unavailable(t *testing.T) {
	setupTestServices(t, Services{Unavailable: domain.ErrConfigMissing})

	_, err := executeCommand(t, "gather", "PROJ-1")
	assert.ErrorIs(t, err, domain.ErrConfigMissing)
}

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		category domain.MissingCategory
		want     domain.Resolution
		wantErr  bool
	}{
		{
			name: "text keeps colons in value", raw: "prd=text:Ratio 1:2 is required",
			category: domain.MissingRequirements,
			want:     domain.Resolution{Option: domain.OptionText, Text: "Ratio 1:2 is required"},
		},
		{
			name: "url splits on commas", raw: "design=url:./hld.pdf,./lld.docx",
			category: domain.MissingDesign,
			want:     domain.Resolution{Option: domain.OptionURL, Locations: []string{"./hld.pdf", "./lld.docx"}},
		},
		{
			name: "path alias", raw: "hld=path:./hld.pdf",
			category: domain.MissingDesign,
			want:     domain.Resolution{Option: domain.OptionURL, Locations: []string{"./hld.pdf"}},
		},
		{
			name: "parent", raw: "PRD=parent",
			category: domain.MissingRequirements,
			want:     domain.Resolution{Option: domain.OptionParent},
		},
		{name: "skip", raw: "wiki=skip", category: domain.MissingWiki, want: domain.Resolution{Option: domain.OptionSkip}},
		{name: "no equals", raw: "wiki", wantErr: true},
		{name: "unknown category", raw: "tests=skip", wantErr: true},
		{name: "unknown option", raw: "wiki=later", wantErr: true},
		{name: "empty text", raw: "prd=text:  ", wantErr: true},
		{name: "empty url", raw: "wiki=url: , ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			category, res, err := parseAnswer(tt.raw)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.category, category)
			assert.Equal(t, tt.want, res)
		})
	}
}

func TestParseAnswers_RejectsDuplicates(t *testing.T) {
	_, err := parseAnswers([]string{"wiki=skip", "confluence=url:https://wiki/x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	answers, err := parseAnswers([]string{"wiki=skip", "prd=parent"})
	require.NoError(t, err)
	assert.Len(t, answers, 2)
}
