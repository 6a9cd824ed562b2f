package atlassian

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/testbrief/internal/core/domain"
)

const storyV2 = `{
  "key": "PROJ-2",
  "fields": {
    "summary": "Login with SSO",
    "description": "See https://example.atlassian.net/wiki/spaces/QA/pages/123/Login+Design",
    "issuetype": {"name": "Story"},
    "status": {"name": "In Progress"},
    "priority": {"name": "High"},
    "assignee": null,
    "reporter": {"displayName": "Ana"},
    "project": {"key": "PROJ", "name": "Project"},
    "created": "2024-05-01T09:30:00.000+0000",
    "updated": "2024-05-02T10:00:00.000+0000",
    "customfield_10014": "PROJ-1",
    "labels": ["sso"],
    "components": [{"name": "auth"}],
    "fixVersions": [{"name": "1.0"}],
    "subtasks": [{"key": "PROJ-3", "fields": {"summary": "UI", "issuetype": {"name": "Sub-task"}, "status": {"name": "Open"}}}],
    "attachment": [
      {"id": "10", "filename": "PRD-v2.pdf", "size": 2048, "mimeType": "application/pdf",
       "content": "%s/secure/attachment/10/PRD-v2.pdf", "created": "2024-05-01T09:31:00.000+0000",
       "author": {"displayName": "Ana"}}
    ]
  }
}`

const epicV3 = `{
  "key": "PROJ-1",
  "fields": {
    "summary": "Single sign-on",
    "description": {"type": "doc", "version": 1, "content": [
      {"type": "paragraph", "content": [
        {"type": "text", "text": "Design: "},
        {"type": "inlineCard", "attrs": {"url": "https://example.atlassian.net/wiki/spaces/QA/pages/456/HLD"}}
      ]}
    ]},
    "issuetype": {"name": "Epic"},
    "status": {"name": "Open"},
    "project": {"key": "PROJ", "name": "Project"}
  }
}`

type jiraFixture struct {
	issues   map[string]string
	requests []string
}

func (f *jiraFixture) server(t *testing.T, version string) *httptest.Server {
	t.Helper()
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.URL.Path)
		switch {
		case r.URL.Path == "/secure/attachment/10/PRD-v2.pdf":
			_, _ = w.Write([]byte("%PDF-1.4"))
			return
		case r.URL.Path == "/rest/api/"+version+"/attachment/content/77":
			_, _ = w.Write([]byte("by id"))
			return
		}
		for key, body := range f.issues {
			if r.URL.Path == "/rest/api/"+version+"/issue/"+key {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(strings.ReplaceAll(body, "%s", srv.URL)))
				return
			}
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestJira(t *testing.T, srv *httptest.Server, version int, field string) *Jira {
	t.Helper()
	j, err := NewJira(newTestClient(t, srv, "ana@example.com"), version, field)
	require.NoError(t, err)
	return j
}

func TestNewJira_Defaults(t *testing.T) {
	c, err := NewClient(ClientConfig{BaseURL: "https://x", Token: "t"})
	require.NoError(t, err)

	j, err := NewJira(c, 0, "")
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIVersion, j.apiVersion)
	assert.Equal(t, DefaultEpicLinkField, j.epicLinkField)

	_, err = NewJira(c, 4, "")
	assert.Error(t, err)
}

func TestJira_GetTicket_V2(t *testing.T) {
	f := &jiraFixture{issues: map[string]string{"PROJ-2": storyV2}}
	srv := f.server(t, "2")
	j := newTestJira(t, srv, 2, "")

	ticket, err := j.GetTicket(context.Background(), "PROJ-2")
	require.NoError(t, err)

	assert.Equal(t, "PROJ-2", ticket.Key)
	assert.Equal(t, "Login with SSO", ticket.Summary)
	assert.Contains(t, ticket.Description, "/pages/123/")
	assert.Equal(t, "Story", ticket.IssueType)
	assert.Equal(t, "High", ticket.Priority)
	assert.Equal(t, "Unassigned", ticket.Assignee)
	assert.Equal(t, "Ana", ticket.Reporter)
	assert.Equal(t, "PROJ", ticket.ProjectKey)
	assert.Equal(t, "PROJ-1", ticket.EpicLink)
	assert.Equal(t, 2024, ticket.Created.Year())
	assert.Equal(t, []string{"sso"}, ticket.Labels)
	assert.Equal(t, []string{"auth"}, ticket.Components)
	assert.Equal(t, []string{"1.0"}, ticket.FixVersions)
	require.Len(t, ticket.Subtasks, 1)
	assert.Equal(t, "PROJ-3", ticket.Subtasks[0].Key)

	require.Len(t, ticket.Attachments, 1)
	att := ticket.Attachments[0]
	assert.Equal(t, "PRD-v2.pdf", att.Filename)
	assert.Equal(t, "application/pdf", att.ContentType)
	assert.Equal(t, int64(2048), att.Size)
	assert.Equal(t, "Ana", att.Author)

	data, err := j.DownloadAttachment(context.Background(), att)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(data))
}

func TestJira_GetTicket_V3FlattensADF(t *testing.T) {
	f := &jiraFixture{issues: map[string]string{"PROJ-1": epicV3}}
	j := newTestJira(t, f.server(t, "3"), 3, "")

	ticket, err := j.GetTicket(context.Background(), "PROJ-1")
	require.NoError(t, err)

	assert.True(t, ticket.IsEpic())
	assert.Equal(t, "None", ticket.Priority)
	assert.Contains(t, ticket.Description, "Design: https://example.atlassian.net/wiki/spaces/QA/pages/456/HLD")
	assert.Equal(t, []string{"https://example.atlassian.net/wiki/spaces/QA/pages/456/HLD"}, ticket.WikiLinks)
	assert.Equal(t, []string{"/rest/api/3/issue/PROJ-1"}, f.requests)
}

func TestJira_GetTicket_Errors(t *testing.T) {
	f := &jiraFixture{issues: map[string]string{}}
	j := newTestJira(t, f.server(t, "2"), 2, "")

	_, err := j.GetTicket(context.Background(), "PROJ-404")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Contains(t, err.Error(), "PROJ-404")

	_, err = j.GetTicket(context.Background(), " ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJira_DownloadAttachment_ByID(t *testing.T) {
	f := &jiraFixture{}
	j := newTestJira(t, f.server(t, "2"), 2, "")

	data, err := j.DownloadAttachment(context.Background(), domain.Attachment{ID: "77", Filename: "x.txt"})
	require.NoError(t, err)
	assert.Equal(t, "by id", string(data))

	_, err = j.DownloadAttachment(context.Background(), domain.Attachment{Filename: "x.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestJira_FindParent(t *testing.T) {
	subtaskOfStory := `{"key":"PROJ-5","fields":{"summary":"s","issuetype":{"name":"Sub-task"},"status":{"name":"Open"},"project":{"key":"PROJ"},
		"parent":{"key":"PROJ-2","fields":{"summary":"Login with SSO","issuetype":{"name":"Story"},"status":{"name":"Open"}}}}}`
	storyWithEpicParent := `{"key":"PROJ-6","fields":{"summary":"s","issuetype":{"name":"Story"},"status":{"name":"Open"},"project":{"key":"PROJ"},
		"customfield_10014":"PROJ-9",
		"parent":{"key":"PROJ-1","fields":{"summary":"Single sign-on","issuetype":{"name":"Epic"},"status":{"name":"Open"}}}}}`
	orphan := `{"key":"PROJ-7","fields":{"summary":"s","issuetype":{"name":"Task"},"status":{"name":"Open"},"project":{"key":"PROJ"}}}`
	customField := `{"key":"PROJ-8","fields":{"summary":"s","issuetype":{"name":"Task"},"status":{"name":"Open"},"project":{"key":"PROJ"},
		"customfield_10100":{"key":"PROJ-1"}}}`

	f := &jiraFixture{issues: map[string]string{
		"PROJ-1": epicV3, "PROJ-2": storyV2, "PROJ-5": subtaskOfStory,
		"PROJ-6": storyWithEpicParent, "PROJ-7": orphan, "PROJ-8": customField,
	}}
	srv := f.server(t, "2")
	ctx := context.Background()

	j := newTestJira(t, srv, 2, "")

	parent, err := j.FindParent(ctx, "PROJ-2")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", parent.Key, "epic link")

	parent, err = j.FindParent(ctx, "PROJ-6")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", parent.Key, "epic parent wins over epic link")

	parent, err = j.FindParent(ctx, "PROJ-5")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-2", parent.Key, "non-epic parent as last resort")

	_, err = j.FindParent(ctx, "PROJ-7")
	assert.ErrorIs(t, err, domain.ErrNoParent)

	parent, err = newTestJira(t, srv, 2, "customfield_10100").FindParent(ctx, "PROJ-8")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", parent.Key, "configured field holding an object")
}
