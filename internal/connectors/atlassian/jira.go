package atlassian

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/custodia-labs/testbrief/internal/core/domain"
	"github.com/custodia-labs/testbrief/internal/core/ports/driven"
	"github.com/custodia-labs/testbrief/internal/logger"
)

// Ensure Jira implements the interface.
var _ driven.TicketTracker = (*Jira)(nil)

const (
	// DefaultAPIVersion is the Jira REST API version used when none is set.
	DefaultAPIVersion = 2

	// DefaultEpicLinkField is the legacy epic-link custom field.
	DefaultEpicLinkField = "customfield_10014"

	jiraTimeLayout = "2006-01-02T15:04:05.000-0700"
)

// Jira reads tickets from the Jira REST API.
type Jira struct {
	client        *Client
	apiVersion    int
	epicLinkField string
}

// NewJira creates a Jira adapter. apiVersion must be 2 or 3; 0 selects the default.
func NewJira(client *Client, apiVersion int, epicLinkField string) (*Jira, error) {
	if apiVersion == 0 {
		apiVersion = DefaultAPIVersion
	}
	if apiVersion != 2 && apiVersion != 3 {
		return nil, fmt.Errorf("jira: unsupported API version %d", apiVersion)
	}
	if epicLinkField == "" {
		epicLinkField = DefaultEpicLinkField
	}
	return &Jira{client: client, apiVersion: apiVersion, epicLinkField: epicLinkField}, nil
}

type named struct {
	Name string `json:"name"`
}

type person struct {
	DisplayName string `json:"displayName"`
}

type issueRef struct {
	Key    string `json:"key"`
	Fields struct {
		Summary   string `json:"summary"`
		IssueType named  `json:"issuetype"`
		Status    named  `json:"status"`
	} `json:"fields"`
}

type issueAttachment struct {
	ID       string  `json:"id"`
	Filename string  `json:"filename"`
	Size     int64   `json:"size"`
	MimeType string  `json:"mimeType"`
	Content  string  `json:"content"`
	Created  string  `json:"created"`
	Author   *person `json:"author"`
}

type issueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"`
	IssueType   named           `json:"issuetype"`
	Status      named           `json:"status"`
	Priority    *named          `json:"priority"`
	Assignee    *person         `json:"assignee"`
	Reporter    *person         `json:"reporter"`
	Project     struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"project"`
	Created     string            `json:"created"`
	Updated     string            `json:"updated"`
	Parent      *issueRef         `json:"parent"`
	Subtasks    []issueRef        `json:"subtasks"`
	Attachment  []issueAttachment `json:"attachment"`
	Labels      []string          `json:"labels"`
	Components  []named           `json:"components"`
	FixVersions []named           `json:"fixVersions"`
}

type issueResponse struct {
	Key    string          `json:"key"`
	Fields json.RawMessage `json:"fields"`
}

// GetTicket returns a snapshot of the ticket with the given key.
func (j *Jira) GetTicket(ctx context.Context, key string) (*domain.Ticket, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, fmt.Errorf("jira: %w: empty ticket key", domain.ErrInvalidInput)
	}

	var resp issueResponse
	path := fmt.Sprintf("/rest/api/%d/issue/%s", j.apiVersion, url.PathEscape(key))
	if err := j.client.getJSON(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("jira: get issue %s: %w", key, err)
	}

	var fields issueFields
	if err := json.Unmarshal(resp.Fields, &fields); err != nil {
		return nil, fmt.Errorf("jira: decode issue %s: %w", key, err)
	}
	var custom map[string]json.RawMessage
	if err := json.Unmarshal(resp.Fields, &custom); err != nil {
		return nil, fmt.Errorf("jira: decode issue %s: %w", key, err)
	}

	description, links := flattenDescription(fields.Description)
	t := &domain.Ticket{
		Key:         resp.Key,
		Summary:     fields.Summary,
		Description: description,
		IssueType:   fields.IssueType.Name,
		Status:      fields.Status.Name,
		Priority:    "None",
		Assignee:    "Unassigned",
		Reporter:    "Unknown",
		Project:     fields.Project.Name,
		ProjectKey:  fields.Project.Key,
		Created:     parseJiraTime(fields.Created),
		Updated:     parseJiraTime(fields.Updated),
		EpicLink:    epicLinkValue(custom[j.epicLinkField]),
		Labels:      fields.Labels,
		WikiLinks:   links,
	}
	if fields.Priority != nil && fields.Priority.Name != "" {
		t.Priority = fields.Priority.Name
	}
	if fields.Assignee != nil {
		t.Assignee = fields.Assignee.DisplayName
	}
	if fields.Reporter != nil {
		t.Reporter = fields.Reporter.DisplayName
	}
	if fields.Parent != nil && fields.Parent.Key != "" {
		ref := toRef(*fields.Parent)
		t.Parent = &ref
	}
	for _, s := range fields.Subtasks {
		t.Subtasks = append(t.Subtasks, toRef(s))
	}
	for _, c := range fields.Components {
		t.Components = append(t.Components, c.Name)
	}
	for _, v := range fields.FixVersions {
		t.FixVersions = append(t.FixVersions, v.Name)
	}
	for _, a := range fields.Attachment {
		att := domain.Attachment{
			ID:          a.ID,
			Filename:    a.Filename,
			Size:        a.Size,
			ContentType: a.MimeType,
			DownloadURL: a.Content,
			Created:     parseJiraTime(a.Created),
		}
		if a.Author != nil {
			att.Author = a.Author.DisplayName
		}
		t.Attachments = append(t.Attachments, att)
	}

	logger.Debug("jira: %s (%s) with %d attachment(s)", t.Key, t.IssueType, len(t.Attachments))
	return t, nil
}

// DownloadAttachment returns the raw bytes of an attachment.
func (j *Jira) DownloadAttachment(ctx context.Context, att domain.Attachment) ([]byte, error) {
	target := att.DownloadURL
	if target == "" {
		if att.ID == "" {
			return nil, fmt.Errorf("jira: %w: attachment has no id or URL", domain.ErrInvalidInput)
		}
		target = fmt.Sprintf("/rest/api/%d/attachment/content/%s", j.apiVersion, url.PathEscape(att.ID))
	}
	data, err := j.client.get(ctx, j.client.resolve(target, nil), "*/*")
	if err != nil {
		return nil, fmt.Errorf("jira: download %s: %w", att.Filename, err)
	}
	return data, nil
}

// FindParent returns the parent epic of a ticket. An epic parent wins, then
// the epic-link field, then any other parent.
func (j *Jira) FindParent(ctx context.Context, key string) (*domain.Ticket, error) {
	t, err := j.GetTicket(ctx, key)
	if err != nil {
		return nil, err
	}

	var parentKey string
	switch {
	case t.Parent != nil && strings.EqualFold(t.Parent.IssueType, "epic"):
		parentKey = t.Parent.Key
	case t.EpicLink != "":
		parentKey = t.EpicLink
	case t.Parent != nil:
		parentKey = t.Parent.Key
	default:
		return nil, domain.ErrNoParent
	}
	return j.GetTicket(ctx, parentKey)
}

func toRef(r issueRef) domain.TicketRef {
	return domain.TicketRef{
		Key:       r.Key,
		Summary:   r.Fields.Summary,
		IssueType: r.Fields.IssueType.Name,
		Status:    r.Fields.Status.Name,
	}
}

// epicLinkValue reads the epic-link field, a key string on most sites.
func epicLinkValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var obj struct {
		Key string `json:"key"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return obj.Key
	}
	return ""
}

func parseJiraTime(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(jiraTimeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
