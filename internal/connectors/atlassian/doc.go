// Package atlassian implements the ticket tracker and wiki ports against the
// Jira and Confluence REST APIs.
//
// # Authentication
//
// When a username is configured, requests use Basic auth with the API token
// (Atlassian Cloud). Otherwise the token is sent as a Bearer personal access
// token through an oauth2 static token source (Server and Data Center).
//
// # Rate Limiting
//
//  1. Proactive throttling: a token bucket limits the request rate.
//  2. Reactive handling: a Retry-After header on 429 or 503 delays the retry.
//
// 429, 5xx and transport errors are retried with exponential backoff. Other
// 4xx responses fail immediately as [APIError], which unwraps to the matching
// domain error.
//
// # Descriptions
//
// API v2 returns descriptions as text. API v3 returns Atlassian Document
// Format, which is flattened to text. Link and card URLs are kept both in the
// text and in [domain.Ticket.WikiLinks].
package atlassian
