// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - TicketTracker: Reads tickets and downloads attachments (Jira)
//   - WikiClient: Reads wiki pages (Confluence)
//   - WebFetcher: Retrieves arbitrary URLs
//   - FileReader: Reads user-supplied local files
//   - Normaliser: Turns one format into text
//   - TextExtractor: Selects the normaliser for a raw document
//   - UnitStore / UnitStoreFactory: Per-run document unit persistence
//   - RunLedger: Run, outcome and missing-source records
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - Generator: Drafts test documentation from the consolidated artifact.
//   - PromptStore: Customisable generation prompts. Defaults are embedded.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter, connector, or normaliser package
package driven
