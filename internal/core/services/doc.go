// Package services holds the gathering pipeline: classification, fetching,
// missing-source resolution and consolidation, plus the GatherService and
// DraftService that implement the driving ports.
//
// Services depend only on driven ports; adapters are injected by the caller.
package services
