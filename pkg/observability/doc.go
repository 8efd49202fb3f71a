/*
Package observability turns orchestrator lifecycle events into structured
logs. Metrics consume the same hooks; see internal/metrics.
*/
package observability
