// Package telemetry provides observability instrumentation for the
// manifest resolution engine: structured logging (zerolog) with component
// child loggers, and Prometheus counters for manifest parses, cache
// activity, and resolution outcomes.
package telemetry
