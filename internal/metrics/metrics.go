package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	ingestedLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigia_ingested_lines_total",
		Help: "Total number of access-log lines imported as events",
	})
	skippedLinesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigia_skipped_lines_total",
		Help: "Total number of access-log lines skipped as unparseable",
	})
	deniedEventsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigia_denied_events_total",
		Help: "Total number of imported events carrying a DENY verdict",
	})
	ruleWritesRejectedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigia_rule_writes_rejected_total",
		Help: "Total number of rule writes rejected by validation or priority conflicts",
	})
)

// Register registers Prometheus collectors. Call once at startup.
func Register(registry *prometheus.Registry) {
	registry.MustRegister(ingestedLinesTotal, skippedLinesTotal, deniedEventsTotal, ruleWritesRejectedTotal)
}

// AddIngestedLines adds to the imported lines counter.
func AddIngestedLines(n int) { ingestedLinesTotal.Add(float64(n)) }

// AddSkippedLines adds to the skipped lines counter.
func AddSkippedLines(n int) { skippedLinesTotal.Add(float64(n)) }

// AddDeniedEvents adds to the denied events counter.
func AddDeniedEvents(n int) { deniedEventsTotal.Add(float64(n)) }

// IncRuleWriteRejected increments the rejected rule writes counter.
func IncRuleWriteRejected() { ruleWritesRejectedTotal.Inc() }
