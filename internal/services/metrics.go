// Prometheus collectors for the reconciliation pipeline.
package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// ingestRows counts processed rows by outcome: created, edit,
	// conflict, duplicate, error.
	ingestRows = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govreach_ingest_rows_total",
			Help: "Total ingest rows processed, by outcome.",
		},
		[]string{"outcome"},
	)

	// resolutions counts reviewer decisions by action.
	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "govreach_resolutions_total",
			Help: "Total submission resolutions, by action.",
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(ingestRows, resolutions)
}
