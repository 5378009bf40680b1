package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Indexing metrics
	AimsIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radstash_aims_indexed_total",
			Help: "Total number of annotation documents indexed",
		},
	)

	TemplatesIndexed = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radstash_templates_indexed_total",
			Help: "Total number of template containers indexed",
		},
	)

	FacetsEmitted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radstash_facets_emitted_total",
			Help: "Total number of facets emitted by extraction",
		},
	)

	// Queue metrics
	JobsEnqueued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "radstash_queue_jobs_enqueued_total",
			Help: "Total number of plugin jobs enqueued",
		},
	)

	JobTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radstash_queue_job_transitions_total",
			Help: "Total number of job status transitions by target status",
		},
		[]string{"status"},
	)

	// Graph metrics
	MembershipChanges = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "radstash_membership_changes_total",
			Help: "Total number of attach/detach operations by entity type and action",
		},
		[]string{"entity_type", "action"},
	)
)

func init() {
	// Register all metrics
	prometheus.MustRegister(AimsIndexed)
	prometheus.MustRegister(TemplatesIndexed)
	prometheus.MustRegister(FacetsEmitted)
	prometheus.MustRegister(JobsEnqueued)
	prometheus.MustRegister(JobTransitions)
	prometheus.MustRegister(MembershipChanges)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
