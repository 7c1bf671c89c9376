package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the vault core.
type Metrics struct {
	FieldsWritten     prometheus.Counter
	WriteRejections   *prometheus.CounterVec
	Commits           prometheus.Counter
	FieldsPortablized prometheus.Counter
	SnapshotsBuilt    prometheus.Counter
}

// New creates and registers all vault metrics.
func New() *Metrics {
	return &Metrics{
		FieldsWritten: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_fields_written_total",
			Help: "Total number of field versions appended to the ledger",
		}),
		WriteRejections: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "vault_write_rejections_total",
			Help: "Total number of write batches rejected by the validator",
		}, []string{"reason"}),
		Commits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_commits_total",
			Help: "Total number of scope portability commits",
		}),
		FieldsPortablized: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_fields_portablized_total",
			Help: "Total number of field versions promoted to the portable tier",
		}),
		SnapshotsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Name: "vault_snapshots_built_total",
			Help: "Total number of snapshots materialized",
		}),
	}
}
