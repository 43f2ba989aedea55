package watcher

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	snapshotsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_snapshots_total",
		Help: "Total number of store snapshots processed by the watcher.",
	})

	transitionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_transitions_total",
		Help: "Total number of Desconectado to Disponible transitions detected.",
	})

	skippedRecordsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "presence_skipped_records_total",
		Help: "Records skipped in a pass because required fields were missing.",
	})
)
