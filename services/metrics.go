package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	syncTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperhub_sync_total",
			Help: "Abgeschlossene Sync-Vorgänge nach Mutation und Ergebnis.",
		},
		[]string{"kind", "outcome"},
	)
	syncConflicts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "paperhub_sync_conflicts_total",
			Help: "Abgelehnte bedingte Schreibvorgänge (Versionskonflikte).",
		},
		[]string{"kind"},
	)
	syncDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "paperhub_sync_duration_seconds",
			Help:    "Dauer eines Syncs inklusive Wiederholungen.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(syncTotal, syncConflicts, syncDuration)
}
