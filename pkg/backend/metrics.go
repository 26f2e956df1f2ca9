package backend

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	repositoryCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repokeep",
		Subsystem: "backend",
		Name:      "repository_operations_total",
		Help:      "The total number of per-repository operations",
	}, []string{"action", "status"})

	archiveCounter = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "repokeep",
		Subsystem: "backend",
		Name:      "archives_total",
		Help:      "The total number of archive files written",
	}, []string{"status"})

	catalogGauge = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "repokeep",
		Subsystem: "backend",
		Name:      "catalog_repositories",
		Help:      "The number of repositories written by the last catalog refresh",
	})
)

func status(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
