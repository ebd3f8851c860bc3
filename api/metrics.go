package api

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	resultSuccess = "success"
	resultError   = "error"
)

var (
	buildsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphql_api",
		Name:      "schema_builds_total",
		Help:      "Schema builds by result.",
	}, []string{"result"})

	buildDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "graphql_api",
		Name:      "schema_build_duration_seconds",
		Help:      "Time spent building a schema.",
		Buckets:   prometheus.DefBuckets,
	})

	schemaTypes = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "graphql_api",
		Name:      "schema_types",
		Help:      "Number of named types in the last built schema.",
	})

	executionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "graphql_api",
		Name:      "executions_total",
		Help:      "Executed operations by result.",
	}, []string{"result"})
)
