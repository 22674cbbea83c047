// Package metrics provides Prometheus counters for the posting core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	PostsCreated = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plainchant_posts_created_total",
			Help: "Total number of accepted posts",
		},
		[]string{"kind"},
	)

	SubmissionsRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plainchant_submissions_rejected_total",
			Help: "Total number of rejected submissions by reason",
		},
		[]string{"reason"},
	)

	PostsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "plainchant_posts_deleted_total",
			Help: "Total number of deleted posts",
		},
		[]string{"kind"},
	)

	ThreadsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "plainchant_threads_evicted_total",
			Help: "Total number of threads removed by post-cap enforcement",
		},
	)
)
