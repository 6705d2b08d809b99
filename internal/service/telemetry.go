package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	apiRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "billtracker",
			Name:      "api_requests_total",
			Help:      "Requests made to the legislative API by resource and outcome.",
		},
		[]string{"resource", "outcome"},
	)

	remoteFetchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "billtracker",
			Name:      "remote_fetches_total",
			Help:      "Fetch-if-needed calls by record kind and result (network, cached, error).",
		},
		[]string{"kind", "result"},
	)

	mergesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "billtracker",
			Name:      "bill_merges_total",
			Help:      "Status derivations by outcome (merged, partial).",
		},
		[]string{"outcome"},
	)
)
