package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "flux",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by route and method.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	JoinCodeAttempts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "join_code_attempts_total",
		Help:      "Join code candidates drawn.",
	})

	JoinCodeExhausted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "join_code_exhausted_total",
		Help:      "Join code generations that ran out of attempts.",
	})

	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "access_decisions_total",
		Help:      "Read access decisions by rule and outcome.",
	}, []string{"rule", "allowed"})

	ActivityPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "activity_published_total",
		Help:      "Activity events published to the realtime channel.",
	})

	ActivityRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "activity_relayed_total",
		Help:      "Activity events received by the relay, by outcome.",
	}, []string{"outcome"})

	WebsocketClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "flux",
		Name:      "websocket_clients",
		Help:      "Connected websocket clients.",
	})

	StoredBytes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "flux",
		Name:      "storage_uploaded_bytes_total",
		Help:      "Bytes written to object storage.",
	})
)
