// Package metrics holds the Prometheus collectors shared by the proxy, the
// relayer client and the dApp pipeline.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	proxyRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fhedapp",
		Name:      "proxy_requests_total",
		Help:      "Requests forwarded to relayer/gateway upstreams.",
	}, []string{"upstream", "status"})

	pipelineSteps = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fhedapp",
		Name:      "pipeline_steps_total",
		Help:      "Encrypt/submit/decrypt pipeline steps by outcome.",
	}, []string{"dapp", "step", "outcome"})

	relayerLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fhedapp",
		Name:      "relayer_request_seconds",
		Help:      "Latency of relayer HTTP calls.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	}, []string{"op", "ok"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

// ProxyRequest counts one proxied request.
func ProxyRequest(upstream string, status int) {
	proxyRequests.WithLabelValues(upstream, strconv.Itoa(status)).Inc()
}

// PipelineStep counts one pipeline step; err == nil counts as success.
func PipelineStep(dapp, step string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	pipelineSteps.WithLabelValues(dapp, step, outcome).Inc()
}

// ObserveRelayer records the latency of a relayer call.
func ObserveRelayer(op string, d time.Duration, ok bool) {
	relayerLatency.WithLabelValues(op, strconv.FormatBool(ok)).Observe(d.Seconds())
}
