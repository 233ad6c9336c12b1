// Package metrics holds the Prometheus collectors shared by the bot, the
// reminder worker and the HTTP layer.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry is the registry exposed on /metrics.
	Registry = prometheus.NewRegistry()

	registerer = prometheus.WrapRegistererWith(prometheus.Labels{"service": "pizzabot"}, Registry)
	factory    = promauto.With(registerer)
)

var (
	EventsHandled = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzabot_events_total",
		Help: "Inbound conversation events by channel, kind and outcome.",
	}, []string{"channel", "kind", "outcome"})

	Transitions = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzabot_transitions_total",
		Help: "Conversation state transitions.",
	}, []string{"from", "to"})

	GatewayErrors = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzabot_gateway_errors_total",
		Help: "Failed calls to external collaborators by operation.",
	}, []string{"op"})

	EventDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pizzabot_event_duration_seconds",
		Help:    "Time spent handling one inbound event.",
		Buckets: prometheus.DefBuckets,
	}, []string{"channel"})

	RemindersFired = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzabot_reminders_total",
		Help: "Reminder deliveries by result.",
	}, []string{"result"})

	HTTPRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Name: "pizzabot_http_requests_total",
		Help: "Webhook HTTP requests by route and status class.",
	}, []string{"route", "status"})
)

func init() {
	registerer.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Handler serves the registry in the Prometheus exposition format.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// StatusClass folds an HTTP status code into 2xx/3xx/4xx/5xx.
func StatusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
