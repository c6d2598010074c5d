// Package metrics exposes Prometheus counters for handled commands.
package metrics

import (
	"net/http"

	"github.com/glebk/whoshere-bot/internal/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector counts commands by name and outcome
type Collector struct {
	registry *prometheus.Registry
	commands *prometheus.CounterVec
}

// NewCollector creates a Collector with its own registry
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "whoshere",
			Name:      "commands_total",
			Help:      "Slash commands handled, by command and outcome.",
		}, []string{"command", "outcome"}),
	}
	c.registry.MustRegister(c.commands)

	return c
}

// CommandHandled implements service.Recorder
func (c *Collector) CommandHandled(command, outcome string) {
	switch command {
	case domain.CommandWhosHere, domain.CommandIAmHere, domain.CommandHereIAm:
	case "":
		command = "none"
	default:
		// keep label cardinality bounded
		command = "other"
	}
	c.commands.WithLabelValues(command, outcome).Inc()
}

// Handler serves the metrics in the Prometheus exposition format
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}
