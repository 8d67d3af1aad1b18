// Package metrics exports engine and tool activity as Prometheus counters.
package metrics

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"astrowheel/internal/orientation"
)

const namespace = "astrowheel"

var (
	_ orientation.Observer     = (*Recorder)(nil)
	_ orientation.SkipObserver = (*Recorder)(nil)
)

// Recorder counts engine ticks, fired rules, skipped elements and tool calls.
// The zero value is not usable; call New.
type Recorder struct {
	registry *prometheus.Registry
	ticks    prometheus.Counter
	fired    *prometheus.CounterVec
	skipped  prometheus.Counter
	tools    *prometheus.CounterVec
}

// New registers the astrowheel counters on a private registry together with
// the Go runtime and process collectors.
func New() (*Recorder, error) {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ticks_total",
			Help:      "Orientation engine evaluations.",
		}),
		fired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rules_fired_total",
			Help:      "Orientation rules fired, by trigger kind.",
		}, []string{"trigger"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "elements_skipped_total",
			Help:      "Elements left out of a projection because they could not be resolved.",
		}),
		tools: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tool_calls_total",
			Help:      "Tool server calls, by tool and outcome.",
		}, []string{"tool", "status"}),
	}

	cs := []prometheus.Collector{
		r.ticks,
		r.fired,
		r.skipped,
		r.tools,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	}
	for _, c := range cs {
		if err := r.registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return r, nil
}

func (r *Recorder) TickEvaluated() {
	r.ticks.Inc()
}

func (r *Recorder) RuleFired(ruleID, triggerKind string) {
	r.fired.WithLabelValues(triggerKind).Inc()
}

func (r *Recorder) ElementsSkipped(n int) {
	r.skipped.Add(float64(n))
}

// ToolCalled records one tool call; status is "ok" or "error".
func (r *Recorder) ToolCalled(tool string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	r.tools.WithLabelValues(tool, status).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
