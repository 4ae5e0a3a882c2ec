// Package metrics exposes layout and element-building measurements through
// a private Prometheus registry.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"

	"github.com/ha1tch/codemap/pkg/layout"
)

// Namespace prefixes every metric name.
const Namespace = "codemap"

// Collector holds all Prometheus metrics for a codemap process.
type Collector struct {
	registry *prometheus.Registry

	LayoutRuns     *prometheus.CounterVec
	LayoutFailures *prometheus.CounterVec
	Discarded      *prometheus.CounterVec
	LayoutDuration *prometheus.HistogramVec
	LayoutNodes    prometheus.Gauge
	ElementsBuilt  prometheus.Counter
	Elements       prometheus.Gauge
}

var _ layout.Recorder = (*Collector)(nil)

// NewCollector creates a collector with its own registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		LayoutRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "layout_runs_total",
				Help:      "Layout runs started, by strategy and algorithm",
			},
			[]string{"strategy", "algorithm"},
		),
		LayoutFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "layout_failures_total",
				Help:      "Layout runs that ended in an error, by strategy and reason",
			},
			[]string{"strategy", "reason"},
		),
		Discarded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "layout_discarded_total",
				Help:      "Layout results dropped because a newer run superseded them",
			},
			[]string{"strategy"},
		),
		LayoutDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: Namespace,
				Name:      "layout_duration_seconds",
				Help:      "Time from layout request to applied positions",
				Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"strategy"},
		),
		LayoutNodes: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "layout_nodes",
				Help:      "Node count of the most recent layout request",
			},
		),
		ElementsBuilt: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: Namespace,
				Name:      "elements_built_total",
				Help:      "Elements produced by the element builder",
			},
		),
		Elements: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: Namespace,
				Name:      "elements",
				Help:      "Elements in the current scene",
			},
		),
	}

	c.registry.MustRegister(
		c.LayoutRuns,
		c.LayoutFailures,
		c.Discarded,
		c.LayoutDuration,
		c.LayoutNodes,
		c.ElementsBuilt,
		c.Elements,
	)
	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry { return c.registry }

// LayoutStarted implements layout.Recorder.
func (c *Collector) LayoutStarted(strategy, algorithm string, nodes int) {
	c.LayoutRuns.WithLabelValues(strategy, algorithm).Inc()
	c.LayoutNodes.Set(float64(nodes))
}

// LayoutFinished implements layout.Recorder.
func (c *Collector) LayoutFinished(strategy, algorithm string, d time.Duration, err error) {
	if err != nil {
		c.LayoutFailures.WithLabelValues(strategy, Reason(err)).Inc()
		return
	}
	c.LayoutDuration.WithLabelValues(strategy).Observe(d.Seconds())
}

// LayoutDiscarded implements layout.Recorder.
func (c *Collector) LayoutDiscarded(strategy string) {
	c.Discarded.WithLabelValues(strategy).Inc()
}

// ObserveBuild records one element build of n elements. It matches the
// view build hook signature.
func (c *Collector) ObserveBuild(n int) {
	c.ElementsBuilt.Add(float64(n))
	c.Elements.Set(float64(n))
}

// Reason maps a layout error to a short label value.
func Reason(err error) string {
	switch {
	case errors.Is(err, layout.ErrTerminated):
		return "terminated"
	case errors.Is(err, layout.ErrWorkerCrashed):
		return "crashed"
	case errors.Is(err, layout.ErrMalformedResult):
		return "malformed"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, layout.ErrClosed):
		return "closed"
	}
	return "error"
}

// Handler serves the registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// Sample is one gathered series.
type Sample struct {
	Name  string // name{label="value",...}
	Value float64
}

// Summary gathers the registry into a sorted list of samples. Histograms
// contribute their _count and _sum.
func (c *Collector) Summary() ([]Sample, error) {
	families, err := c.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("gather metrics: %w", err)
	}

	var out []Sample
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName() + labelString(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, Sample{name, m.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				out = append(out, Sample{name, m.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				base := mf.GetName()
				labels := labelString(m.GetLabel())
				out = append(out,
					Sample{base + "_count" + labels, float64(h.GetSampleCount())},
					Sample{base + "_sum" + labels, h.GetSampleSum()},
				)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func labelString(pairs []*dto.LabelPair) string {
	if len(pairs) == 0 {
		return ""
	}
	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = fmt.Sprintf("%s=%q", p.GetName(), p.GetValue())
	}
	return "{" + strings.Join(parts, ",") + "}"
}
