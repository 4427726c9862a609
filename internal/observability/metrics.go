package observability

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/signalsfoundry/cadastre/core"
)

// RegisterCollector bundles Prometheus metrics for the plot register and the
// interchange file operations. It satisfies kb.MetricsRecorder and
// interchange.Recorder.
type RegisterCollector struct {
	gatherer prometheus.Gatherer

	Plots              *prometheus.GaugeVec
	AreaRecomputations *prometheus.CounterVec
	InterchangeRecords *prometheus.CounterVec
	InterchangeLatency *prometheus.HistogramVec
}

// NewRegisterCollector registers the register metrics against the provided
// registerer, defaulting to the global Prometheus registry when nil.
func NewRegisterCollector(reg prometheus.Registerer) (*RegisterCollector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	plots, err := registerGaugeVec(reg, prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "cadastre_plots",
		Help: "Current number of registered plots, labeled by zone kind.",
	}, []string{"kind"}), "cadastre_plots")
	if err != nil {
		return nil, err
	}

	recomputations, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_area_recomputations_total",
		Help: "Area recomputations triggered by boundary changes, labeled by zone kind and result (ok or rejected).",
	}, []string{"kind", "result"}), "cadastre_area_recomputations_total")
	if err != nil {
		return nil, err
	}

	records, err := registerCounterVec(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cadastre_interchange_records_total",
		Help: "Plot records read or written through interchange files, labeled by operation and zone kind.",
	}, []string{"op", "kind"}), "cadastre_interchange_records_total")
	if err != nil {
		return nil, err
	}

	latency, err := registerHistogramVec(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "cadastre_interchange_duration_seconds",
		Help:    "Interchange file load and save latency in seconds.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"op"}), "cadastre_interchange_duration_seconds")
	if err != nil {
		return nil, err
	}

	return &RegisterCollector{
		gatherer:           gatherer,
		Plots:              plots,
		AreaRecomputations: recomputations,
		InterchangeRecords: records,
		InterchangeLatency: latency,
	}, nil
}

// Handler exposes a ready-to-use /metrics handler.
func (c *RegisterCollector) Handler() http.Handler {
	gatherer := c.gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetPlotCounts drives the plot gauges from the register's mutators.
func (c *RegisterCollector) SetPlotCounts(counts map[core.ZoneKind]int) {
	if c == nil || c.Plots == nil {
		return
	}
	for kind, n := range counts {
		c.Plots.WithLabelValues(kind.Code()).Set(float64(n))
	}
}

// ObserveAreaRecompute counts one notification-driven area recomputation.
func (c *RegisterCollector) ObserveAreaRecompute(kind core.ZoneKind, err error) {
	if c == nil || c.AreaRecomputations == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "rejected"
	}
	c.AreaRecomputations.WithLabelValues(kind.Code(), result).Inc()
}

// ObserveInterchange records the outcome of a LoadFile or SaveFile call.
// Records are only counted when the operation succeeded.
func (c *RegisterCollector) ObserveInterchange(op string, zones []core.Zone, elapsed time.Duration, err error) {
	if c == nil {
		return
	}
	if c.InterchangeLatency != nil {
		c.InterchangeLatency.WithLabelValues(op).Observe(elapsed.Seconds())
	}
	if err != nil || c.InterchangeRecords == nil {
		return
	}
	for _, z := range zones {
		if z == nil {
			continue
		}
		c.InterchangeRecords.WithLabelValues(op, z.Kind().Code()).Inc()
	}
}

func registerGaugeVec(reg prometheus.Registerer, vec *prometheus.GaugeVec, name string) (*prometheus.GaugeVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.GaugeVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerCounterVec(reg prometheus.Registerer, vec *prometheus.CounterVec, name string) (*prometheus.CounterVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}

func registerHistogramVec(reg prometheus.Registerer, vec *prometheus.HistogramVec, name string) (*prometheus.HistogramVec, error) {
	if err := reg.Register(vec); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(*prometheus.HistogramVec); ok {
				return existing, nil
			}
			return nil, fmt.Errorf("collector %s already registered with incompatible type", name)
		}
		return nil, err
	}
	return vec, nil
}
