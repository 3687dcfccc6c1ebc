// Package metrics records command timings with Prometheus collectors.
// The registry is process-local; totals are read back at the end of a command
// and stored with the telemetry event.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// NetworkTiming is the timer name used for outbound API calls.
const NetworkTiming = "cmd_all_timing_network_ms"

// Recorder accumulates named durations in milliseconds.
type Recorder struct {
	registry *prometheus.Registry
	timings  *prometheus.CounterVec
	calls    *prometheus.CounterVec
}

// NewRecorder creates a recorder with its own registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		timings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopkit",
			Name:      "timing_ms_total",
			Help:      "Accumulated milliseconds spent per timer.",
		}, []string{"timer"}),
		calls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "shopkit",
			Name:      "timed_calls_total",
			Help:      "Number of timed calls per timer.",
		}, []string{"timer"}),
	}
	r.registry.MustRegister(r.timings, r.calls)
	return r
}

// Add records d against the named timer.
func (r *Recorder) Add(name string, d time.Duration) {
	r.timings.WithLabelValues(name).Add(float64(d.Microseconds()) / 1000)
	r.calls.WithLabelValues(name).Inc()
}

// Milliseconds returns the accumulated time for the named timer.
func (r *Recorder) Milliseconds(name string) float64 {
	return r.sum("shopkit_timing_ms_total", name)
}

// Calls returns how many times the named timer was recorded.
func (r *Recorder) Calls(name string) int {
	return int(r.sum("shopkit_timed_calls_total", name))
}

func (r *Recorder) sum(family, timer string) float64 {
	mfs, err := r.registry.Gather()
	if err != nil {
		return 0
	}
	for _, mf := range mfs {
		if mf.GetName() != family {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "timer" && lp.GetValue() == timer {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

type recorderKey struct{}

// WithRecorder attaches r to ctx.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// FromContext returns the recorder attached to ctx, or nil.
func FromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// RunWithTimer runs fn and adds its duration to the named timer of the
// recorder in ctx. Without a recorder fn just runs.
func RunWithTimer[T any](ctx context.Context, name string, fn func() (T, error)) (T, error) {
	start := time.Now()
	v, err := fn()
	if r := FromContext(ctx); r != nil {
		r.Add(name, time.Since(start))
	}
	return v, err
}
