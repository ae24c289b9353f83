// Package kmetrics exposes the kernel's runtime counters as Prometheus
// metrics: syscalls dispatched, exceptions raised, scheduler context
// switches and RTC ticks, all labeled the way a hosted kernel
// simulator would surface them to an operator dashboard. No kernel
// package updates these metrics: cmd/illinix creates and serves a
// Registry, and its values stay at their initial zero.
package kmetrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry bundles every counter/gauge this kernel records, registered
// against a private prometheus.Registry so multiple Registry instances
// (e.g. in tests) never collide on the default global registry.
type Registry struct {
	reg *prometheus.Registry

	Syscalls          *prometheus.CounterVec
	Exceptions        *prometheus.CounterVec
	ContextSwitches   prometheus.Counter
	RTCTicks          prometheus.Counter
	RunnableProcesses prometheus.Gauge
}

// New constructs and registers every metric.
func New() *Registry {
	reg := prometheus.NewRegistry()

	r := &Registry{
		reg: reg,
		Syscalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "illinix",
			Name:      "syscalls_total",
			Help:      "Number of system calls dispatched, by call number.",
		}, []string{"syscall"}),
		Exceptions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "illinix",
			Name:      "exceptions_total",
			Help:      "Number of CPU exceptions raised, by vector.",
		}, []string{"vector"}),
		ContextSwitches: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "illinix",
			Name:      "context_switches_total",
			Help:      "Number of scheduler context switches performed.",
		}),
		RTCTicks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "illinix",
			Name:      "rtc_ticks_total",
			Help:      "Number of RTC periodic interrupts serviced.",
		}),
		RunnableProcesses: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "illinix",
			Name:      "runnable_processes",
			Help:      "Number of PCB slots currently present.",
		}),
	}

	reg.MustRegister(r.Syscalls, r.Exceptions, r.ContextSwitches, r.RTCTicks, r.RunnableProcesses)
	return r
}

// Registry returns the underlying prometheus registry, for wiring into
// an HTTP handler (promhttp.HandlerFor).
func (r *Registry) Registry() *prometheus.Registry {
	return r.reg
}
