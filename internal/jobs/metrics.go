package jobs

import (
	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the per-job-name counters the pool maintains. Counters
// start unregistered; the composition root attaches them via Register so
// tests can build pools without touching the default registry.
type metrics struct {
	submitted *prometheus.CounterVec
	completed *prometheus.CounterVec
	failed    *prometheus.CounterVec
	timedOut  *prometheus.CounterVec
	panicked  *prometheus.CounterVec
}

func newMetrics() *metrics {
	return &metrics{
		submitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetd_jobs_submitted_total",
			Help: "Jobs accepted by the pool.",
		}, []string{"job"}),
		completed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetd_jobs_completed_total",
			Help: "Jobs that ran to completion.",
		}, []string{"job"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetd_jobs_failed_total",
			Help: "Jobs that returned an error or panicked.",
		}, []string{"job"}),
		timedOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetd_jobs_timed_out_total",
			Help: "Jobs stopped by their soft deadline.",
		}, []string{"job"}),
		panicked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fleetd_jobs_panicked_total",
			Help: "Jobs whose body panicked.",
		}, []string{"job"}),
	}
}

// Register attaches the pool's collectors to the given registerer.
func (p *Pool) Register(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{
		p.metrics.submitted,
		p.metrics.completed,
		p.metrics.failed,
		p.metrics.timedOut,
		p.metrics.panicked,
	} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}
