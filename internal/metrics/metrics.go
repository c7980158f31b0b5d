// Package metrics exposes Prometheus collectors for runs, attempts, challenge
// judgements and the remaining quota.
package metrics

import (
	"github.com/ganot/quotagate/internal/domain/challenge"
	"github.com/ganot/quotagate/internal/domain/generation"
	"github.com/ganot/quotagate/internal/domain/quota"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Run results recorded on quotagate_runs_total.
const (
	ResultCompleted = "completed"
	ResultCancelled = "cancelled"
)

// Recorder implements generation.Observer and the challenge and quota hooks.
type Recorder struct {
	attempts       *prometheus.CounterVec
	runs           *prometheus.CounterVec
	judgements     *prometheus.CounterVec
	quotaRemaining prometheus.Gauge
}

// NewRecorder registers the collectors with reg. A nil reg uses the default
// registerer.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Recorder{
		attempts: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_attempts_total",
			Help: "Run outcomes by kind",
		}, []string{"outcome"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_runs_total",
			Help: "Finished generation runs by result",
		}, []string{"result"}),
		judgements: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "quotagate_challenge_judgements_total",
			Help: "Challenge judgements by verdict",
		}, []string{"verdict"}),
		quotaRemaining: factory.NewGauge(prometheus.GaugeOpts{
			Name: "quotagate_quota_remaining",
			Help: "Remaining daily quota",
		}),
	}
}

// ObserveOutcome counts one run outcome.
func (r *Recorder) ObserveOutcome(outcome generation.Outcome) {
	r.attempts.WithLabelValues(string(outcome.Kind)).Inc()
}

// ObserveRun counts one finished run.
func (r *Recorder) ObserveRun(summary generation.Summary) {
	result := ResultCompleted
	switch {
	case summary.Cancelled:
		result = ResultCancelled
	case summary.Terminal != "":
		result = string(summary.Terminal)
	}
	r.runs.WithLabelValues(result).Inc()
}

// ObserveVerdict counts one challenge judgement.
func (r *Recorder) ObserveVerdict(v challenge.Verdict) {
	r.judgements.WithLabelValues(string(v)).Inc()
}

// ObserveQuota sets the remaining-quota gauge.
func (r *Recorder) ObserveQuota(u quota.Usage) {
	r.quotaRemaining.Set(float64(u.Remaining))
}
