// Package metrics collects Prometheus metrics for keyring operations.
//
// Only operation metadata is recorded: chain, signing kind and outcome.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/weisyn/keyring/pkg/types"
)

const (
	namespace = "keyring"

	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics keyring operation collectors. A nil *Metrics records nothing.
type Metrics struct {
	accountsDerived  *prometheus.CounterVec
	signTotal        *prometheus.CounterVec
	decryptFailures  prometheus.Counter
	envelopeDuration *prometheus.HistogramVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		accountsDerived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "accounts_derived_total",
				Help:      "Accounts appended to keyrings",
			},
			[]string{"chain"},
		),
		signTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sign_total",
				Help:      "Sign requests by chain, kind and result",
			},
			[]string{"chain", "kind", "result"},
		),
		decryptFailures: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "envelope_decrypt_failures_total",
				Help:      "Envelopes that failed to decrypt",
			},
		),
		envelopeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "envelope_duration_seconds",
				Help:      "Time spent encrypting or decrypting envelopes, dominated by the KDF",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
			},
			[]string{"op"},
		),
	}
}

// AccountsDerived counts n new accounts on chain.
func (m *Metrics) AccountsDerived(chain types.Chain, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.accountsDerived.WithLabelValues(string(chain)).Add(float64(n))
}

// Signed counts one sign request.
func (m *Metrics) Signed(chain types.Chain, kind types.SignKind, err error) {
	if m == nil {
		return
	}
	m.signTotal.WithLabelValues(string(chain), kind.String(), result(err)).Inc()
}

// EnvelopeDone observes an encrypt or decrypt that started at start.
func (m *Metrics) EnvelopeDone(op string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.envelopeDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if op == "decrypt" && err != nil {
		m.decryptFailures.Inc()
	}
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
