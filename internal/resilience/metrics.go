package resilience

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exports breaker state and transitions.
type Metrics struct {
	State       *prometheus.GaugeVec
	Transitions *prometheus.CounterVec
}

// NewMetrics registers breaker collectors on reg, reusing existing ones.
func NewMetrics(namespace string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	state := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "breaker_state",
		Help:      "Current breaker state: 0=closed,1=open,2=half-open",
	}, []string{"target"})
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "breaker_transition_total",
		Help:      "Count of breaker state transitions",
	}, []string{"target", "from", "to"})

	if err := reg.Register(state); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			state = are.ExistingCollector.(*prometheus.GaugeVec)
		}
	}
	if err := reg.Register(transitions); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			transitions = are.ExistingCollector.(*prometheus.CounterVec)
		}
	}
	return &Metrics{State: state, Transitions: transitions}
}

func (m *Metrics) setState(target string, s State) {
	if m == nil {
		return
	}
	m.State.WithLabelValues(target).Set(float64(s))
}

func (m *Metrics) transition(target string, from, to State) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(target, from.String(), to.String()).Inc()
}
