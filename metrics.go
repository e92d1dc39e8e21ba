package protoasm

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts assembly outcomes. A nil *Metrics records nothing.
type Metrics struct {
	assemblies     prometheus.Counter
	failures       *prometheus.CounterVec
	unknownFields  prometheus.Counter
	droppedEnums   prometheus.Counter
	mergedMessages prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg when reg is
// not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		assemblies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protoasm", Name: "assemblies_total",
			Help: "Root messages popped successfully.",
		}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "protoasm", Name: "failures_total",
			Help: "Assembly failures by issue code.",
		}, []string{"code"}),
		unknownFields: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protoasm", Name: "unknown_fields_total",
			Help: "Unknown fields skipped in compatible mode.",
		}),
		droppedEnums: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protoasm", Name: "dropped_enumerators_total",
			Help: "Unknown enumerators mapped to no value in compatible mode.",
		}),
		mergedMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "protoasm", Name: "message_bytes_merged_total",
			Help: "Message fields assembled from base64 literals.",
		}),
	}
	if reg != nil {
		for _, c := range m.collectors() {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{m.assemblies, m.failures, m.unknownFields, m.droppedEnums, m.mergedMessages}
}

func (m *Metrics) assembled() {
	if m != nil {
		m.assemblies.Inc()
	}
}

func (m *Metrics) failed(code string) {
	if m != nil {
		m.failures.WithLabelValues(code).Inc()
	}
}

func (m *Metrics) unknownField() {
	if m != nil {
		m.unknownFields.Inc()
	}
}

func (m *Metrics) droppedEnum() {
	if m != nil {
		m.droppedEnums.Inc()
	}
}

func (m *Metrics) mergedMessage() {
	if m != nil {
		m.mergedMessages.Inc()
	}
}
