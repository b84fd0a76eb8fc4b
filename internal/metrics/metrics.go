// Package metrics counts pipeline events in a private Prometheus registry and
// writes them to a node-exporter textfile at the end of a run.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"StyleTranslator/internal/domain"
	"StyleTranslator/internal/ports"
)

const namespace = "styletranslator"

type Metrics struct {
	registry *prometheus.Registry

	Admitted    *prometheus.CounterVec
	Rejected    *prometheus.CounterVec
	StageErrors *prometheus.CounterVec
	Checkpoints *prometheus.CounterVec
}

var _ ports.MetricsSink = (*Metrics)(nil)

// New registers the counters on a fresh registry, so several instances can coexist.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Admitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_admitted_total",
			Help:      "Records admitted into the pipeline state.",
		}, []string{"kind", "source"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_rejected_total",
			Help:      "Records dropped as duplicates or invalid.",
		}, []string{"kind"}),
		StageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "stage_errors_total",
			Help:      "Errors recorded per pipeline stage.",
		}, []string{"stage"}),
		Checkpoints: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkpoint_saves_total",
			Help:      "Checkpoint save attempts by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(m.Admitted, m.Rejected, m.StageErrors, m.Checkpoints)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) RecordAdmitted(kind domain.Kind, source string) {
	m.Admitted.WithLabelValues(string(kind), source).Inc()
}

func (m *Metrics) RecordRejected(kind domain.Kind) {
	m.Rejected.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) RecordStageError(stage string) {
	m.StageErrors.WithLabelValues(stage).Inc()
}

func (m *Metrics) RecordCheckpoint(ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	m.Checkpoints.WithLabelValues(result).Inc()
}

// WriteTextfile dumps the registry to path in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
