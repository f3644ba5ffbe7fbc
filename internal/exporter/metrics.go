// Package exporter publishes the environment classification as Prometheus
// metrics over HTTP.
package exporter

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/and161185/envdetect-exporter/model"
)

// Classifier produces an environment detection result.
type Classifier interface {
	Classify(ctx context.Context) model.Detection
}

// Metrics owns the registry and the gauges the exporter serves. It is the
// single writer of the environment gauge; readers only see it through
// scrapes of the registry.
type Metrics struct {
	logger   *zap.SugaredLogger
	registry *prometheus.Registry

	environment *prometheus.GaugeVec
	lastDetect  prometheus.Gauge
	hostInfo    *prometheus.GaugeVec
}

// NewMetrics creates the registry and registers the exporter's gauges on it.
func NewMetrics(logger *zap.SugaredLogger) *Metrics {
	m := &Metrics{
		logger:   logger,
		registry: prometheus.NewRegistry(),
		environment: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "system_environment_type",
			Help: "System environment type (0=hardware, 1=vm, 2=container, -1=unknown)",
		}, []string{"environment"}),
		lastDetect: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "system_environment_last_detect_seconds",
			Help: "Unix time of the last successful environment detection",
		}),
		hostInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "system_host_info",
			Help: "Static host information, value is always 1",
		}, []string{"os", "platform", "platform_version", "kernel_version", "arch"}),
	}

	m.registry.MustRegister(m.environment, m.lastDetect, m.hostInfo)

	return m
}

// Update runs classification and publishes the result. The gauge vector is
// reset before the new value is set so exactly one environment label is
// exposed at any time. A panicking classifier surfaces as the "error"
// label with value -1; it never takes the process down.
func (m *Metrics) Update(ctx context.Context, c Classifier) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Errorf("updating environment metric: %v", r)
			m.environment.Reset()
			m.environment.WithLabelValues(string(model.Error)).Set(model.Error.Code())
		}
	}()

	det := c.Classify(ctx)

	m.environment.Reset()
	m.environment.WithLabelValues(string(det.Environment)).Set(det.Code)
	m.lastDetect.SetToCurrentTime()

	m.logger.Infof("environment detected: %s (value: %v)", det.Environment, det.Code)
}
