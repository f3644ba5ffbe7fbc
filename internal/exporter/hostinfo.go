package exporter

import (
	"context"

	"github.com/shirou/gopsutil/v3/host"
)

// CollectHostInfo fills the static host info gauge once. Best effort: if
// the host query fails the series is simply absent.
func (m *Metrics) CollectHostInfo(ctx context.Context) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		m.logger.Warnf("collecting host info: %v", err)
		return
	}

	m.hostInfo.WithLabelValues(
		info.OS,
		info.Platform,
		info.PlatformVersion,
		info.KernelVersion,
		info.KernelArch,
	).Set(1)
}
