//go:build !windows

package detector

import "context"

// detectVMPlatform is the Windows-only WMI fallback. On every other
// system the probe is explicitly unavailable rather than a false
// negative.
func (d *Detector) detectVMPlatform(_ context.Context) probeResult {
	return probeUnavailable
}
