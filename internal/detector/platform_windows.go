//go:build windows

package detector

import (
	"context"
	"strings"
)

// detectVMPlatform queries WMI for the system manufacturer and model.
// Command failure means no evidence, not an error.
func (d *Detector) detectVMPlatform(ctx context.Context) probeResult {
	out, err := d.runCommand(ctx, platformTimeout,
		"wmic", "computersystem", "get", "manufacturer,model", "/format:list")
	if err != nil {
		d.logger.Debugf("wmic query not available or failed: %v", err)
		return probeUnavailable
	}

	if sig, ok := matchAny(strings.ToLower(out), platformSignatures); ok {
		d.logger.Infof("hypervisor signature %q in wmic output", sig)
		return probeMatch
	}
	return probeNoMatch
}
