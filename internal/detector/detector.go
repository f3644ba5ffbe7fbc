// Package detector implements the environment classification heuristics.
//
// Every signal here is cheap but unreliable (pseudo-file contents,
// environment variables, external command output), so detection is a
// short-circuiting priority chain rather than a scored model. Container
// evidence wins over VM evidence: container runtimes commonly sit on top
// of virtualized hosts and the container signal is specific to the
// immediate execution boundary.
package detector

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/envdetect-exporter/model"
)

// probeResult is the outcome of a single heuristic probe. A probe that
// could not run yields no evidence either way, which is not the same as
// a definite "no match".
type probeResult int

const (
	probeNoMatch     probeResult = iota // probe ran, found nothing
	probeMatch                          // probe found positive evidence
	probeUnavailable                    // probe could not run
)

const (
	cpuidTimeout    = 5 * time.Second
	platformTimeout = 10 * time.Second
)

var (
	initCgroupSignatures = []string{"docker", "containerd", "kubepods"}
	selfCgroupSignatures = []string{"docker", "lxc", "containerd", "kubepods", "system.slice/docker"}
	containerEnvVars     = []string{"DOCKER_CONTAINER", "container", "KUBERNETES_SERVICE_HOST"}
	cpuidSignatures      = []string{"vmware", "virtualbox", "kvm", "qemu", "xen", "hyperv", "microsoft hv", "parallels", "bochs"}
	cpuinfoSignatures    = []string{"hypervisor", "vmware", "virtualbox", "kvm", "qemu", "xen", "bochs", "parallels"}
	platformSignatures   = []string{"vmware", "virtualbox", "microsoft corporation", "xen", "qemu", "parallels", "innotek", "bochs"}
)

// Detector decides, best-effort, what kind of environment the process
// runs in. Create one with New; the collaborator fields exist so tests
// can substitute fixtures.
type Detector struct {
	logger *zap.SugaredLogger

	initCgroupPath string
	selfCgroupPath string
	cpuinfoPath    string

	lookupEnv  func(string) (string, bool)
	runCommand func(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error)
}

// New returns a Detector wired to the real host collaborators.
func New(logger *zap.SugaredLogger) *Detector {
	return &Detector{
		logger:         logger,
		initCgroupPath: "/proc/1/cgroup",
		selfCgroupPath: "/proc/self/cgroup",
		cpuinfoPath:    "/proc/cpuinfo",
		lookupEnv:      os.LookupEnv,
		runCommand:     runCommand,
	}
}

func runCommand(ctx context.Context, timeout time.Duration, name string, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, args...).Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Classify evaluates the probes in fixed priority order: container, then
// vm, then the platform-specific vm query, then hardware. It never fails:
// an unexpected panic escaping the chain maps to (unknown, -1).
func (d *Detector) Classify(ctx context.Context) (det model.Detection) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Errorf("environment detection failed: %v", r)
			det = model.NewDetection(model.Unknown)
		}
	}()

	switch {
	case d.DetectContainer(ctx):
		det = model.NewDetection(model.Container)
	case d.DetectVM(ctx):
		det = model.NewDetection(model.VM)
	case d.detectVMPlatform(ctx) == probeMatch:
		det = model.NewDetection(model.VM)
	default:
		det = model.NewDetection(model.Hardware)
	}

	return det
}

// DetectContainer reports whether the process appears to run inside a
// container. Probes run in order and the first match wins.
func (d *Detector) DetectContainer(ctx context.Context) bool {
	probes := []struct {
		name string
		run  func(ctx context.Context) probeResult
	}{
		{"cgroup_init", d.probeInitCgroup},
		{"cgroup_self", d.probeSelfCgroup},
		{"env", d.probeContainerEnv},
	}

	for _, p := range probes {
		if p.run(ctx) == probeMatch {
			d.logger.Infof("container evidence from %s probe", p.name)
			return true
		}
	}
	return false
}

func (d *Detector) probeInitCgroup(_ context.Context) probeResult {
	return d.probeFile(d.initCgroupPath, initCgroupSignatures)
}

func (d *Detector) probeSelfCgroup(_ context.Context) probeResult {
	return d.probeFile(d.selfCgroupPath, selfCgroupSignatures)
}

func (d *Detector) probeContainerEnv(_ context.Context) probeResult {
	for _, name := range containerEnvVars {
		if _, ok := d.lookupEnv(name); ok {
			return probeMatch
		}
	}
	return probeNoMatch
}

func (d *Detector) probeFile(path string, signatures []string) probeResult {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			d.logger.Debugf("%s does not exist", path)
		} else {
			d.logger.Warnf("reading %s: %v", path, err)
		}
		return probeUnavailable
	}

	if _, ok := matchAny(strings.ToLower(string(data)), signatures); ok {
		return probeMatch
	}
	return probeNoMatch
}

// DetectVM reports whether the host looks like a virtual machine. Two
// independent sub-probes, either one sufficient.
func (d *Detector) DetectVM(ctx context.Context) bool {
	if d.probeCPUID(ctx) == probeMatch {
		return true
	}
	return d.probeCPUInfo(ctx) == probeMatch
}

func (d *Detector) probeCPUID(ctx context.Context) probeResult {
	out, err := d.runCommand(ctx, cpuidTimeout, "cpuid")
	if err != nil {
		d.logger.Debugf("cpuid command not available or failed: %v", err)
		return probeUnavailable
	}

	if sig, ok := matchAny(strings.ToLower(out), cpuidSignatures); ok {
		d.logger.Infof("hypervisor signature %q in cpuid output", sig)
		return probeMatch
	}
	return probeNoMatch
}

func (d *Detector) probeCPUInfo(_ context.Context) probeResult {
	data, err := os.ReadFile(d.cpuinfoPath)
	if err != nil {
		d.logger.Debugf("reading %s: %v", d.cpuinfoPath, err)
		return probeUnavailable
	}

	if sig, ok := matchAny(strings.ToLower(string(data)), cpuinfoSignatures); ok {
		d.logger.Infof("hypervisor signature %q in %s", sig, d.cpuinfoPath)
		return probeMatch
	}
	return probeNoMatch
}

func matchAny(s string, signatures []string) (string, bool) {
	for _, sig := range signatures {
		if strings.Contains(s, sig) {
			return sig, true
		}
	}
	return "", false
}
