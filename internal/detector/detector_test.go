package detector

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/envdetect-exporter/model"
)

func noCommand(context.Context, time.Duration, string, ...string) (string, error) {
	return "", errors.New("executable file not found in $PATH")
}

func commandOutput(out string) func(context.Context, time.Duration, string, ...string) (string, error) {
	return func(context.Context, time.Duration, string, ...string) (string, error) {
		return out, nil
	}
}

// newTestDetector returns a Detector whose probe files do not exist, whose
// environment is empty and whose external commands are missing.
func newTestDetector(t *testing.T) *Detector {
	t.Helper()
	dir := t.TempDir()
	return &Detector{
		logger:         zap.NewNop().Sugar(),
		initCgroupPath: filepath.Join(dir, "cgroup_init"),
		selfCgroupPath: filepath.Join(dir, "cgroup_self"),
		cpuinfoPath:    filepath.Join(dir, "cpuinfo"),
		lookupEnv:      func(string) (string, bool) { return "", false },
		runCommand:     noCommand,
	}
}

func writeProbeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestDetectContainer_InitCgroupSignatures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"docker", "13:name=systemd:/docker/44fc0925d", true},
		{"containerd_mixed_case", "2:cpu:/CONTAINERD/abc", true},
		{"kubepods", "12:devices:/kubepods/besteffort/pod123", true},
		{"plain_host", "0::/init.scope", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDetector(t)
			writeProbeFile(t, d.initCgroupPath, tc.content)

			require.Equal(t, tc.want, d.DetectContainer(context.Background()))
		})
	}
}

func TestDetectContainer_SelfCgroupSignatures(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"lxc", "10:freezer:/lxc/mycontainer", true},
		{"docker_slice", "0::/system.slice/docker-44fc.scope", true},
		{"user_slice", "0::/user.slice/user-1000.slice", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDetector(t)
			writeProbeFile(t, d.selfCgroupPath, tc.content)

			require.Equal(t, tc.want, d.DetectContainer(context.Background()))
		})
	}
}

func TestDetectContainer_EnvVars(t *testing.T) {
	for _, name := range []string{"DOCKER_CONTAINER", "container", "KUBERNETES_SERVICE_HOST"} {
		t.Run(name, func(t *testing.T) {
			d := newTestDetector(t)
			d.lookupEnv = func(key string) (string, bool) {
				// Existence is what counts, the value may be empty.
				return "", key == name
			}

			require.True(t, d.DetectContainer(context.Background()))
		})
	}
}

func TestDetectContainer_NoSignals(t *testing.T) {
	d := newTestDetector(t)
	require.False(t, d.DetectContainer(context.Background()))

	writeProbeFile(t, d.initCgroupPath, "0::/init.scope")
	writeProbeFile(t, d.selfCgroupPath, "0::/user.slice")
	require.False(t, d.DetectContainer(context.Background()))
}

func TestDetectContainer_UnreadableFileIsNoEvidence(t *testing.T) {
	d := newTestDetector(t)
	// Reading a directory fails with something other than "not exist".
	d.initCgroupPath = t.TempDir()
	d.selfCgroupPath = t.TempDir()

	require.False(t, d.DetectContainer(context.Background()))
}

func TestDetectVM_CPUIDSignatures(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   bool
	}{
		{"vmware", "hypervisor_id = \"VMwareVMware\"", true},
		{"kvm", "hypervisor guest status = true\nhypervisor_id = \"KVMKVMKVM\"", true},
		{"microsoft_hv", "vendor_id = Microsoft Hv", true},
		{"bare_metal", "vendor_id = GenuineIntel", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d := newTestDetector(t)
			d.runCommand = commandOutput(tc.output)

			require.Equal(t, tc.want, d.DetectVM(context.Background()))
		})
	}
}

func TestDetectVM_CPUInfoFallback(t *testing.T) {
	d := newTestDetector(t)
	writeProbeFile(t, d.cpuinfoPath, "flags\t\t: fpu vme de hypervisor tsc\n")

	require.True(t, d.DetectVM(context.Background()))
}

func TestDetectVM_NoEvidence(t *testing.T) {
	d := newTestDetector(t)
	writeProbeFile(t, d.cpuinfoPath, "model name\t: Intel(R) Core(TM) i7\nflags\t: fpu vme de\n")

	require.False(t, d.DetectVM(context.Background()))
}

func TestProbeCPUID_UsesBoundedTimeout(t *testing.T) {
	d := newTestDetector(t)

	var gotTimeout time.Duration
	var gotName string
	d.runCommand = func(_ context.Context, timeout time.Duration, name string, _ ...string) (string, error) {
		gotTimeout = timeout
		gotName = name
		return "", errors.New("timed out")
	}

	require.Equal(t, probeUnavailable, d.probeCPUID(context.Background()))
	require.Equal(t, cpuidTimeout, gotTimeout)
	require.Equal(t, "cpuid", gotName)
}

func TestClassify_ContainerWinsOverVM(t *testing.T) {
	d := newTestDetector(t)
	writeProbeFile(t, d.initCgroupPath, "12:devices:/kubepods/besteffort/pod123")
	d.runCommand = commandOutput("hypervisor_id = \"VMwareVMware\"")

	det := d.Classify(context.Background())
	require.Equal(t, model.Container, det.Environment)
	require.Equal(t, float64(2), det.Code)
}

func TestClassify_VM(t *testing.T) {
	d := newTestDetector(t)
	writeProbeFile(t, d.cpuinfoPath, "flags\t: fpu hypervisor\n")

	det := d.Classify(context.Background())
	require.Equal(t, model.VM, det.Environment)
	require.Equal(t, float64(1), det.Code)
}

func TestClassify_Hardware(t *testing.T) {
	d := newTestDetector(t)
	writeProbeFile(t, d.initCgroupPath, "0::/init.scope")
	writeProbeFile(t, d.selfCgroupPath, "0::/user.slice")
	writeProbeFile(t, d.cpuinfoPath, "model name\t: Intel(R) Core(TM) i7\n")

	det := d.Classify(context.Background())
	require.Equal(t, model.Hardware, det.Environment)
	require.Equal(t, float64(0), det.Code)
}

func TestClassify_PanicMapsToUnknown(t *testing.T) {
	d := newTestDetector(t)
	d.runCommand = func(context.Context, time.Duration, string, ...string) (string, error) {
		panic("probe blew up")
	}

	var det model.Detection
	require.NotPanics(t, func() {
		det = d.Classify(context.Background())
	})
	require.Equal(t, model.Unknown, det.Environment)
	require.Equal(t, float64(-1), det.Code)
}

func TestNew_DefaultPaths(t *testing.T) {
	d := New(zap.NewNop().Sugar())

	require.Equal(t, "/proc/1/cgroup", d.initCgroupPath)
	require.Equal(t, "/proc/self/cgroup", d.selfCgroupPath)
	require.Equal(t, "/proc/cpuinfo", d.cpuinfoPath)
	require.NotNil(t, d.lookupEnv)
	require.NotNil(t, d.runCommand)
}
