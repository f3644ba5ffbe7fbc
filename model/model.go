// Package model contains core data types for the project.
package model

// Environment classifies where the process runs.
type Environment string

const (
	Hardware  Environment = "hardware"  // Bare-metal host.
	VM        Environment = "vm"        // Virtual machine.
	Container Environment = "container" // Container runtime.
	Unknown   Environment = "unknown"   // Detection failed.
	Error     Environment = "error"     // Publishing failed unexpectedly.
)

// Code returns the numeric value exported for the environment.
func (e Environment) Code() float64 {
	switch e {
	case Hardware:
		return 0
	case VM:
		return 1
	case Container:
		return 2
	default:
		return -1
	}
}

// Detection is the result of a single classification run.
type Detection struct {
	Environment Environment `json:"environment"` // Classification label.
	Code        float64     `json:"code"`        // Numeric code for the label.
}

// NewDetection builds a Detection for the given environment.
func NewDetection(env Environment) Detection {
	return Detection{Environment: env, Code: env.Code()}
}
