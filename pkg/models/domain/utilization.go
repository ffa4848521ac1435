package domain

type UtilizationClass string

const (
	UtilizationVeryLow     UtilizationClass = "very-low"
	UtilizationLow         UtilizationClass = "low"
	UtilizationHigh        UtilizationClass = "high"
	UtilizationNormal      UtilizationClass = "normal"
	UtilizationUnavailable UtilizationClass = "unavailable"
	UtilizationError       UtilizationClass = "error"
	UtilizationTimeout     UtilizationClass = "timeout"
	UtilizationRateLimited UtilizationClass = "rate-limited"
)

// UtilizationSample is the reduced 30-day CPU series for one resource.
// AvgCPU and PeakCPU are nil when no data points exist; Detail carries the
// diagnostic text distinguishing "no metrics" from "metrics present but empty".
type UtilizationSample struct {
	AvgCPU         *float64
	PeakCPU        *float64
	Classification UtilizationClass
	Detail         string
}

// UnavailableSample is the default for resources that were never sampled.
func UnavailableSample() UtilizationSample {
	return UtilizationSample{Classification: UtilizationUnavailable}
}
