package recorder

// CalculationEvent holds one completed "=".
type CalculationEvent struct {
	Equation string
	Result   string
}

// ConversionEvent holds one currency conversion.
type ConversionEvent struct {
	Amount    float64
	From      string
	To        string
	Converted float64
}

// RateUpdateEvent records one fetch cycle, successful or not.
type RateUpdateEvent struct {
	Source string
	Status string // "updated" or "stale"
	Reason string // "none", "network", "status", "decode", "empty"
	Rates  map[string]float64
}

// Recorder persists an audit trail of calculator activity.
type Recorder interface {
	RecordCalculation(evt *CalculationEvent) error
	RecordConversion(evt *ConversionEvent) error
	RecordRateUpdate(evt *RateUpdateEvent) error
	Close() error
}
