package recorder

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCalculation(_ *CalculationEvent) error { return nil }
func (n *NoopRecorder) RecordConversion(_ *ConversionEvent) error   { return nil }
func (n *NoopRecorder) RecordRateUpdate(_ *RateUpdateEvent) error   { return nil }
func (n *NoopRecorder) Close() error                                { return nil }
