package metrics

// NoopProvider is the zero-configuration Provider a System uses when no
// Option supplies one: every instrument it hands back discards every
// measurement. Swapping in a BasicProvider (or any other Provider) costs a
// single Option; NoopProvider exists so that cost is opt-in.
type NoopProvider struct{}

// NewNoopProvider constructs a Provider that discards all metrics.
func NewNoopProvider() NoopProvider { return NoopProvider{} }

func (NoopProvider) Counter(_ string, _ ...InstrumentOption) Counter {
	return discardCounter{}
}

func (NoopProvider) UpDownCounter(_ string, _ ...InstrumentOption) UpDownCounter {
	return discardUpDownCounter{}
}

func (NoopProvider) Histogram(_ string, _ ...InstrumentOption) Histogram {
	return discardHistogram{}
}

type discardCounter struct{}

func (discardCounter) Add(int64) {}

type discardUpDownCounter struct{}

func (discardUpDownCounter) Add(int64) {}

type discardHistogram struct{}

func (discardHistogram) Record(float64) {}
