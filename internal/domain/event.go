package domain

// ProbabilityEvent is a single platform-reported probability update: a trade,
// a bet, or a price-history tick. Input to segment construction only; never
// mutated after creation.
type ProbabilityEvent struct {
	MarketID    string  // FK to markets
	TimestampMs int64   // Unix timestamp in milliseconds
	Value       float64 // platform-native probability-bearing value (price, probAfter, ...)
}
