package protocol

// Allocation limits to prevent DoS attacks via malicious length prefixes.
const (
	// DefaultMaxAllocation is the default maximum size of a single string (1MB).
	DefaultMaxAllocation = 1024 * 1024

	// HardMaxAllocation is the absolute ceiling for allocations (16MB).
	// Even if configured higher, allocations are capped at this limit.
	HardMaxAllocation = 16 * 1024 * 1024

	// DefaultMaxMutations is the default maximum number of mutations in one
	// decoded batch.
	DefaultMaxMutations = 100_000

	// HardMaxMutations caps Limits.MaxMutations.
	HardMaxMutations = 1_000_000
)

// Limits bounds what a Decoder will allocate.
// Use DefaultLimits() for sensible defaults.
type Limits struct {
	// MaxAllocation is the largest string a decoder will allocate.
	MaxAllocation int

	// MaxMutations is the largest mutation count accepted in one batch,
	// across all frames of the batch.
	MaxMutations int
}

// DefaultLimits returns the default limits.
func DefaultLimits() Limits {
	return Limits{
		MaxAllocation: DefaultMaxAllocation,
		MaxMutations:  DefaultMaxMutations,
	}
}

// clamp fills zero values with defaults and caps values at the hard limits.
func (l Limits) clamp() Limits {
	if l.MaxAllocation <= 0 {
		l.MaxAllocation = DefaultMaxAllocation
	}
	if l.MaxAllocation > HardMaxAllocation {
		l.MaxAllocation = HardMaxAllocation
	}
	if l.MaxMutations <= 0 {
		l.MaxMutations = DefaultMaxMutations
	}
	if l.MaxMutations > HardMaxMutations {
		l.MaxMutations = HardMaxMutations
	}
	return l
}
