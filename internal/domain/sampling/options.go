// Package sampling thins the deduplicated event stream down to a playable
// spawn cadence.
package sampling

// Option applies a configuration option to the sampler.
type Option func(*bracketSampler)

// WithBrackets sets the score thresholds and per-bracket moduli. moduli must
// have exactly one more entry than thresholds; invalid shapes keep defaults.
func WithBrackets(thresholds, moduli []int) Option {
	return func(s *bracketSampler) {
		if len(moduli) != len(thresholds)+1 {
			return
		}
		for _, m := range moduli {
			if m < 1 {
				return
			}
		}
		s.thresholds = thresholds
		s.moduli = moduli
	}
}
