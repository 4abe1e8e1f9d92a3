package reconcile

import "time"

// Config holds tunables for the reconciliation engine.
type Config struct {
	// HeuristicPrecisionSeconds is the truncation applied to the start
	// time inside heuristic fallback keys. Minute-level by default; the
	// right value depends on how much clock drift the two platforms show,
	// so it is a tunable rather than a constant.
	HeuristicPrecisionSeconds int `mapstructure:"heuristic_precision_seconds" default:"60"`

	// ViewTTLSeconds is how long a built matched-pair view is served
	// before being rebuilt. Zero disables the cache.
	ViewTTLSeconds int `mapstructure:"view_ttl_seconds" default:"20"`
}

// HeuristicPrecision returns the fallback-key truncation as a duration.
func (c Config) HeuristicPrecision() time.Duration {
	if c.HeuristicPrecisionSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.HeuristicPrecisionSeconds) * time.Second
}

// ViewTTL returns the matched-pair view cache TTL.
func (c Config) ViewTTL() time.Duration {
	if c.ViewTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ViewTTLSeconds) * time.Second
}
