package mcts

import (
	"encoding/json"
	"strings"
)

// Config carries the engine's configurable parameters: the PUCT
// exploration weight, the playout budget, the degree of parallelism, the
// evaluator's batch size, and the per-state scratch width. Builder-style
// SetXxx methods return *Config, alongside a DefaultConfig constructor
// and a String method for diagnostics.
type Config struct {
	CPuct            float64
	NPlayout         int
	ThreadPoolSize   int
	EvalBatchSize    int
	CompactStateSize int
}

const (
	DefaultCPuct            float64 = 1.5
	DefaultNPlayout         int     = 800
	DefaultThreadPoolSize   int     = 1
	DefaultEvalBatchSize    int     = 8
	DefaultCompactStateSize int     = 1
)

// DefaultConfig returns a Config usable out of the box for small searches
// and single-threaded tests.
func DefaultConfig() *Config {
	return &Config{
		CPuct:            DefaultCPuct,
		NPlayout:         DefaultNPlayout,
		ThreadPoolSize:   DefaultThreadPoolSize,
		EvalBatchSize:    DefaultEvalBatchSize,
		CompactStateSize: DefaultCompactStateSize,
	}
}

func (c *Config) String() string {
	builder := strings.Builder{}
	_ = json.NewEncoder(&builder).Encode(c)
	return builder.String()
}

// SetCPuct sets the PUCT exploration weight. Values outside (0, +inf) are
// a contract violation by the caller; the value is stored as given and
// is not validated here or where it is used.
func (c *Config) SetCPuct(cPuct float64) *Config {
	c.CPuct = cPuct
	return c
}

// SetNPlayout sets the total playout budget per GetMoveCounts call.
func (c *Config) SetNPlayout(n int) *Config {
	c.NPlayout = n
	return c
}

// SetThreadPoolSize sets the degree of parallelism across the worker pool.
func (c *Config) SetThreadPoolSize(n int) *Config {
	c.ThreadPoolSize = max(1, n)
	return c
}

// SetEvalBatchSize sets the maximum batch size passed to the evaluator.
func (c *Config) SetEvalBatchSize(n int) *Config {
	c.EvalBatchSize = max(1, n)
	return c
}

// SetCompactStateSize sets the per-state encoded width (in units of
// float64) used to size the evaluator's scratch buffer.
func (c *Config) SetCompactStateSize(n int) *Config {
	c.CompactStateSize = max(0, n)
	return c
}
