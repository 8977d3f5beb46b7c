package yin

import (
	"fmt"

	"github.com/sonwh98/yin/internal/yin/hash"
)

// Backend names a CESK implementation an Engine can run a program on.
type Backend string

const (
	BackendTree     Backend = "tree"
	BackendGraph    Backend = "graph"
	BackendRegister Backend = "register"
	BackendStack    Backend = "stack"
)

// TraceConfig controls the optional trace datom emission surface.
// Disabled by default since it sits outside the default execution
// path.
type TraceConfig struct {
	Enabled       bool
	Cadence       int
	IncludeValues bool
}

// DefaultTraceConfig returns tracing disabled, at the default snapshot
// cadence should it later be enabled.
func DefaultTraceConfig() *TraceConfig {
	return &TraceConfig{Enabled: false, Cadence: 64, IncludeValues: false}
}

// WithEnabled toggles trace emission.
func (c *TraceConfig) WithEnabled(enabled bool) *TraceConfig {
	c.Enabled = enabled
	return c
}

// WithCadence sets the number of steps between full register-file
// snapshots.
func (c *TraceConfig) WithCadence(steps int) *TraceConfig {
	c.Cadence = steps
	return c
}

// WithIncludeValues toggles whether raw values, not just type tags,
// are recorded on register accesses.
func (c *TraceConfig) WithIncludeValues(include bool) *TraceConfig {
	c.IncludeValues = include
	return c
}

func (c *TraceConfig) Validate() error {
	if c.Cadence <= 0 {
		return fmt.Errorf("trace cadence must be positive, got %d", c.Cadence)
	}
	return nil
}

// StreamConfig holds a default stream capacity. Validate checks it, but
// Engine does not pass it to the backends: stream/make creates streams
// with the capacity the program gives, or stream.Unbounded without one.
type StreamConfig struct {
	DefaultCapacity int
}

// DefaultStreamConfig returns a DefaultCapacity of 0. Note that
// stream.New marks an unbounded stream with stream.Unbounded (-1) and
// treats a capacity of 0 as no room at all.
func DefaultStreamConfig() *StreamConfig {
	return &StreamConfig{DefaultCapacity: 0}
}

// WithDefaultCapacity sets DefaultCapacity.
func (c *StreamConfig) WithDefaultCapacity(n int) *StreamConfig {
	c.DefaultCapacity = n
	return c
}

func (c *StreamConfig) Validate() error {
	if c.DefaultCapacity < 0 {
		return fmt.Errorf("default stream capacity must be non-negative, got %d", c.DefaultCapacity)
	}
	return nil
}

// EngineConfig configures an Engine: which backend runs programs and
// trace emission. It also carries a content-hash algorithm and stream
// defaults, which Validate checks and the Engine does not otherwise
// read; transport functions take their algorithm as an argument.
type EngineConfig struct {
	Backend       Backend
	HashAlgorithm hash.Algorithm
	Streams       *StreamConfig
	Trace         *TraceConfig
}

// DefaultEngineConfig returns the register backend (the first to carry
// tracing), sha256 content hashing, and default stream/trace settings.
func DefaultEngineConfig() *EngineConfig {
	return &EngineConfig{
		Backend:       BackendRegister,
		HashAlgorithm: hash.SHA256,
		Streams:       DefaultStreamConfig(),
		Trace:         DefaultTraceConfig(),
	}
}

// WithBackend selects the CESK implementation programs run on.
func (c *EngineConfig) WithBackend(b Backend) *EngineConfig {
	c.Backend = b
	return c
}

// WithHashAlgorithm sets HashAlgorithm.
func (c *EngineConfig) WithHashAlgorithm(algo hash.Algorithm) *EngineConfig {
	c.HashAlgorithm = algo
	return c
}

// WithStreams replaces the stream defaults.
func (c *EngineConfig) WithStreams(s *StreamConfig) *EngineConfig {
	c.Streams = s
	return c
}

// WithTrace replaces the trace settings.
func (c *EngineConfig) WithTrace(t *TraceConfig) *EngineConfig {
	c.Trace = t
	return c
}

// Validate checks the backend name and delegates to the nested
// configs.
func (c *EngineConfig) Validate() error {
	switch c.Backend {
	case BackendTree, BackendGraph, BackendRegister, BackendStack:
	default:
		return fmt.Errorf("unknown backend %q", c.Backend)
	}
	if c.HashAlgorithm != "" && c.HashAlgorithm != hash.SHA256 && c.HashAlgorithm != hash.SHA3256 {
		return fmt.Errorf("unknown hash algorithm %q", c.HashAlgorithm)
	}
	if c.Streams != nil {
		if err := c.Streams.Validate(); err != nil {
			return err
		}
	}
	if c.Trace != nil {
		if err := c.Trace.Validate(); err != nil {
			return err
		}
	}
	return nil
}
