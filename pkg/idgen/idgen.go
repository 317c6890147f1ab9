// Package idgen provides the monotonic identifier sequences the matching
// engine owns: one for order identifiers, one for execution identifiers.
package idgen

import "sync/atomic"

// Sequence is a monotonically increasing uint64 counter starting at 1.
// Safe for concurrent use, though the engine's single-writer discipline
// means only one goroutine ever calls Next in practice.
type Sequence struct {
	counter uint64
}

// NewSequence constructs a sequence whose first Next call returns 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next value in the sequence.
func (s *Sequence) Next() uint64 {
	return atomic.AddUint64(&s.counter, 1)
}
