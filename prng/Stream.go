// Package prng implements splittable deterministic random streams.
//
// A Stream is an immutable handle: the same Stream always produces the
// same draws. Fresh entropy is obtained by deterministically deriving
// child streams with Split or SplitN, never by advancing shared state.
// This replaces any notion of global random state in the training
// engine.
package prng

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/exp/rand"
)

// Stream is a handle on a deterministic random stream
type Stream struct {
	key uint64
}

// NewStream returns the root Stream for a seed
func NewStream(seed uint64) Stream {
	return Stream{key: mix(seed)}
}

// Split deterministically derives two independent child streams from
// a parent. The parent should be discarded after splitting: reusing it
// yields the same draws it would have produced before the split.
func Split(s Stream) (Stream, Stream) {
	return s.child(0), s.child(1)
}

// SplitN deterministically derives n independent child streams
func SplitN(s Stream, n int) []Stream {
	children := make([]Stream, n)
	for i := range children {
		children[i] = s.child(uint64(i))
	}
	return children
}

// child derives the i-th child stream of s
func (s Stream) child(i uint64) Stream {
	return Stream{key: mix(s.key ^ mix(i+1))}
}

// Source returns a counter-based generator positioned at the start of
// the stream. Sources returned by repeated calls are identical.
func (s Stream) Source() rand.Source {
	return rand.NewSource(s.key)
}

// Rand returns a *rand.Rand positioned at the start of the stream
func (s Stream) Rand() *rand.Rand {
	return rand.New(s.Source())
}

// Float64 returns the first uniform [0, 1) draw of the stream
func (s Stream) Float64() float64 {
	return s.Rand().Float64()
}

// Uint64 returns the first raw draw of the stream
func (s Stream) Uint64() uint64 {
	return s.Rand().Uint64()
}

func (s Stream) String() string {
	return fmt.Sprintf("Stream(%#016x)", s.key)
}

// GobEncode implements the GobEncoder interface
func (s Stream) GobEncode() ([]byte, error) {
	encoded := make([]byte, 8)
	binary.BigEndian.PutUint64(encoded, s.key)
	return encoded, nil
}

// GobDecode implements the GobDecoder interface
func (s *Stream) GobDecode(encoded []byte) error {
	if len(encoded) != 8 {
		return fmt.Errorf("gobdecode: expected 8 bytes, got %d", len(encoded))
	}
	s.key = binary.BigEndian.Uint64(encoded)
	return nil
}

// mix is the SplitMix64 finalizer, used to decorrelate derived keys
func mix(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
